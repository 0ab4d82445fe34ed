package orchestrator

import (
	"context"

	"github.com/idlemerge/automerge/internal/classify"
	"github.com/idlemerge/automerge/internal/commitmsg"
	"github.com/idlemerge/automerge/internal/recordonly"
	"github.com/idlemerge/automerge/internal/revert"
	"github.com/idlemerge/automerge/internal/revision"
	"github.com/idlemerge/automerge/internal/svnxml"
)

// runConcise implements the batching state machine of SPEC_FULL.md §4.9.2:
// replay eligible revisions in order, accumulating metadata-only revisions
// as pending metadata until one nets real content changes, then commit the
// whole batch as one changeset. legitimatePaths threads across the
// accumulated batch so the spurious-change reverter never reverts a file
// a prior revision in the same batch legitimately touched. Whether a
// replayed revision lands in REVISIONS= or MERGEINFO_REVISIONS= is decided
// from a fresh status taken after the spurious-change revert, not from the
// pre-merge classifier result: a revision can be classified as content but
// still net no real diff once already-applied hunks and spurious changes
// are accounted for, and that must fold into pending_metadata exactly like
// a classifier-marked record-only revision does.
func (o *Orchestrator) runConcise(ctx context.Context, eligible []revision.Revision, classifier *classify.Classifier, persistedRecordOnly map[revision.Revision]bool) error {
	var toMerge []revision.Revision
	var pendingMetadata []revision.Revision
	legitimatePaths := map[string]bool{}
	infos := map[revision.Revision]commitmsg.RevisionInfo{}

	for _, num := range eligible {
		result, err := o.replayRevision(ctx, classifier, num)
		if err != nil {
			return err
		}
		infos[num] = commitmsg.RevisionInfoFromLoaded(result.Loaded)

		if !result.Succeeded() {
			o.Logger.Warnf("orchestrator: merge of r%d failed, checking resulting status: %s", num, result.MergeStderr)
		}

		status, err := o.status(ctx)
		if err != nil {
			return err
		}

		if conflicted := svnxml.Conflicted(status); len(conflicted) > 0 {
			escalated, err := o.Resolver.Resolve(ctx, conflicted)
			if err != nil {
				return err
			}
			if len(escalated) > 0 {
				return &ConflictError{
					Revision:        num,
					PendingMetadata: cloneRevisions(pendingMetadata),
					PendingMerged:   cloneRevisions(toMerge),
					Source:          o.Config.Source,
					Target:          o.Config.Target,
					StatusLines:     conflictPaths(escalated),
				}
			}
			status, err = o.status(ctx)
			if err != nil {
				return err
			}
		}

		legitimatePaths, err = revert.Revert(ctx, o.Client, status, result.Loaded.Paths, result.EffectiveBranch, o.Config.Target, legitimatePaths)
		if err != nil {
			return err
		}

		// The reverter may have absorbed everything R touched; the
		// commit-vs-accumulate decision has to be made from what's left
		// on disk, not from the pre-merge classification.
		freshStatus, err := o.status(ctx)
		if err != nil {
			return err
		}

		if result.RecordOnly || len(svnxml.RealChanges(freshStatus)) == 0 {
			pendingMetadata = append(pendingMetadata, num)
			continue
		}

		toMerge = append(toMerge, num)

		message, err := commitmsg.Build(toMerge, pendingMetadata, infos, o.Config.Source, o.Config.TargetRepoPath)
		if err != nil {
			return err
		}
		if err := o.commit(ctx, message); err != nil {
			o.Logger.Errorf("orchestrator: commit of r%d failed, keeping pending revisions: %s", num, err)
			continue
		}

		toMerge = nil
		pendingMetadata = nil
		legitimatePaths = map[string]bool{}
	}

	if len(pendingMetadata) == 0 {
		return nil
	}

	if o.Config.CommitMergeinfo {
		message, err := commitmsg.Build(nil, pendingMetadata, infos, o.Config.Source, o.Config.TargetRepoPath)
		if err != nil {
			return err
		}
		return o.commit(ctx, message)
	}

	o.RecordOnly.Save(recordonly.Union(toSet(pendingMetadata), persistedRecordOnly))
	return nil
}

func cloneRevisions(revs []revision.Revision) []revision.Revision {
	out := make([]revision.Revision, len(revs))
	copy(out, revs)
	return out
}

func conflictPaths(entries []svnxml.StatusEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}
