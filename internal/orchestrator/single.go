package orchestrator

import (
	"context"

	"github.com/idlemerge/automerge/internal/classify"
	"github.com/idlemerge/automerge/internal/revision"
	"github.com/idlemerge/automerge/internal/svnxml"
)

// runSingleNonConcise implements the non-concise mode preserved from
// SPEC_FULL.md §9's open question: a dry run over every eligible revision
// in order, replaying each merge to surface what WOULD happen without
// ever committing or escalating a conflict. It exists for operators
// diagnosing a stuck branch pair, not for unattended automation, so a
// conflicted or failed replay is logged and the loop moves on to the next
// revision rather than stopping or raising a ConflictError.
func (o *Orchestrator) runSingleNonConcise(ctx context.Context, eligible []revision.Revision, classifier *classify.Classifier) error {
	for _, num := range eligible {
		result, err := o.replayRevision(ctx, classifier, num)
		if err != nil {
			return err
		}

		if !result.Succeeded() {
			o.Logger.Warnf("orchestrator: dry merge of r%d failed: %s", num, result.MergeStderr)
			continue
		}

		status, err := o.status(ctx)
		if err != nil {
			return err
		}
		conflicted := len(svnxml.Conflicted(status))
		if conflicted > 0 {
			o.Logger.Warnf("orchestrator: dry merge of r%d left %d conflicted path(s)", num, conflicted)
		} else {
			o.Logger.Infof("orchestrator: dry merge of r%d applied cleanly", num)
		}

		if err := o.resetWorkspace(ctx); err != nil {
			return err
		}
	}

	return nil
}
