package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/idlemerge/automerge/internal/classify"
	"github.com/idlemerge/automerge/internal/revision"
)

// retryableErrorTag is the stderr prefix svn uses for "cannot merge into
// mixed-revision working copy", per SPEC_FULL.md §4.9.1 and §6.
const retryableErrorTag = "svn: E195020"

const maxMergeAttempts = 3

// replayResult is the outcome of a single call to replayRevision.
type replayResult struct {
	Loaded         *revision.Loaded
	EffectiveBranch string
	RecordOnly     bool
	MergeExitCode  int
	MergeStderr    string
}

// Succeeded reports whether the merge invocation itself exited zero. A
// successful record-only merge and a successful content merge look
// identical from here; what differs downstream is whether the resulting
// status shows real changes.
func (r *replayResult) Succeeded() bool { return r.MergeExitCode == 0 }

// replayRevision implements SPEC_FULL.md §4.9.1: load the revision,
// classify it, and replay it as record-only or content merge, retrying
// once per attempt (up to maxMergeAttempts total) on the known
// mixed-revision-working-copy race. Any other nonzero exit is returned in
// the result, not as an error — callers decide what a failed replay means
// for their mode.
func (o *Orchestrator) replayRevision(ctx context.Context, classifier *classify.Classifier, num revision.Revision) (*replayResult, error) {
	loaded, err := revision.Load(ctx, o.Client, num, o.Config.Source)
	if err != nil {
		return nil, err
	}

	effective := loaded.EffectiveSourceBranch(o.Config.Source)
	recordOnly := classifier.IsRecordOnly(loaded)

	result := &replayResult{Loaded: loaded, EffectiveBranch: effective, RecordOnly: recordOnly}

	args := mergeArgs(effective, num, o.Config.Target, recordOnly)

	for attempt := 1; attempt <= maxMergeAttempts; attempt++ {
		res, err := o.Client.Run(ctx, args)
		if err != nil {
			return nil, err
		}

		result.MergeExitCode = res.ExitCode
		result.MergeStderr = res.CombinedStderr()

		if res.ExitCode == 0 {
			break
		}

		if isRetryableRace(res.Stderr) && attempt < maxMergeAttempts {
			o.Logger.Warnf("orchestrator: mixed-revision race merging r%d, updating and retrying (attempt %d/%d)", num, attempt, maxMergeAttempts)
			if err := o.update(ctx); err != nil {
				return nil, fmt.Errorf("retry update for r%d: %w", num, err)
			}
			continue
		}

		// Non-retryable, or retries exhausted: leave the failure in
		// result for the caller to log/continue past.
		break
	}

	if result.Succeeded() {
		if err := o.revertIgnoredPaths(ctx); err != nil {
			return nil, fmt.Errorf("reverting ignore-list paths after r%d: %w", num, err)
		}
	}

	return result, nil
}

func mergeArgs(effectiveBranch string, num revision.Revision, target string, recordOnly bool) []string {
	args := []string{"merge"}
	if recordOnly {
		args = append(args, "--record-only")
	} else {
		args = append(args, "--accept", "postpone")
	}
	args = append(args, "-c", strconv.Itoa(int(num)), fmt.Sprintf("%s@%d", effectiveBranch, int(num)), target)
	return args
}

func isRetryableRace(stderr []string) bool {
	if len(stderr) == 0 {
		return false
	}
	return strings.HasPrefix(stderr[0], retryableErrorTag)
}
