package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/idlemerge/automerge/internal/revision"
)

// eligibleRevisions implements SPEC_FULL.md §4.9 step 2: ask the VCS which
// source revisions aren't yet reflected in the target's merge-tracking
// metadata. `svn mergeinfo --show-revs eligible` prints one "rN" per line.
func (o *Orchestrator) eligibleRevisions(ctx context.Context) ([]revision.Revision, error) {
	res, err := o.Client.Run(ctx, []string{"mergeinfo", "--show-revs", "eligible", o.Config.Source, o.Config.Target})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("svn mergeinfo failed: %s", res.CombinedStderr())
	}

	var revs []revision.Revision
	for _, line := range res.Stdout {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "r")
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: parsing eligible revision %q: %w", line, err)
		}
		revs = append(revs, revision.Revision(n))
	}

	return revision.Sorted(revs), nil
}
