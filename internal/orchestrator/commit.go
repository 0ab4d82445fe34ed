package orchestrator

import (
	"context"
	"fmt"
)

// commit runs svn commit against the target working copy. In noop mode
// (a troubleshooting aid, SPEC_FULL.md §6) svn commit is skipped and the
// working copy is reverted in its place, so the run can be repeated without
// touching the repository.
func (o *Orchestrator) commit(ctx context.Context, message string) error {
	if o.Config.Noop {
		revertRes, err := o.Client.Run(ctx, []string{"revert", "-R", o.Config.Target})
		if err != nil {
			return err
		}
		if revertRes.ExitCode != 0 {
			return fmt.Errorf("noop revert in place of commit failed: %s", revertRes.CombinedStderr())
		}
		return nil
	}

	res, err := o.Client.Run(ctx, []string{"commit", "-m", message, o.Config.Target})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("svn commit failed: %s", res.CombinedStderr())
	}

	return nil
}
