package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/idlemerge/automerge/internal/svnxml"
)

// resetWorkspace implements SPEC_FULL.md §4.9 step 1: recursive revert,
// update, remove every unversioned entry, update again. A failure on the
// second update is fatal — nothing downstream can be trusted to run
// against an unknown working copy state.
func (o *Orchestrator) resetWorkspace(ctx context.Context) error {
	if res, err := o.Client.Run(ctx, []string{"revert", "-R", o.Config.Target}); err != nil {
		return err
	} else if res.ExitCode != 0 {
		return fmt.Errorf("svn revert -R failed: %s", res.CombinedStderr())
	}

	if err := o.update(ctx); err != nil {
		return fmt.Errorf("initial update: %w", err)
	}

	status, err := o.status(ctx)
	if err != nil {
		return err
	}
	for _, entry := range svnxml.Unversioned(status) {
		if err := removeUnversioned(entry.Path); err != nil {
			return fmt.Errorf("removing unversioned %s: %w", entry.Path, err)
		}
	}

	if err := o.update(ctx); err != nil {
		return fmt.Errorf("post-cleanup update: %w", err)
	}

	return nil
}

func (o *Orchestrator) update(ctx context.Context) error {
	res, err := o.Client.Run(ctx, []string{"update", "--ignore-externals", o.Config.Target})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("svn update failed: %s", res.CombinedStderr())
	}
	return nil
}

func (o *Orchestrator) status(ctx context.Context) ([]svnxml.StatusEntry, error) {
	res, err := o.Client.Run(ctx, []string{"status", "--ignore-externals", "--xml", o.Config.Target})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("svn status failed: %s", res.CombinedStderr())
	}
	return svnxml.ParseStatus([]byte(joinLines(res.Stdout)))
}

// removeUnversioned removes a path that svn status reported as
// unversioned: a recursive directory removal for real directories, a
// plain unlink otherwise (including symbolic links, which must never be
// followed into).
func removeUnversioned(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
