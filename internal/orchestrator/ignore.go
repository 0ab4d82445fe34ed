package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// revertIgnoredPaths implements the ignore-list half of SPEC_FULL.md
// §4.9.1: after a successful merge, revert any working-copy-relative path
// matching the configured ignore list, so files the target branch owns
// outright (generated artifacts, branch-specific config) never pick up
// source-branch content even when the merge touched them.
func (o *Orchestrator) revertIgnoredPaths(ctx context.Context) error {
	if o.ignoreMatcher == nil {
		return nil
	}

	status, err := o.status(ctx)
	if err != nil {
		return err
	}

	var toRevert []string
	for _, entry := range status {
		rel := relativeToTarget(entry.Path, o.Config.Target)
		if o.ignoreMatcher.MatchesPath(rel) {
			toRevert = append(toRevert, entry.Path)
		}
	}
	if len(toRevert) == 0 {
		return nil
	}

	args := append([]string{"revert"}, toRevert...)
	res, err := o.Client.Run(ctx, args)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("svn revert of ignore-list paths failed: %s", res.CombinedStderr())
	}
	return nil
}

func relativeToTarget(path, target string) string {
	rel := strings.TrimPrefix(path, target)
	rel = strings.TrimPrefix(rel, "/")
	return filepath.ToSlash(rel)
}
