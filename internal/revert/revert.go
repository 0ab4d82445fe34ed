// Package revert implements the spurious-change reverter from
// SPEC_FULL.md §4.7: after replaying a revision, anything the working copy
// shows as changed that the revision didn't actually touch gets reverted,
// keeping the eventual commit minimal. The "legitimate paths" set is
// threaded through a whole concise batch so later revisions in the same
// batch don't get their predecessors' changes reverted out from under them.
package revert

import (
	"context"
	"fmt"
	"strings"

	"github.com/idlemerge/automerge/internal/svnxml"
	"github.com/idlemerge/automerge/internal/vcsproc"
)

// Client is the subset of vcsproc.Client this package needs.
type Client interface {
	Run(ctx context.Context, args []string) (*vcsproc.Result, error)
}

// RepoRelative translates a revision's touched-path set into working-copy-
// relative paths by stripping the effective source branch's repository
// prefix (e.g. "^/foo/stable") from each repository-absolute path
// ("/foo/stable/src/Main.java" -> "src/Main.java").
func RepoRelative(touched []svnxml.TouchedPath, effectiveSourceBranch string) map[string]bool {
	prefix := strings.TrimPrefix(effectiveSourceBranch, "^")
	out := make(map[string]bool, len(touched))
	for _, p := range touched {
		rel := strings.TrimPrefix(p.Path, prefix)
		rel = strings.TrimPrefix(rel, "/")
		out[rel] = true
	}
	return out
}

// Revert reverts every status entry that is not unversioned and whose path,
// taken relative to targetRoot, is not in legitimate, and returns the updated legitimate set (legitimate
// unioned with this revision's own touched paths) for the caller to thread
// into the next revision in the same batch.
func Revert(ctx context.Context, client Client, status []svnxml.StatusEntry, touched []svnxml.TouchedPath, effectiveSourceBranch, targetRoot string, legitimate map[string]bool) (map[string]bool, error) {
	thisRevision := RepoRelative(touched, effectiveSourceBranch)

	updated := make(map[string]bool, len(legitimate)+len(thisRevision)+1)
	for p := range legitimate {
		updated[p] = true
	}
	for p := range thisRevision {
		updated[p] = true
	}
	updated[targetRoot] = true

	for _, entry := range status {
		if entry.Item == svnxml.ItemUnversioned {
			continue
		}
		rel := strings.TrimPrefix(entry.Path, targetRoot+"/")
		if updated[rel] || entry.Path == targetRoot {
			continue
		}
		if err := revertPath(ctx, client, entry.Path); err != nil {
			return nil, fmt.Errorf("revert: %s: %w", entry.Path, err)
		}
	}

	return updated, nil
}

func revertPath(ctx context.Context, client Client, path string) error {
	res, err := client.Run(ctx, []string{"revert", path})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("svn revert failed: %s", res.CombinedStderr())
	}
	return nil
}
