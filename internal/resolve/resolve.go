// Package resolve auto-resolves the small, mechanically decidable set of
// svn tree conflicts described in SPEC_FULL.md §4.6, escalating everything
// else back to the orchestrator. It never touches file contents, only
// conflict markers — matching the normalized "true = unresolved, escalate"
// convention called out in the spec's design notes.
package resolve

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/idlemerge/automerge/internal/logging"
	"github.com/idlemerge/automerge/internal/svnxml"
	"github.com/idlemerge/automerge/internal/vcsproc"
)

// Client is the subset of vcsproc.Client this package needs.
type Client interface {
	Run(ctx context.Context, args []string) (*vcsproc.Result, error)
	Stream(ctx context.Context, args []string) (*vcsproc.Stream, error)
}

// Resolver auto-resolves a closed set of tree conflicts.
type Resolver struct {
	client Client
	logger *logging.Logger
}

func New(client Client, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{client: client, logger: logger}
}

// Resolve walks conflicted, fetching each path's info view and dispatching
// on its tree-conflict block. It returns the subset that could not be
// auto-resolved and must be escalated to the orchestrator as a Conflict.
func (r *Resolver) Resolve(ctx context.Context, conflicted []svnxml.StatusEntry) ([]svnxml.StatusEntry, error) {
	var escalated []svnxml.StatusEntry

	for _, entry := range conflicted {
		info, err := r.fetchInfo(ctx, entry.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve: fetching info for %s: %w", entry.Path, err)
		}

		unresolved, err := r.dispatch(ctx, entry, info)
		if err != nil {
			return nil, err
		}
		if unresolved {
			escalated = append(escalated, entry)
		}
	}

	return escalated, nil
}

func (r *Resolver) fetchInfo(ctx context.Context, path string) (*svnxml.InfoEntry, error) {
	res, err := r.client.Run(ctx, []string{"info", "--xml", path})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("svn info %s failed: %s", path, res.CombinedStderr())
	}
	return svnxml.ParseInfo([]byte(joinLines(res.Stdout)))
}

// dispatch returns true when the conflict is unresolved and must escalate.
func (r *Resolver) dispatch(ctx context.Context, entry svnxml.StatusEntry, info *svnxml.InfoEntry) (bool, error) {
	tc := info.TreeConflict
	if tc == nil {
		// Conflicted in status but no tree-conflict block: something the
		// resolver doesn't model. Escalate rather than guess.
		return true, nil
	}

	switch {
	case tc.Action == svnxml.ConflictActionDelete && tc.Reason == svnxml.ConflictReasonDelete:
		// Both sides removed the victim — nothing to reconcile.
		return false, r.markResolved(ctx, entry.Path)

	case tc.Action == svnxml.ConflictActionAdd && tc.Reason == svnxml.ConflictReasonAdd && tc.Kind == svnxml.KindFile:
		equal, err := r.contentsEqual(ctx, entry.Path, tc)
		if err != nil {
			return true, fmt.Errorf("resolve: comparing %s: %w", entry.Path, err)
		}
		if !equal {
			return true, nil
		}
		return false, r.markResolved(ctx, entry.Path)

	case tc.Action == svnxml.ConflictActionAdd && tc.Reason == svnxml.ConflictReasonAdd && tc.Kind == svnxml.KindDir:
		// Recursive directory reconciliation is out of scope.
		return true, nil

	case tc.Action == svnxml.ConflictActionDelete && tc.Reason == svnxml.ConflictReasonEdit:
		r.logger.Infof("resolve: incoming delete on locally-updated %s, escalating", entry.Path)
		return true, nil

	default:
		return true, nil
	}
}

func (r *Resolver) markResolved(ctx context.Context, path string) error {
	res, err := r.client.Run(ctx, []string{"resolved", path})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("svn resolved %s failed: %s", path, res.CombinedStderr())
	}
	return nil
}

// contentsEqual implements §4.6.1: stream the incoming (source-right)
// repository version through MD5 and compare it against the local
// working-copy file, also streamed. Streaming matters because either side
// may be multi-gigabyte.
func (r *Resolver) contentsEqual(ctx context.Context, localPath string, tc *svnxml.TreeConflict) (bool, error) {
	remoteHash, err := r.hashRemote(ctx, tc.Right.PathInRepo, tc.Right.Revision)
	if err != nil {
		return false, err
	}
	localHash, err := hashLocalFile(localPath)
	if err != nil {
		return false, err
	}
	return remoteHash == localHash, nil
}

func (r *Resolver) hashRemote(ctx context.Context, repoPath string, rev int) (string, error) {
	stream, err := r.client.Stream(ctx, []string{"cat", "-r", strconv.Itoa(rev), repoPath})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	h := md5.New()
	if _, err := io.Copy(h, stream.Stdout()); err != nil {
		return "", fmt.Errorf("streaming %s@%d: %w", repoPath, rev, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashLocalFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing local %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
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
