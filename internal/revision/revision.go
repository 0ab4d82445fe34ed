// Package revision models a single source-branch revision: a bare,
// I/O-free identifier plus an explicit Load step that turns it into an
// immutable value object, per SPEC_FULL.md's "lazy-loaded entities with
// mutable caches" design note. The teacher repo doesn't have a direct
// analogue (git commits are addressed by hash, not sequence number), so
// the shape here follows golang-dep's xml-decode-then-value-object pattern
// in internal/gps/vcs_repo.go rather than any single teacher file.
package revision

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/idlemerge/automerge/internal/svnxml"
	"github.com/idlemerge/automerge/internal/vcsproc"
)

// idleDataMarker is the literal line that separates a commit's user
// message from its IDLE-DATA block.
const idleDataMarker = "-- IDLEMERGE DATA --"

// Revision is a bare, comparable revision number. It carries no cached
// state and requires no I/O to construct.
type Revision int

// Less orders revisions numerically; Equal follows directly from Go's
// built-in int comparison (the design note against overloading identity).
func (r Revision) Less(other Revision) bool { return r < other }

// Loaded is the fully materialized, immutable view of a Revision after one
// `svn log --xml -v -r N BRANCH` call.
type Loaded struct {
	Number   Revision
	Author   string
	Date     time.Time
	Message  string // user message only, before the IDLE-DATA marker
	IdleData string // raw IDLE-DATA block, possibly empty
	Paths    []svnxml.TouchedPath
}

// Runner is the subset of vcsproc used to load a revision; it exists so
// tests can substitute a fake without depending on a real svn binary.
type Runner interface {
	Run(ctx context.Context, args []string) (*vcsproc.Result, error)
}

// Load fetches and parses the log entry for number on branch. It is the
// only I/O this package performs, and it performs it exactly once per
// call — there is no cache here; callers that want caching keep the
// *Loaded they get back.
func Load(ctx context.Context, runner Runner, number Revision, branch string) (*Loaded, error) {
	res, err := runner.Run(ctx, []string{"log", "--xml", "-v", "-r", strconv.Itoa(int(number)), branch})
	if err != nil {
		return nil, fmt.Errorf("revision: loading r%d: %w", number, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("revision: svn log r%d failed: %s", number, res.CombinedStderr())
	}

	entry, err := svnxml.ParseLog([]byte(strings.Join(res.Stdout, "\n")))
	if err != nil {
		return nil, fmt.Errorf("revision: parsing r%d: %w", number, err)
	}

	userMsg, idleData := SplitMessage(entry.Message)

	return &Loaded{
		Number:   Revision(entry.Revision),
		Author:   entry.Author,
		Date:     entry.Date,
		Message:  userMsg,
		IdleData: idleData,
		Paths:    entry.Paths,
	}, nil
}

// SplitMessage splits a raw commit message on the first literal line equal
// to idleDataMarker. Text before is the user message (trimmed of trailing
// blank lines); text after, including the marker line, is the IDLE-DATA
// block verbatim.
func SplitMessage(raw string) (userMessage, idleBlock string) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == idleDataMarker {
			userMessage = strings.TrimRight(strings.Join(lines[:i], "\n"), "\n")
			idleBlock = strings.Join(lines[i:], "\n")
			return userMessage, idleBlock
		}
	}
	return raw, ""
}

// sourcePattern matches a configured source of the form
// ^/<project>/(trunk|branches/<name>), capturing the project name.
var sourcePattern = regexp.MustCompile(`^\^/([^/]+)/(?:trunk|branches/[^/]+)$`)

// effectivePathPattern matches a repository-relative path under a project
// root, extracting the ^/<project>/(trunk|branches/<name>) prefix it falls
// under.
func effectivePathPattern(project string) *regexp.Regexp {
	return regexp.MustCompile(`^/` + regexp.QuoteMeta(project) + `/(?:trunk|branches/[^/]+)`)
}

// EffectiveSourceBranch implements the "effective source branch" rule from
// SPEC_FULL.md §3: prefer the configured source if any touched path falls
// under it; otherwise fall back to the last touched path that matches the
// same project root; otherwise use the configured source unchanged.
func (l *Loaded) EffectiveSourceBranch(configuredSource string) string {
	m := sourcePattern.FindStringSubmatch(configuredSource)
	if m == nil {
		return configuredSource
	}
	project := m[1]

	configuredRepoPrefix := strings.TrimPrefix(configuredSource, "^")
	for _, p := range l.Paths {
		if strings.HasPrefix(p.Path, configuredRepoPrefix+"/") || p.Path == configuredRepoPrefix {
			return configuredSource
		}
	}

	pattern := effectivePathPattern(project)
	var last string
	for _, p := range l.Paths {
		if match := pattern.FindString(p.Path); match != "" {
			last = "^" + match
		}
	}
	if last != "" {
		return last
	}

	return configuredSource
}

// Sorted returns the given revisions in ascending numeric order, without
// mutating the input slice.
func Sorted(revs []Revision) []Revision {
	out := make([]Revision, len(revs))
	copy(out, revs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// JoinCSV renders sorted revision numbers as a comma-separated string, the
// shape used both in the IDLE-DATA block and the record-only file.
func JoinCSV(revs []Revision) string {
	sorted := Sorted(revs)
	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = strconv.Itoa(int(r))
	}
	return strings.Join(parts, ",")
}
