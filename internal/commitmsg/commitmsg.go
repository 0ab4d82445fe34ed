// Package commitmsg builds commit subjects and IDLE-DATA bodies, and parses
// them back. This round-trip is the wire contract between automerge runs
// (the Revision Model's SplitMessage reads what this package writes).
package commitmsg

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/idlemerge/automerge/internal/revision"
)

const idleDataHeader = "-- IDLEMERGE DATA --"

// RevisionInfo is the (author, timestamp) pair needed to render an r<n>
// line; it is a thin projection of revision.Loaded so this package doesn't
// need to depend on how revisions get loaded.
type RevisionInfo struct {
	Number            revision.Revision
	Author            string
	Timestamp         string // already formatted, "2006-01-02 15:04:05.000000"
	messageForSubject string
}

// FormatTimestamp renders a time.Time the way svn log timestamps are shown
// in the IDLE-DATA block: space-separated date/time, microsecond precision,
// no timezone suffix (the VCS always reports UTC).
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000000")
}

// Build renders the full commit message: subject line, then the IDLE-DATA
// block on the next line (no blank line between them). content and metadata are disjoint sets of revision
// numbers; infos supplies the author/timestamp for every number in their
// union. source is the configured source branch (e.g. "^/foo/stable");
// targetRepoPath is the target's repository-relative path, used only by
// the multiple-content-revisions subject form.
//
// Build fails loudly (per SPEC_FULL.md §4.8) if both content and metadata
// are empty.
func Build(content, metadata []revision.Revision, infos map[revision.Revision]RevisionInfo, source, targetRepoPath string) (string, error) {
	if len(content) == 0 && len(metadata) == 0 {
		return "", fmt.Errorf("commitmsg: cannot build a commit message with no revisions")
	}

	subject, err := buildSubject(content, metadata, infos, source, targetRepoPath)
	if err != nil {
		return "", err
	}

	body := buildIdleDataBlock(content, metadata, infos)

	return subject + "\n" + body, nil
}

func buildSubject(content, metadata []revision.Revision, infos map[revision.Revision]RevisionInfo, source, targetRepoPath string) (string, error) {
	switch {
	case len(content) == 1:
		r := content[0]
		info, ok := infos[r]
		if !ok {
			return "", fmt.Errorf("commitmsg: missing info for r%d", r)
		}
		return fmt.Sprintf("[automerge %s@%d] %s", source, r, info.userMessage()), nil

	case len(content) == 0 && len(metadata) == 1:
		r := metadata[0]
		info, ok := infos[r]
		if !ok {
			return "", fmt.Errorf("commitmsg: missing info for r%d", r)
		}
		return fmt.Sprintf("[automerge %s@%d] %s", source, r, info.userMessage()), nil

	case len(content) == 0 && len(metadata) > 1:
		return fmt.Sprintf("[automerge %s] Committing mergeinfo changes", source), nil

	default: // multiple content revisions
		sorted := revision.Sorted(content)
		parts := make([]string, len(sorted))
		for i, r := range sorted {
			parts[i] = strconv.Itoa(int(r))
		}
		return fmt.Sprintf("merge revisions %s from %s to %s", strings.Join(parts, ", "), source, targetRepoPath), nil
	}
}

// userMessage exists so buildSubject can read an optional message field
// without commitmsg needing to know about revision.Loaded's full shape;
// callers populate it via RevisionInfoFromLoaded.
func (r RevisionInfo) userMessage() string { return r.messageForSubject }

// RevisionInfoFromLoaded projects a fully loaded revision into the minimal
// shape this package needs.
func RevisionInfoFromLoaded(l *revision.Loaded) RevisionInfo {
	return RevisionInfo{
		Number:            l.Number,
		Author:            l.Author,
		Timestamp:         FormatTimestamp(l.Date),
		messageForSubject: l.Message,
	}
}

func buildIdleDataBlock(content, metadata []revision.Revision, infos map[revision.Revision]RevisionInfo) string {
	var b strings.Builder
	b.WriteString(idleDataHeader + "\n")

	if len(content) > 0 {
		b.WriteString("  REVISIONS=" + revision.JoinCSV(content) + "\n")
	}
	if len(metadata) > 0 {
		b.WriteString("  MERGEINFO_REVISIONS=" + revision.JoinCSV(metadata) + "\n")
	}

	union := append(append([]revision.Revision{}, content...), metadata...)
	sorted := revision.Sorted(union)
	for i, r := range sorted {
		info := infos[r]
		line := fmt.Sprintf("  r%d | %s | %s", r, info.Author, info.Timestamp)
		if i < len(sorted)-1 {
			line += "\n"
		}
		b.WriteString(line)
	}

	return b.String()
}

// Parsed is the result of parsing an IDLE-DATA block back into its two
// revision sets.
type Parsed struct {
	Content  []revision.Revision
	Metadata []revision.Revision
}

// Parse reads an IDLE-DATA block (as produced by Build, or extracted from
// a commit message by revision.SplitMessage) back into its REVISIONS and
// MERGEINFO_REVISIONS sets. It tolerates either line being absent.
func Parse(block string) (*Parsed, error) {
	p := &Parsed{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "REVISIONS="):
			revs, err := parseCSV(strings.TrimPrefix(line, "REVISIONS="))
			if err != nil {
				return nil, err
			}
			p.Content = revs
		case strings.HasPrefix(line, "MERGEINFO_REVISIONS="):
			revs, err := parseCSV(strings.TrimPrefix(line, "MERGEINFO_REVISIONS="))
			if err != nil {
				return nil, err
			}
			p.Metadata = revs
		}
	}
	return p, nil
}

func parseCSV(s string) ([]revision.Revision, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []revision.Revision
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("commitmsg: parsing revision list %q: %w", s, err)
		}
		out = append(out, revision.Revision(n))
	}
	return out, nil
}
