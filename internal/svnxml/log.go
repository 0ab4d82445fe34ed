// Package svnxml decodes the --xml output of svn log, status, and info into
// typed, cached views. The XML shapes themselves (logentry/paths, wc-status,
// entry/tree-conflict) follow real svn output; the unmarshal-into-small-
// local-structs idiom is grounded on the teacher pack's own svn XML
// handling in golang-dep's internal/gps/vcs_repo.go (svn info/log --xml).
package svnxml

import (
	"encoding/xml"
	"fmt"
	"time"
)

// PathKind is the node kind of a touched or conflicted path.
type PathKind string

const (
	KindFile PathKind = "file"
	KindDir  PathKind = "dir"
)

// PathAction is the log action recorded against a touched path.
type PathAction string

const (
	ActionAdded    PathAction = "A"
	ActionModified PathAction = "M"
	ActionDeleted  PathAction = "D"
)

// TouchedPath is one path affected by a single revision, as reported by
// `svn log -v --xml`.
type TouchedPath struct {
	Path   string
	Kind   PathKind
	Action PathAction
}

// LogEntry is one revision's worth of `svn log --xml -v` output: author,
// timestamp, message, and the paths it touched.
type LogEntry struct {
	Revision int
	Author   string
	Date     time.Time
	Message  string
	Paths    []TouchedPath
}

// rawLog mirrors the raw XML document produced by `svn log --xml -v -r N`.
type rawLog struct {
	XMLName xml.Name    `xml:"log"`
	Entries []rawLogEntry `xml:"logentry"`
}

type rawLogEntry struct {
	Revision string      `xml:"revision,attr"`
	Author   string      `xml:"author"`
	Date     string      `xml:"date"`
	Msg      string      `xml:"msg"`
	Paths    []rawPath   `xml:"paths>path"`
}

type rawPath struct {
	Kind   string `xml:"kind,attr"`
	Action string `xml:"action,attr"`
	Value  string `xml:",chardata"`
}

// ParseLog decodes `svn log --xml -v -r N BRANCH` output for a single
// revision. It is an error for the document to contain zero or more than
// one <logentry>, since the Revision Model always asks for exactly one.
func ParseLog(data []byte) (*LogEntry, error) {
	var raw rawLog
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("svnxml: parsing log: %w", err)
	}
	if len(raw.Entries) != 1 {
		return nil, fmt.Errorf("svnxml: expected exactly one logentry, got %d", len(raw.Entries))
	}
	return decodeLogEntry(raw.Entries[0])
}

func decodeLogEntry(e rawLogEntry) (*LogEntry, error) {
	var rev int
	if _, err := fmt.Sscanf(e.Revision, "%d", &rev); err != nil {
		return nil, fmt.Errorf("svnxml: parsing revision attr %q: %w", e.Revision, err)
	}

	ts, err := parseSvnDate(e.Date)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(e.Paths))
	paths := make([]TouchedPath, 0, len(e.Paths))
	for _, p := range e.Paths {
		path := p.Value
		if seen[path] {
			continue // first occurrence wins
		}
		seen[path] = true
		paths = append(paths, TouchedPath{
			Path:   path,
			Kind:   PathKind(p.Kind),
			Action: PathAction(p.Action),
		})
	}

	return &LogEntry{
		Revision: rev,
		Author:   e.Author,
		Date:     ts,
		Message:  e.Msg,
		Paths:    paths,
	}, nil
}

// parseSvnDate parses the ISO-8601-with-microseconds timestamp svn emits,
// e.g. "2011-01-01T01:01:01.100000Z".
func parseSvnDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000000Z", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("svnxml: parsing date %q: %w", s, err)
	}
	return t.UTC(), nil
}
