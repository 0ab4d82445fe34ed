package svnxml

import (
	"encoding/xml"
	"fmt"
)

// ConflictAction is the "action" half of a tree-conflict's dispatch key.
type ConflictAction string

const (
	ConflictActionAdd    ConflictAction = "add"
	ConflictActionDelete ConflictAction = "delete"
	ConflictActionEdit   ConflictAction = "edit"
)

// ConflictReason is the "reason" half of a tree-conflict's dispatch key.
type ConflictReason string

const (
	ConflictReasonAdd    ConflictReason = "add"
	ConflictReasonDelete ConflictReason = "delete"
	ConflictReasonEdit   ConflictReason = "edit"
)

// ConflictSide is one of the two sides of a tree conflict ("source-left" or
// "source-right" in svn's own vocabulary).
type ConflictSide struct {
	Side       string
	Kind       PathKind
	PathInRepo string
	Revision   int
}

// TreeConflict describes a single <conflict> block inside <wc-info> from
// `svn info --xml`.
type TreeConflict struct {
	Action ConflictAction
	Reason ConflictReason
	Kind   PathKind
	Victim string
	Left   ConflictSide
	Right  ConflictSide
}

// InfoEntry is one path's worth of `svn info --xml` output.
type InfoEntry struct {
	Path         string
	Kind         PathKind
	URL          string
	RepoRoot     string
	TreeConflict *TreeConflict
}

type rawInfo struct {
	XMLName xml.Name   `xml:"info"`
	Entries []rawEntryInfo `xml:"entry"`
}

type rawEntryInfo struct {
	Path     string         `xml:"path,attr"`
	Kind     string         `xml:"kind,attr"`
	URL      string         `xml:"url"`
	Repo     rawRepo        `xml:"repository"`
	WCInfo   rawWCInfo      `xml:"wc-info"`
}

type rawRepo struct {
	Root string `xml:"root"`
}

type rawWCInfo struct {
	Conflict *rawTreeConflict `xml:"conflict"`
}

type rawTreeConflict struct {
	VictimPath      string          `xml:"victim,attr"`
	Kind            string          `xml:"kind,attr"`
	Operation       string          `xml:"operation,attr"`
	Action          string          `xml:"action,attr"`
	Reason          string          `xml:"reason,attr"`
	SourceLeft      *rawVersionInfo `xml:"source-left-version"`
	SourceRight     *rawVersionInfo `xml:"source-right-version"`
}

type rawVersionInfo struct {
	Kind       string `xml:"kind,attr"`
	PathInRepo string `xml:"path-in-repos,attr"`
	Revision   string `xml:"revision,attr"`
}

// ParseInfo decodes `svn info --xml TARGET-or-PATH` output. Svn always
// returns exactly one <entry> per requested path; multi-path invocations
// are not used by this system, so the first entry is authoritative.
func ParseInfo(data []byte) (*InfoEntry, error) {
	var raw rawInfo
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("svnxml: parsing info: %w", err)
	}
	if len(raw.Entries) == 0 {
		return nil, fmt.Errorf("svnxml: info document has no entries")
	}
	e := raw.Entries[0]

	entry := &InfoEntry{
		Path:     e.Path,
		Kind:     PathKind(e.Kind),
		URL:      e.URL,
		RepoRoot: e.Repo.Root,
	}

	if c := e.WCInfo.Conflict; c != nil {
		tc := &TreeConflict{
			Action: ConflictAction(c.Action),
			Reason: ConflictReason(c.Reason),
			Kind:   PathKind(c.Kind),
			Victim: c.VictimPath,
		}
		if c.SourceLeft != nil {
			tc.Left = decodeVersion("source-left", c.SourceLeft)
		}
		if c.SourceRight != nil {
			tc.Right = decodeVersion("source-right", c.SourceRight)
		}
		entry.TreeConflict = tc
	}

	return entry, nil
}

func decodeVersion(side string, v *rawVersionInfo) ConflictSide {
	var rev int
	fmt.Sscanf(v.Revision, "%d", &rev)
	return ConflictSide{
		Side:       side,
		Kind:       PathKind(v.Kind),
		PathInRepo: v.PathInRepo,
		Revision:   rev,
	}
}
