package svnxml

import (
	"encoding/xml"
	"fmt"
)

// ItemState is the wc-status "item" attribute.
type ItemState string

const (
	ItemAdded       ItemState = "added"
	ItemModified    ItemState = "modified"
	ItemDeleted     ItemState = "deleted"
	ItemNormal      ItemState = "normal"
	ItemMissing     ItemState = "missing"
	ItemConflicted  ItemState = "conflicted"
	ItemUnversioned ItemState = "unversioned"
)

// PropsState is the wc-status "props" attribute.
type PropsState string

const (
	PropsNone       PropsState = "none"
	PropsNormal     PropsState = "normal"
	PropsModified   PropsState = "modified"
	PropsConflicted PropsState = "conflicted"
)

// StatusEntry is one path reported by `svn status --xml`.
type StatusEntry struct {
	Path          string
	Item          ItemState
	Props         PropsState
	TreeConflicted bool
}

// HasConflict is true when either the item itself is conflicted or a tree
// conflict is recorded against it.
func (s StatusEntry) HasConflict() bool {
	return s.TreeConflicted || s.Item == ItemConflicted || s.Props == PropsConflicted
}

// HasRealChanges is true for anything other than a purely-"normal" item,
// excluding unversioned paths (which are never "real changes" caused by a
// merge — they are scratch files the reverter should leave alone unless
// something else marks them).
func (s StatusEntry) HasRealChanges() bool {
	if s.Item == ItemUnversioned {
		return false
	}
	return s.Item != ItemNormal || s.Props != PropsNormal && s.Props != PropsNone
}

type rawStatus struct {
	XMLName xml.Name   `xml:"status"`
	Target  rawTarget  `xml:"target"`
}

type rawTarget struct {
	Entries []rawEntry `xml:"entry"`
}

type rawEntry struct {
	Path      string      `xml:"path,attr"`
	WCStatus  rawWCStatus `xml:"wc-status"`
}

type rawWCStatus struct {
	Item          string `xml:"item,attr"`
	Props         string `xml:"props,attr"`
	TreeConflicted string `xml:"tree-conflicted,attr"`
}

// ParseStatus decodes `svn status --ignore-externals --xml TARGET` output.
// Duplicate paths keep their first occurrence.
func ParseStatus(data []byte) ([]StatusEntry, error) {
	var raw rawStatus
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("svnxml: parsing status: %w", err)
	}

	seen := make(map[string]bool, len(raw.Target.Entries))
	entries := make([]StatusEntry, 0, len(raw.Target.Entries))
	for _, e := range raw.Target.Entries {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		entries = append(entries, StatusEntry{
			Path:           e.Path,
			Item:           ItemState(e.WCStatus.Item),
			Props:          PropsState(e.WCStatus.Props),
			TreeConflicted: e.WCStatus.TreeConflicted == "true",
		})
	}
	return entries, nil
}

// Conflicted filters entries down to those with HasConflict() true.
func Conflicted(entries []StatusEntry) []StatusEntry {
	var out []StatusEntry
	for _, e := range entries {
		if e.HasConflict() {
			out = append(out, e)
		}
	}
	return out
}

// RealChanges filters entries down to those with HasRealChanges() true.
func RealChanges(entries []StatusEntry) []StatusEntry {
	var out []StatusEntry
	for _, e := range entries {
		if e.HasRealChanges() {
			out = append(out, e)
		}
	}
	return out
}

// Unversioned filters entries down to unversioned items.
func Unversioned(entries []StatusEntry) []StatusEntry {
	var out []StatusEntry
	for _, e := range entries {
		if e.Item == ItemUnversioned {
			out = append(out, e)
		}
	}
	return out
}
