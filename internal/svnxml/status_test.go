package svnxml

import "testing"

const statusXML = `<?xml version="1.0" encoding="UTF-8"?>
<status>
  <target path=".">
    <entry path="src/widget.go">
      <wc-status item="modified" props="none"></wc-status>
    </entry>
    <entry path="src/conflict.go">
      <wc-status item="conflicted" props="none" tree-conflicted="true"></wc-status>
    </entry>
    <entry path="src/scratch.tmp">
      <wc-status item="unversioned" props="none"></wc-status>
    </entry>
    <entry path="src/widget.go">
      <wc-status item="modified" props="none"></wc-status>
    </entry>
  </target>
</status>
`

func TestParseStatusDedupesAndDecodes(t *testing.T) {
	entries, err := ParseStatus([]byte(statusXML))
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 deduped entries, got %d: %+v", len(entries), entries)
	}
}

func TestHasConflict(t *testing.T) {
	cases := []struct {
		name  string
		entry StatusEntry
		want  bool
	}{
		{"tree conflicted", StatusEntry{TreeConflicted: true}, true},
		{"item conflicted", StatusEntry{Item: ItemConflicted}, true},
		{"props conflicted", StatusEntry{Props: PropsConflicted}, true},
		{"clean", StatusEntry{Item: ItemNormal, Props: PropsNormal}, false},
	}
	for _, tc := range cases {
		if got := tc.entry.HasConflict(); got != tc.want {
			t.Errorf("%s: HasConflict() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHasRealChanges(t *testing.T) {
	cases := []struct {
		name  string
		entry StatusEntry
		want  bool
	}{
		{"unversioned never counts", StatusEntry{Item: ItemUnversioned, Props: PropsModified}, false},
		{"normal item, normal props", StatusEntry{Item: ItemNormal, Props: PropsNormal}, false},
		{"normal item, none props", StatusEntry{Item: ItemNormal, Props: PropsNone}, false},
		{"normal item, modified props", StatusEntry{Item: ItemNormal, Props: PropsModified}, true},
		{"modified item", StatusEntry{Item: ItemModified, Props: PropsNone}, true},
	}
	for _, tc := range cases {
		if got := tc.entry.HasRealChanges(); got != tc.want {
			t.Errorf("%s: HasRealChanges() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFilters(t *testing.T) {
	entries, err := ParseStatus([]byte(statusXML))
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}

	if got := Conflicted(entries); len(got) != 1 || got[0].Path != "src/conflict.go" {
		t.Errorf("Conflicted() = %+v", got)
	}
	if got := Unversioned(entries); len(got) != 1 || got[0].Path != "src/scratch.tmp" {
		t.Errorf("Unversioned() = %+v", got)
	}
	if got := RealChanges(entries); len(got) != 2 {
		t.Errorf("RealChanges() = %+v, want 2 entries", got)
	}
}
