package svnxml

import "testing"

const infoWithConflictXML = `<?xml version="1.0" encoding="UTF-8"?>
<info>
  <entry path="src/widget.go" kind="file">
    <url>file:///repo/branches/feature/src/widget.go</url>
    <repository>
      <root>file:///repo</root>
    </repository>
    <wc-info>
      <conflict victim="widget.go" kind="file" operation="merge" action="edit" reason="delete">
        <source-left-version kind="file" path-in-repos="project/stable/src/widget.go" revision="10"></source-left-version>
        <source-right-version kind="none" path-in-repos="project/stable/src/widget.go" revision="12"></source-right-version>
      </conflict>
    </wc-info>
  </entry>
</info>
`

const infoWithoutConflictXML = `<?xml version="1.0" encoding="UTF-8"?>
<info>
  <entry path="src/clean.go" kind="file">
    <url>file:///repo/branches/feature/src/clean.go</url>
    <repository><root>file:///repo</root></repository>
    <wc-info></wc-info>
  </entry>
</info>
`

func TestParseInfoWithConflict(t *testing.T) {
	entry, err := ParseInfo([]byte(infoWithConflictXML))
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}
	if entry.TreeConflict == nil {
		t.Fatal("expected a tree conflict")
	}
	tc := entry.TreeConflict
	if tc.Action != ConflictActionEdit || tc.Reason != ConflictReasonDelete {
		t.Errorf("unexpected action/reason: %+v", tc)
	}
	if tc.Left.Revision != 10 || tc.Right.Revision != 12 {
		t.Errorf("unexpected left/right revisions: %+v", tc)
	}
	if tc.Left.PathInRepo != "project/stable/src/widget.go" {
		t.Errorf("unexpected left path: %+v", tc.Left)
	}
}

func TestParseInfoWithoutConflict(t *testing.T) {
	entry, err := ParseInfo([]byte(infoWithoutConflictXML))
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}
	if entry.TreeConflict != nil {
		t.Fatalf("expected no tree conflict, got %+v", entry.TreeConflict)
	}
	if entry.RepoRoot != "file:///repo" {
		t.Errorf("RepoRoot = %q", entry.RepoRoot)
	}
}

func TestParseInfoNoEntriesErrors(t *testing.T) {
	if _, err := ParseInfo([]byte(`<info></info>`)); err == nil {
		t.Fatal("expected an error for zero entries")
	}
}
