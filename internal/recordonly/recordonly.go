// Package recordonly loads and saves the set of revisions carried across
// runs as record-only. Both operations degrade gracefully on I/O failure,
// in the same "best-effort, never abort a successful commit over this"
// spirit as the teacher's engine.state status/last-seen files — read
// failure means "empty", write failure is logged and swallowed.
package recordonly

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/idlemerge/automerge/internal/fileutil"
	"github.com/idlemerge/automerge/internal/logging"
	"github.com/idlemerge/automerge/internal/revision"
)

// Store is bound to a file path. An empty path makes every operation a
// no-op, per SPEC_FULL.md §4.5.
type Store struct {
	Path   string
	Logger *logging.Logger
}

func New(path string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{Path: path, Logger: logger}
}

// Load reads the persisted set. A missing file, an empty path, or any read
// error is treated as an empty set — the caller never needs to branch on
// "did this fail" versus "there was nothing there".
func (s *Store) Load() map[revision.Revision]bool {
	result := map[revision.Revision]bool{}
	if s.Path == "" {
		return result
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.Logger.Warnf("recordonly: reading %s: %s (treating as empty)", s.Path, err)
		}
		return result
	}

	for _, field := range strings.Split(strings.TrimSpace(string(data)), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			s.Logger.Warnf("recordonly: skipping malformed entry %q in %s", field, s.Path)
			continue
		}
		result[revision.Revision(n)] = true
	}
	return result
}

// Save overwrites the file with a single comma-separated, ascending,
// newline-terminated line. A write failure is logged, not returned as a
// fatal error — the caller's commit, if any, has already succeeded.
func (s *Store) Save(revisions map[revision.Revision]bool) {
	if s.Path == "" {
		return
	}

	revs := make([]revision.Revision, 0, len(revisions))
	for r := range revisions {
		revs = append(revs, r)
	}
	line := revision.JoinCSV(revs)

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := fileutil.EnsureDir(dir); err != nil {
			s.Logger.Errorf("recordonly: creating directory for %s: %s", s.Path, err)
			return
		}
	}

	if err := os.WriteFile(s.Path, []byte(line+"\n"), 0644); err != nil {
		s.Logger.Errorf("recordonly: writing %s: %s", s.Path, err)
	}
}

// Union merges b into a, returning a new set and leaving both inputs
// unmodified.
func Union(a, b map[revision.Revision]bool) map[revision.Revision]bool {
	out := make(map[revision.Revision]bool, len(a)+len(b))
	for r := range a {
		out[r] = true
	}
	for r := range b {
		out[r] = true
	}
	return out
}
