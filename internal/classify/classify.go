// Package classify decides whether a revision is "record-only": its
// contents should never be replayed, only its merge-tracking metadata.
// Classification is pure and side-effect-free, following the same shape as
// the teacher's config.Validate — a small set of independent rules
// evaluated against a value, with no I/O of its own.
package classify

import (
	"strings"

	"github.com/idlemerge/automerge/internal/revision"
)

// DefaultPatterns are the no-merge literal substrings checked against a
// revision's user message when no extra patterns are configured.
var DefaultPatterns = []string{
	"maven-release-plugin",
	"NOMERGE",
	"NO-MERGE",
	"NO MERGE",
	"NO_MERGE",
}

// Classifier decides record-only status for a revision.
type Classifier struct {
	patterns    []string
	recordOnly  map[revision.Revision]bool
}

// New builds a Classifier from the default patterns plus any extra ones
// (e.g. from the --no-merge-pattern CSV flag) and the currently persisted
// record-only set. Adding patterns is additive only: extra patterns are
// appended to the defaults, never replacing them.
func New(extraPatterns []string, recordOnly map[revision.Revision]bool) *Classifier {
	patterns := make([]string, 0, len(DefaultPatterns)+len(extraPatterns))
	patterns = append(patterns, DefaultPatterns...)
	patterns = append(patterns, extraPatterns...)
	if recordOnly == nil {
		recordOnly = map[revision.Revision]bool{}
	}
	return &Classifier{patterns: patterns, recordOnly: recordOnly}
}

// IsRecordOnly reports whether the revision should be merged as
// metadata-only: either it was already persisted as such, or its user
// message contains one of the configured no-merge patterns. The IDLE-DATA
// block is explicitly excluded from the match, since it may itself quote
// the literal marker text or past classification reasons.
func (c *Classifier) IsRecordOnly(r *revision.Loaded) bool {
	if c.recordOnly[r.Number] {
		return true
	}
	return MatchesPattern(r.Message, c.patterns)
}

// MatchesPattern reports whether message contains any of patterns as a
// plain substring (not a regex) match.
func MatchesPattern(message string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(message, p) {
			return true
		}
	}
	return false
}
