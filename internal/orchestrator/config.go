// Package orchestrator drives the per-revision replay loop described in
// SPEC_FULL.md §4.9: workspace reset, eligibility query, the single and
// concise batch loops, and the top-level conflict escalation. It is the
// component every other package in this module exists to serve.
package orchestrator

// Config is the fully-resolved set of options the CLI layer builds from
// flags (and an optional YAML defaults file); see SPEC_FULL.md §6 and
// §10.3. It intentionally has no defaults of its own — the config layer
// owns that.
type Config struct {
	// Source is the configured source branch, e.g. "^/foo/stable".
	Source string
	// Target is the target working copy path on disk.
	Target string
	// TargetRepoPath is the target's repository-relative path, e.g.
	// "^/foo/trunk"; used only by the multi-content-revision commit
	// subject form.
	TargetRepoPath string
	// Noop, if true, skips every commit and reverts the working copy in
	// its place (troubleshooting aid).
	Noop bool
	// Concise selects the batching state machine of §4.9.2 instead of the
	// single non-concise sequence of §4.9.1 alone.
	Concise bool
	// ExtraNoMergePatterns are appended to classify.DefaultPatterns.
	ExtraNoMergePatterns []string
	// MaxRevisions is accepted but not enforced — see SPEC_FULL.md §9's
	// open question and DESIGN.md.
	MaxRevisions int
	// RecordOnlyPath is the file backing recordonly.Store; empty disables
	// persistence.
	RecordOnlyPath string
	// Verbose raises the VCS Driver's argv echo and the logger's level.
	Verbose bool
	// CommitMergeinfo forces a commit of a batch that produced only
	// metadata-only revisions, instead of deferring them to the
	// record-only file.
	CommitMergeinfo bool
	// IgnoreList is a CSV-derived set of working-copy-relative path
	// patterns always reverted after each merge.
	IgnoreList []string
	// Username/Password are passed through to the VCS Driver.
	Username string
	Password string
}
