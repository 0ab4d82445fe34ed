// Package config loads the optional YAML defaults file layered underneath
// command-line flags, per SPEC_FULL.md §10.3. Every field here mirrors a
// flag of the merge command; the CLI layer decides, flag by flag, whether
// the flag or the file wins.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults is the shape of the optional config file, conventionally named
// automerge.yml. Every field is optional; an empty Defaults is valid and
// simply leaves every flag default in place.
type Defaults struct {
	Source           string   `yaml:"source"`
	Target           string   `yaml:"target"`
	TargetRepoPath   string   `yaml:"target_repo_path"`
	Concise          bool     `yaml:"concise"`
	NoMergePatterns  []string `yaml:"no_merge_patterns"`
	MaxRevisions     int      `yaml:"max_revisions"`
	RecordOnlyPath   string   `yaml:"record_only_path"`
	CommitMergeinfo  bool     `yaml:"commit_mergeinfo"`
	IgnoreList       []string `yaml:"ignore_list"`
	Username         string   `yaml:"username"`
	Noop             bool     `yaml:"noop"`
	Verbose          bool     `yaml:"verbose"`
	WebhookURL       string   `yaml:"webhook_url"`
	NotifyRecipients []string `yaml:"notify_recipients"`
	EmailDomain      string   `yaml:"email_domain"`
}

// Load reads and parses a defaults file. A file that cannot be read is an
// error; the CLI only calls Load when a --config flag was given.
func Load(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &d, nil
}

// Validate reports every problem with a Defaults file worth failing the
// process over before any svn invocation happens.
func Validate(d *Defaults) []error {
	var errs []error
	if d.MaxRevisions < 0 {
		errs = append(errs, fmt.Errorf("max_revisions must not be negative"))
	}
	return errs
}
