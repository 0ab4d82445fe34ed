// Package notify delivers conflict reports to a configurable sink. The
// spec treats delivery mechanics as external; this package supplies the
// interface plus the two concrete transports named in SPEC_FULL.md §10.4.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/idlemerge/automerge/internal/revision"
)

// Report is the formatted conflict report delivered to a Sink, matching
// the payload named in SPEC_FULL.md §7: revision, source branch, filtered
// status listing, and a manual-resolution recipe.
type Report struct {
	Revision      revision.Revision
	Source        string
	Target        string
	PendingMerged []revision.Revision
	PendingMeta   []revision.Revision
	StatusLines   []string // filtered: conflicted, modified, added, deleted
	Recipe        []string // literal svn commands to run in the target working copy
	Recipients    []string // expanded via AddEmailDomain, attached by RecipientSink
	GeneratedAt   time.Time
}

// Text renders the report the same way for every sink: a human-readable
// block with the manual-resolution recipe spelled out, which is also what
// gets shown on stdout before the sink is invoked (SPEC_FULL.md §7).
func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "automerge conflict on r%d\n", r.Revision)
	fmt.Fprintf(&b, "  source: %s\n", r.Source)
	fmt.Fprintf(&b, "  target: %s\n", r.Target)
	if len(r.PendingMerged) > 0 {
		fmt.Fprintf(&b, "  pending merged (lost this run): %s\n", revision.JoinCSV(r.PendingMerged))
	}
	if len(r.PendingMeta) > 0 {
		fmt.Fprintf(&b, "  pending metadata-only: %s\n", revision.JoinCSV(r.PendingMeta))
	}
	if len(r.StatusLines) > 0 {
		b.WriteString("  status:\n")
		for _, line := range r.StatusLines {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if len(r.Recipe) > 0 {
		b.WriteString("  to resolve manually, in the target working copy:\n")
		for _, cmd := range r.Recipe {
			fmt.Fprintf(&b, "    %s\n", cmd)
		}
	}
	if len(r.Recipients) > 0 {
		fmt.Fprintf(&b, "  notify: %s\n", strings.Join(r.Recipients, ", "))
	}
	return b.String()
}

// Recipe builds the literal step-by-step svn command list for a manual
// resolution, per SPEC_FULL.md §7.
func Recipe(target string, rev revision.Revision, sourceBranch string) []string {
	return []string{
		fmt.Sprintf("cd %s", target),
		fmt.Sprintf("svn merge --accept postpone -c %d %s@%d .", int(rev), sourceBranch, int(rev)),
		"svn status",
		"# resolve each conflicted path, then:",
		"svn resolved <path>",
		"svn commit -m '<message>'",
	}
}

// Sink delivers a formatted Report. Implementations must not mutate r.
type Sink interface {
	Notify(r Report) error
}

// StdoutSink writes the report text to an *os.File (os.Stdout when Out is
// nil or built by NewStdoutSink; a temporary file in tests). It is always
// available and has no configuration.
type StdoutSink struct {
	Out *os.File
}

func NewStdoutSink() *StdoutSink {
	return &StdoutSink{Out: os.Stdout}
}

func (s *StdoutSink) Notify(r Report) error {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprint(out, r.Text())
	return err
}

// WebhookSink POSTs the report as JSON to a configured URL. No messaging or
// HTTP client library appears anywhere in the retrieved corpus, so this is
// built on net/http directly — see DESIGN.md for that justification.
type WebhookSink struct {
	URL        string
	HTTPClient *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{URL: url, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

type webhookPayload struct {
	Revision    int      `json:"revision"`
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Text        string   `json:"text"`
	PendingMeta []int    `json:"pending_metadata_revisions,omitempty"`
	Recipients  []string `json:"recipients,omitempty"`
}

func (s *WebhookSink) Notify(r Report) error {
	pending := make([]int, len(r.PendingMeta))
	for i, n := range r.PendingMeta {
		pending[i] = int(n)
	}

	payload := webhookPayload{
		Revision:    int(r.Revision),
		Source:      r.Source,
		Target:      r.Target,
		Text:        r.Text(),
		PendingMeta: pending,
		Recipients:  r.Recipients,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encoding webhook payload: %w", err)
	}

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Post(s.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// AddEmailDomain normalizes a bare username into an email address for
// delivery. If recipient already contains "@" anywhere (a plain address, or
// a "Name <addr>" form), it is returned unchanged; otherwise domain is
// appended (domain may or may not include its own leading "@").
func AddEmailDomain(recipient, domain string) string {
	if strings.Contains(recipient, "@") {
		return recipient
	}
	if strings.HasPrefix(domain, "@") {
		return recipient + domain
	}
	return recipient + "@" + domain
}

// RecipientSink decorates another Sink, expanding a configured list of bare
// usernames into addresses via AddEmailDomain and attaching them to the
// Report before delegating delivery.
type RecipientSink struct {
	Inner      Sink
	Recipients []string
	Domain     string
}

func (s *RecipientSink) Notify(r Report) error {
	expanded := make([]string, len(s.Recipients))
	for i, recipient := range s.Recipients {
		expanded[i] = AddEmailDomain(recipient, s.Domain)
	}
	r.Recipients = expanded
	return s.Inner.Notify(r)
}
