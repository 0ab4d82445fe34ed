package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/idlemerge/automerge/internal/revision"
)

func TestAddEmailDomain(t *testing.T) {
	cases := []struct {
		recipient, domain, want string
	}{
		{"grace", "example.com", "grace@example.com"},
		{"grace", "@example.com", "grace@example.com"},
		{"grace@example.com", "other.com", "grace@example.com"},
	}
	for _, tc := range cases {
		if got := AddEmailDomain(tc.recipient, tc.domain); got != tc.want {
			t.Errorf("AddEmailDomain(%q, %q) = %q, want %q", tc.recipient, tc.domain, got, tc.want)
		}
	}
}

func TestAddEmailDomainIsIdempotent(t *testing.T) {
	once := AddEmailDomain("grace", "example.com")
	twice := AddEmailDomain(once, "example.com")
	if once != twice {
		t.Errorf("AddEmailDomain is not idempotent: %q != %q", once, twice)
	}
}

func TestReportTextIncludesKeyFields(t *testing.T) {
	r := Report{
		Revision:      12,
		Source:        "^/project/stable",
		Target:        "/work/trunk",
		PendingMerged: []revision.Revision{10, 11},
		PendingMeta:   []revision.Revision{9},
		StatusLines:   []string{"src/widget.go"},
		Recipe:        Recipe("/work/trunk", 12, "^/project/stable"),
	}
	text := r.Text()
	for _, want := range []string{"r12", "^/project/stable", "/work/trunk", "10,11", "9", "src/widget.go", "svn merge"} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}
}

func TestStdoutSinkWritesText(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notify-*")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sink := &StdoutSink{Out: f}
	report := Report{Revision: 3, Source: "^/a", Target: "/b"}
	if err := sink.Notify(report); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "r3") {
		t.Errorf("stdout sink output = %q", data)
	}
}

func TestWebhookSinkPostsJSON(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding webhook body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL)
	err := sink.Notify(Report{Revision: 7, Source: "^/a", Target: "/b", PendingMeta: []revision.Revision{1, 2}})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if received.Revision != 7 || len(received.PendingMeta) != 2 {
		t.Errorf("received payload = %+v", received)
	}
}

func TestWebhookSinkErrorsOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL)
	if err := sink.Notify(Report{Revision: 1}); err == nil {
		t.Fatal("expected an error on a 500 response")
	}
}

type recordingSink struct {
	got Report
}

func (s *recordingSink) Notify(r Report) error {
	s.got = r
	return nil
}

func TestRecipientSinkExpandsAndDelegates(t *testing.T) {
	inner := &recordingSink{}
	sink := &RecipientSink{Inner: inner, Recipients: []string{"grace", "alex@other.com"}, Domain: "example.com"}

	if err := sink.Notify(Report{Revision: 4}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(inner.got.Recipients) != 2 {
		t.Fatalf("Recipients = %v", inner.got.Recipients)
	}
	if inner.got.Recipients[0] != "grace@example.com" || inner.got.Recipients[1] != "alex@other.com" {
		t.Errorf("Recipients = %v", inner.got.Recipients)
	}
}
