package sme

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
	"github.com/kishore1288/nodenewsearch/internal/query"
)

// fakeUpstream serves canned XML bodies keyed by function name and records
// every request's query.
type fakeUpstream struct {
	t      *testing.T
	mu     sync.Mutex
	bodies map[string]string
	calls  []url.Values
}

func newFakeUpstream(t *testing.T, bodies map[string]string) (*fakeUpstream, *httptest.Server) {
	t.Helper()
	f := &fakeUpstream{t: t, bodies: bodies}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.mu.Lock()
		f.calls = append(f.calls, q)
		body, ok := f.bodies[q.Get("function")]
		f.mu.Unlock()
		if !ok {
			http.Error(w, "unknown function", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeUpstream) lastCall(function string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Get("function") == function {
			return f.calls[i]
		}
	}
	return nil
}

func (f *fakeUpstream) count(function string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Get("function") == function {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, baseURL string, sanitize bool) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:                  baseURL,
		Timeout:                  2 * time.Second,
		ResultURLProtocol:        "https",
		SanitizeMissingExtension: sanitize,
		Logger:                   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

const twoFiles = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <status>ok</status>
  <total>2</total>
  <filelist>
    <i0>
      <fi_id>101</fi_id>
      <fi_pid>5</fi_pid>
      <fi_uid>9</fi_uid>
      <fi_description>Q1 report</fi_description>
      <fi_extension>pdf</fi_extension>
      <fi_name>report.pdf</fi_name>
      <fi_created>2024-01-02 03:04:05</fi_created>
      <fi_modified>2024-02-03 04:05:06</fi_modified>
      <fi_tags>finance,q1</fi_tags>
      <matched>name</matched>
    </i0>
    <i1>
      <fi_id>102</fi_id>
      <fi_pid>5</fi_pid>
      <fi_extension></fi_extension>
      <fi_name>notes</fi_name>
      <fi_created></fi_created>
      <fi_modified></fi_modified>
      <fi_tags></fi_tags>
      <matched>description</matched>
    </i1>
  </filelist>
</response>`

func TestSearchParsesRecords(t *testing.T) {
	fake, srv := newFakeUpstream(t, map[string]string{fnSearch: twoFiles})
	c := newTestClient(t, srv.URL+"/api/", false)

	p := query.NewCompiler(query.DefaultDateField).Compile(query.Filter{
		FolderID: query.Folder(5), Type: query.Word("v"), Filename: "report",
	})
	results, err := c.Search(t.Context(), "tok-123", p)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	r := results[0]
	if r.FileID != "101" || r.FolderID != "5" || r.UserID != "9" || r.Extension != "pdf" {
		t.Errorf("unexpected record %+v", r)
	}
	if want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC); !r.CreatedOn.Equal(want) {
		t.Errorf("CreatedOn = %s, want %s", r.CreatedOn, want)
	}
	if len(r.Tags) != 2 || r.Tags[0] != "finance" || r.Tags[1] != "q1" {
		t.Errorf("Tags = %v", r.Tags)
	}
	if r.MatchedOn != "name" {
		t.Errorf("MatchedOn = %q", r.MatchedOn)
	}

	empty := results[1]
	if empty.Tags == nil || len(empty.Tags) != 0 {
		t.Errorf("empty tags should be an empty list, got %#v", empty.Tags)
	}
	if !empty.CreatedOn.IsZero() {
		t.Errorf("empty timestamp should be zero, got %s", empty.CreatedOn)
	}

	q := fake.lastCall(fnSearch)
	if q.Get("token") != "tok-123" || q.Get("fi_pid") != "5" || q.Get("fi_name") != "report" {
		t.Errorf("unexpected query %v", q)
	}
	if _, ok := q["metadata"]; !ok {
		t.Error("metadata parameter should always be sent")
	}
}

func TestSearchSanitizesMissingExtension(t *testing.T) {
	_, srv := newFakeUpstream(t, map[string]string{fnSearch: twoFiles})
	c := newTestClient(t, srv.URL, true)

	results, err := c.Search(t.Context(), "tok", query.Params{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].FileID != "101" {
		t.Errorf("sanitized results = %+v", results)
	}
}

func TestSearchZeroTotal(t *testing.T) {
	body := `<response><status>ok</status><total>0</total><filelist><i0><fi_id>1</fi_id></i0></filelist></response>`
	_, srv := newFakeUpstream(t, map[string]string{fnSearch: body})
	c := newTestClient(t, srv.URL, false)

	results, err := c.Search(t.Context(), "tok", query.Params{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("want an empty non-nil slice, got %#v", results)
	}
}

const proxyErrorPage = `<html><head><title>502 Bad Gateway</title></head><body>proxy error</body></html>`

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind apierr.Kind
	}{
		{"rejected", `<response><status>error</status><statusmessage>Invalid token</statusmessage></response>`, apierr.KindUpstream},
		{"malformed", `<response><status>ok</status><total>1`, apierr.KindParse},
		{"missing id", `<response><status>ok</status><total>1</total><filelist><i0><fi_name>x</fi_name></i0></filelist></response>`, apierr.KindParse},
		{"bad timestamp", `<response><status>ok</status><total>1</total><filelist><i0><fi_id>1</fi_id><fi_created>yesterday</fi_created></i0></filelist></response>`, apierr.KindParse},
		{"html error page", proxyErrorPage, apierr.KindParse},
		{"no status", `<response><total>0</total></response>`, apierr.KindParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeUpstream(t, map[string]string{fnSearch: tt.body})
			c := newTestClient(t, srv.URL, false)

			_, err := c.Search(t.Context(), "tok", query.Params{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := apierr.KindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestSearchRejectedCarriesStatusMessage(t *testing.T) {
	body := `<response><status>error</status><statusmessage>Invalid token</statusmessage></response>`
	_, srv := newFakeUpstream(t, map[string]string{fnSearch: body})
	c := newTestClient(t, srv.URL, false)

	_, err := c.Search(t.Context(), "tok", query.Params{})
	if !strings.Contains(err.Error(), "Invalid token") {
		t.Errorf("error = %v, want the upstream status message", err)
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := newTestClient(t, srv.URL, false)

	_, err := c.Search(t.Context(), "secret-token", query.Params{})
	if !apierr.Is(err, apierr.KindTransport) {
		t.Fatalf("kind = %q, want transport (%v)", apierr.KindOf(err), err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks the token: %v", err)
	}
}

func TestNonSuccessHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL, false)

	_, err := c.Search(t.Context(), "tok", query.Params{})
	if !apierr.Is(err, apierr.KindTransport) {
		t.Errorf("kind = %q, want transport", apierr.KindOf(err))
	}
}

func TestEndpointKeepsBaseQuery(t *testing.T) {
	c := newTestClient(t, "https://sme.example.com/api/?tenant=acme", false)
	raw := c.endpoint(fnTags, "tok", url.Values{"metaid": {"0"}})
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("tenant") != "acme" || q.Get("function") != fnTags || q.Get("token") != "tok" || q.Get("metaid") != "0" {
		t.Errorf("endpoint = %s", raw)
	}
}

func TestRewriteScheme(t *testing.T) {
	c := newTestClient(t, "https://sme.example.com", false)
	tests := map[string]string{
		"http://files.example/dl/1":      "https://files.example/dl/1",
		"http://files.example:8080/dl/1": "https://files.example:8080/dl/1",
		"":                               "",
		"relative/path":                  "relative/path",
	}
	for in, want := range tests {
		if got := c.rewriteScheme(in); got != want {
			t.Errorf("rewriteScheme(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient(Options{BaseURL: "/api"}); err == nil {
		t.Error("expected an error for a relative base url")
	}
}
