package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kishore1288/nodenewsearch/internal/metrics"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// fakeLookups answers every lookup and can fail or delay selected files.
type fakeLookups struct {
	delay        time.Duration
	failAnnotate map[string]bool
	failMetadata map[string]bool

	mu        sync.Mutex
	active    map[string]int
	maxActive int
	calls     map[string]int
}

func newFakeLookups() *fakeLookups {
	return &fakeLookups{
		failAnnotate: map[string]bool{},
		failMetadata: map[string]bool{},
		active:       map[string]int{},
		calls:        map[string]int{},
	}
}

// enter marks a file as having a lookup in flight and tracks how many
// distinct files are in flight at once.
func (f *fakeLookups) enter(lookup, fileID string) {
	f.mu.Lock()
	f.calls[lookup]++
	f.active[fileID]++
	if len(f.active) > f.maxActive {
		f.maxActive = len(f.active)
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func (f *fakeLookups) exit(fileID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[fileID]--
	if f.active[fileID] == 0 {
		delete(f.active, fileID)
	}
}

func (f *fakeLookups) AnnotatorURL(_ context.Context, _, fileID, _ string) (string, error) {
	f.enter("annotator", fileID)
	defer f.exit(fileID)
	if f.failAnnotate[fileID] {
		return "", errors.New("annotator timed out")
	}
	return "https://sme.example/annotate/" + fileID, nil
}

func (f *fakeLookups) DownloadURL(_ context.Context, _, fileID string) (string, error) {
	f.enter("download", fileID)
	defer f.exit(fileID)
	return "https://s.example/" + fileID, nil
}

func (f *fakeLookups) Metadata(_ context.Context, _, fileID string) (map[string]string, error) {
	f.enter("metadata", fileID)
	defer f.exit(fileID)
	if f.failMetadata[fileID] {
		return nil, errors.New("metadata rejected")
	}
	return map[string]string{"Customer": "Acme"}, nil
}

func (f *fakeLookups) callCount(lookup string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[lookup]
}

// eventSink records the order of events.
type eventSink struct {
	mu     sync.Mutex
	events []string
	byID   map[string]sme.Result
	count  int
}

func newEventSink() *eventSink { return &eventSink{byID: map[string]sme.Result{}} }

func (s *eventSink) Result(r sme.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "result")
	s.byID[r.FileID] = r
}

func (s *eventSink) Complete(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "complete")
	s.count = count
}

func (s *eventSink) Failure(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "failure")
}

func makeResults(n int, ext string) []sme.Result {
	out := make([]sme.Result, n)
	for i := range out {
		out[i] = sme.Result{FileID: fmt.Sprintf("f%d", i), FolderID: "5", Extension: ext}
	}
	return out
}

func TestPartialFailureStillEmitsEveryResult(t *testing.T) {
	lookups := newFakeLookups()
	lookups.failAnnotate["f3"] = true

	m := metrics.New(nil)
	p := New(lookups, 4, zerolog.Nop(), m)
	sink := newEventSink()

	n := p.Run(t.Context(), "tok", makeResults(10, "pdf"), sink)
	if n != 10 {
		t.Errorf("Run returned %d, want 10", n)
	}
	if sink.count != 10 {
		t.Errorf("Complete count = %d, want 10", sink.count)
	}
	if len(sink.byID) != 10 {
		t.Fatalf("emitted %d distinct results, want 10", len(sink.byID))
	}

	failed := sink.byID["f3"]
	if failed.AnnotatorURL != "" {
		t.Errorf("failed annotator should be empty, got %q", failed.AnnotatorURL)
	}
	if !failed.Degraded {
		t.Error("result with a failed lookup should be marked degraded")
	}
	if failed.DownloadURL == "" || failed.Metadata["Customer"] != "Acme" {
		t.Errorf("successful lookups should still be attached: %+v", failed)
	}

	ok := sink.byID["f4"]
	if ok.AnnotatorURL != "https://sme.example/annotate/f4" || ok.Degraded {
		t.Errorf("healthy result = %+v", ok)
	}
}

func TestCompleteFollowsAllResults(t *testing.T) {
	lookups := newFakeLookups()
	lookups.delay = time.Millisecond
	sink := newEventSink()

	New(lookups, 3, zerolog.Nop(), nil).Run(t.Context(), "tok", makeResults(12, "docx"), sink)

	if len(sink.events) != 13 {
		t.Fatalf("events = %v", sink.events)
	}
	for i, e := range sink.events[:12] {
		if e != "result" {
			t.Errorf("event %d = %q, want result", i, e)
		}
	}
	if sink.events[12] != "complete" {
		t.Errorf("last event = %q, want complete", sink.events[12])
	}
}

func TestConcurrencyLimit(t *testing.T) {
	lookups := newFakeLookups()
	lookups.delay = 20 * time.Millisecond

	const limit = 3
	New(lookups, limit, zerolog.Nop(), nil).Run(t.Context(), "tok", makeResults(15, "txt"), newEventSink())

	if lookups.maxActive > limit {
		t.Errorf("max files in flight = %d, want <= %d", lookups.maxActive, limit)
	}
	if lookups.maxActive < 2 {
		t.Errorf("max files in flight = %d, expected units to overlap", lookups.maxActive)
	}
}

func TestLookupApplicability(t *testing.T) {
	lookups := newFakeLookups()
	sink := newEventSink()
	results := []sme.Result{
		{FileID: "pdf", Extension: "PDF"},
		{FileID: "doc", Extension: "docx"},
		{FileID: "none", Extension: ""},
	}

	New(lookups, 2, zerolog.Nop(), nil).Run(t.Context(), "tok", results, sink)

	if got := lookups.callCount("annotator"); got != 1 {
		t.Errorf("annotator calls = %d, want 1 (pdf only)", got)
	}
	if got := lookups.callCount("download"); got != 2 {
		t.Errorf("download calls = %d, want 2", got)
	}
	if got := lookups.callCount("metadata"); got != 2 {
		t.Errorf("metadata calls = %d, want 2", got)
	}

	none := sink.byID["none"]
	if none.Degraded || none.DownloadURL != "" || none.AnnotatorURL != "" {
		t.Errorf("not-applicable lookups should leave defaults: %+v", none)
	}
	if none.Metadata == nil || len(none.Metadata) != 0 {
		t.Errorf("metadata should default to an empty map, got %#v", none.Metadata)
	}
	if sink.byID["pdf"].AnnotatorURL == "" {
		t.Error("uppercase PDF extension should get an annotator link")
	}
	if sink.byID["doc"].AnnotatorURL != "" {
		t.Error("non-pdf should not get an annotator link")
	}
}

func TestMetadataFailureKeepsEmptyMap(t *testing.T) {
	lookups := newFakeLookups()
	lookups.failMetadata["f0"] = true
	sink := newEventSink()

	New(lookups, 1, zerolog.Nop(), nil).Run(t.Context(), "tok", makeResults(1, "txt"), sink)

	r := sink.byID["f0"]
	if !r.Degraded {
		t.Error("expected degraded result")
	}
	if r.Metadata == nil || len(r.Metadata) != 0 {
		t.Errorf("metadata = %#v, want empty map", r.Metadata)
	}
	if r.DownloadURL == "" {
		t.Error("download link should survive a metadata failure")
	}
}

func TestEmptyResults(t *testing.T) {
	sink := newEventSink()
	n := New(newFakeLookups(), 0, zerolog.Nop(), nil).Run(t.Context(), "tok", nil, sink)
	if n != 0 || sink.count != 0 {
		t.Errorf("Run = %d, count = %d", n, sink.count)
	}
	if len(sink.events) != 1 || sink.events[0] != "complete" {
		t.Errorf("events = %v, want a single complete", sink.events)
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	New(newFakeLookups(), 2, zerolog.Nop(), nil).Run(t.Context(), "tok", makeResults(3, "pdf"), &c)

	results, count, err := c.Results()
	if err != nil || count != 3 || len(results) != 3 {
		t.Errorf("Results = %d results, count %d, err %v", len(results), count, err)
	}
	if !c.Finished() {
		t.Error("collector should be finished after Complete")
	}
}

func TestLimit(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{0, 1}, {-3, 1}, {1, 1}, {8, 8}} {
		if got := New(newFakeLookups(), tt.in, zerolog.Nop(), nil).Limit(); got != tt.want {
			t.Errorf("New(limit=%d).Limit() = %d, want %d", tt.in, got, tt.want)
		}
	}
}
