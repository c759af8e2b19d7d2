package enrich

import (
	"sync"

	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// Sink receives the events of one search request. For every request a sink
// sees either zero or more Result calls followed by exactly one Complete, or
// a single Failure. Calls are never made concurrently.
type Sink interface {
	Result(r sme.Result)
	Complete(count int)
	Failure(err error)
}

// Collector is a Sink that keeps everything in memory.
type Collector struct {
	mu       sync.Mutex
	results  []sme.Result
	count    int
	err      error
	finished bool
}

func (c *Collector) Result(r sme.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *Collector) Complete(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = count
	c.finished = true
}

func (c *Collector) Failure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	c.finished = true
}

// Results returns the collected results, the completion count and the
// failure, if any.
func (c *Collector) Results() ([]sme.Result, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sme.Result, len(c.results))
	copy(out, c.results)
	return out, c.count, c.err
}

// Finished reports whether a terminal event was received.
func (c *Collector) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}
