package progress

import (
	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// Sink reports every search event to a Reporter before forwarding it.
type Sink struct {
	next     enrich.Sink
	reporter Reporter
	seen     int
}

// NewSink starts r with an unknown total and wraps next.
func NewSink(next enrich.Sink, r Reporter) *Sink {
	r.Start(-1)
	return &Sink{next: next, reporter: r}
}

func (s *Sink) Result(r sme.Result) {
	s.seen++
	s.reporter.Update(s.seen, r.Filename)
	s.next.Result(r)
}

func (s *Sink) Complete(count int) {
	s.reporter.Finish()
	s.next.Complete(count)
}

func (s *Sink) Failure(err error) {
	s.reporter.Finish()
	s.next.Failure(err)
}
