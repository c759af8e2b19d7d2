// Package enrich attaches annotator links, download links and metadata to
// search results, running a bounded number of results concurrently.
package enrich

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kishore1288/nodenewsearch/internal/metrics"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// Lookups are the per-file upstream calls. *sme.Client implements it.
type Lookups interface {
	AnnotatorURL(ctx context.Context, token, fileID, folderID string) (string, error)
	DownloadURL(ctx context.Context, token, fileID string) (string, error)
	Metadata(ctx context.Context, token, fileID string) (map[string]string, error)
}

const (
	lookupAnnotator = "annotator"
	lookupDownload  = "download"
	lookupMetadata  = "metadata"
)

// Pipeline enriches the results of one search at a time. It holds no
// per-request state and may be shared.
type Pipeline struct {
	lookups Lookups
	limit   int
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a Pipeline running at most limit results at once.
func New(lookups Lookups, limit int, log zerolog.Logger, m *metrics.Metrics) *Pipeline {
	if limit < 1 {
		limit = 1
	}
	return &Pipeline{
		lookups: lookups,
		limit:   limit,
		log:     log,
		metrics: m,
	}
}

// Limit is the maximum number of results enriched concurrently.
func (p *Pipeline) Limit() int { return p.limit }

// Run enriches every result and emits each one to sink, then calls
// sink.Complete with the number emitted, which it also returns. A failed
// lookup never drops a result: the result is emitted with the fields that
// did succeed and marked Degraded.
func (p *Pipeline) Run(ctx context.Context, token string, results []sme.Result, sink Sink) int {
	var (
		mu      sync.Mutex
		emitted int
	)

	var g errgroup.Group
	g.SetLimit(p.limit)
	for _, r := range results {
		g.Go(func() error {
			p.metrics.UnitStarted()
			defer p.metrics.UnitFinished()

			enriched := p.enrich(ctx, token, r)

			mu.Lock()
			defer mu.Unlock()
			sink.Result(enriched)
			emitted++
			return nil
		})
	}
	_ = g.Wait()

	sink.Complete(emitted)
	return emitted
}

// enrich runs the lookups that apply to r concurrently and joins them.
// Annotator links exist only for PDFs; files without an extension get no
// lookups at all.
func (p *Pipeline) enrich(ctx context.Context, token string, r sme.Result) sme.Result {
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	ext := strings.TrimSpace(r.Extension)
	if ext == "" {
		return r
	}

	var (
		wg                   sync.WaitGroup
		annotator, download  string
		md                   map[string]string
		annErr, dlErr, mdErr error
	)

	if strings.EqualFold(ext, "pdf") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			annotator, annErr = p.lookups.AnnotatorURL(ctx, token, r.FileID, r.FolderID)
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		download, dlErr = p.lookups.DownloadURL(ctx, token, r.FileID)
	}()
	go func() {
		defer wg.Done()
		md, mdErr = p.lookups.Metadata(ctx, token, r.FileID)
	}()
	wg.Wait()

	if p.failed(lookupAnnotator, r.FileID, token, annErr) {
		r.Degraded = true
	} else {
		r.AnnotatorURL = annotator
	}
	if p.failed(lookupDownload, r.FileID, token, dlErr) {
		r.Degraded = true
	} else {
		r.DownloadURL = download
	}
	if p.failed(lookupMetadata, r.FileID, token, mdErr) {
		r.Degraded = true
	} else if md != nil {
		r.Metadata = md
	}
	return r
}

func (p *Pipeline) failed(lookup, fileID, token string, err error) bool {
	if err == nil {
		return false
	}
	p.metrics.LookupFailed(lookup)
	p.log.Warn().
		Str("lookup", lookup).
		Str("file_id", fileID).
		Bool("token_present", token != "").
		Err(err).
		Msg("enrichment lookup failed")
	return true
}
