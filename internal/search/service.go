// Package search runs search requests end to end: credential and filter
// checks, token exchange, query compilation, the upstream search and result
// enrichment. Every request is recorded in the history store when one is
// configured.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/history"
	"github.com/kishore1288/nodenewsearch/internal/metrics"
	"github.com/kishore1288/nodenewsearch/internal/query"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// Gateway is the upstream document service. *sme.Client implements it.
type Gateway interface {
	Search(ctx context.Context, token string, p query.Params) ([]sme.Result, error)
	Tags(ctx context.Context, token string) ([]sme.Tag, error)
}

// Tokens exchanges a username for an API token. *sme.TokenExchanger
// implements it.
type Tokens interface {
	Token(ctx context.Context, username string) (string, error)
}

// Credentials identify the caller. A Token is used as is; otherwise the
// Username is exchanged for one.
type Credentials struct {
	Token    string `json:"Token,omitempty"`
	Username string `json:"Username,omitempty"`
}

func (c Credentials) empty() bool {
	return strings.TrimSpace(c.Token) == "" && strings.TrimSpace(c.Username) == ""
}

// Request is one inbound search: a filter plus credentials, decoded from a
// single flat JSON object.
type Request struct {
	Credentials
	query.Filter
}

// Folder is a node of the folder tree.
type Folder struct {
	FolderID       int64    `json:"FolderId"`
	ParentFolderID int64    `json:"ParentFolderId"`
	FolderName     string   `json:"FolderName"`
	Children       []Folder `json:"Children"`
}

var (
	errNoCredentials = apierr.Validation("Request data must contain a Token or Username")
	errNoExchanger   = apierr.Validation("username lookup is not configured, a Token is required")
)

// Options configures a Service. Tokens and History may be nil.
type Options struct {
	Gateway  Gateway
	Tokens   Tokens
	Compiler *query.Compiler
	Pipeline *enrich.Pipeline
	History  *history.Store
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Service is safe for concurrent use; it keeps no per-request state.
type Service struct {
	gateway  Gateway
	tokens   Tokens
	compiler *query.Compiler
	pipeline *enrich.Pipeline
	history  *history.Store
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewService creates a Service. A nil Compiler uses the default date field.
func NewService(opts Options) *Service {
	compiler := opts.Compiler
	if compiler == nil {
		compiler = query.NewCompiler(query.DefaultDateField)
	}
	return &Service{
		gateway:  opts.Gateway,
		tokens:   opts.Tokens,
		compiler: compiler,
		pipeline: opts.Pipeline,
		history:  opts.History,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}
}

// Search runs req and reports to sink. The sink sees either every enriched
// result followed by Complete, or a single Failure; the same failure is
// returned. Upstream calls are detached from ctx cancellation so a request
// already accepted runs to its terminal event.
func (s *Service) Search(ctx context.Context, req Request, sink enrich.Sink) error {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	s.metrics.SearchStarted()
	defer s.metrics.SearchFinished()

	t := &tally{Sink: sink}
	token, results, err := s.prepare(ctx, req)
	if err != nil {
		sink.Failure(err)
	} else {
		s.pipeline.Run(ctx, token, results, t)
	}

	s.finish(ctx, req, start, t, err)
	return err
}

func (s *Service) prepare(ctx context.Context, req Request) (string, []sme.Result, error) {
	if req.Credentials.empty() {
		return "", nil, errNoCredentials
	}
	if err := query.Validate(req.Filter); err != nil {
		return "", nil, err
	}
	token, err := s.resolveToken(ctx, req.Credentials)
	if err != nil {
		return "", nil, err
	}
	results, err := s.gateway.Search(ctx, token, s.compiler.Compile(req.Filter))
	if err != nil {
		return "", nil, err
	}
	return token, results, nil
}

func (s *Service) resolveToken(ctx context.Context, creds Credentials) (string, error) {
	if token := strings.TrimSpace(creds.Token); token != "" {
		return token, nil
	}
	if s.tokens == nil {
		return "", errNoExchanger
	}
	return s.tokens.Token(ctx, strings.TrimSpace(creds.Username))
}

func (s *Service) finish(ctx context.Context, req Request, start time.Time, t *tally, err error) {
	elapsed := time.Since(start)
	outcome := history.OutcomeOf(err)
	s.metrics.RecordSearch(string(outcome), t.emitted, elapsed)

	ev := s.log.Info()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("outcome", string(outcome)).
		Str("search_type", string(req.SearchType())).
		Str("criteria", req.Summary()).
		Bool("token_present", strings.TrimSpace(req.Token) != "").
		Int("results", t.emitted).
		Int("degraded", t.degraded).
		Dur("duration", elapsed).
		Msg("search finished")

	if s.history == nil {
		return
	}
	entry := history.Entry{
		StartedAt:    start,
		Username:     strings.TrimSpace(req.Username),
		TokenPresent: strings.TrimSpace(req.Token) != "",
		FolderID:     req.FolderID,
		SearchType:   string(req.SearchType()),
		Criteria:     req.Summary(),
		Outcome:      outcome,
		Error:        apierr.PublicMessage(err),
		Results:      t.emitted,
		Degraded:     t.degraded,
		DurationMS:   elapsed.Milliseconds(),
	}
	if _, herr := s.history.Record(ctx, entry); herr != nil {
		s.log.Error().Err(herr).Msg("recording search history")
	}
}

// Tags lists the caller's document tags.
func (s *Service) Tags(ctx context.Context, creds Credentials) ([]sme.Tag, error) {
	if creds.empty() {
		return nil, errNoCredentials
	}
	ctx = context.WithoutCancel(ctx)
	token, err := s.resolveToken(ctx, creds)
	if err != nil {
		return nil, err
	}
	tags, err := s.gateway.Tags(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Bool("token_present", creds.Token != "").Msg("tag listing failed")
		return nil, err
	}
	return tags, nil
}

// Folders returns the folder tree below folderID. The upstream folder
// listing is not wired; the tree is always the root folder alone.
func (s *Service) Folders(_ context.Context, creds Credentials, folderID int64) ([]Folder, error) {
	if creds.empty() {
		return nil, errNoCredentials
	}
	s.log.Debug().Int64("folder_id", folderID).Msg("folder listing requested")
	return []Folder{{FolderName: "Root", Children: []Folder{}}}, nil
}

// tally forwards to a Sink while counting what passes through.
type tally struct {
	enrich.Sink
	emitted  int
	degraded int
}

func (t *tally) Result(r sme.Result) {
	if r.Degraded {
		t.degraded++
	}
	t.Sink.Result(r)
}

func (t *tally) Complete(count int) {
	t.emitted = count
	t.Sink.Complete(count)
}
