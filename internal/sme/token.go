package sme

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
	"github.com/kishore1288/nodenewsearch/internal/metrics"
)

const opToken = "token-exchange"

// TokenExchanger trades a username for an upstream API token through the
// token generator service.
type TokenExchanger struct {
	endpoint string
	method   string
	http     *http.Client
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// TokenOptions configures a TokenExchanger.
type TokenOptions struct {
	BaseURL    string
	Path       string
	Method     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// NewTokenExchanger returns nil when no token generator is configured.
func NewTokenExchanger(opts TokenOptions) *TokenExchanger {
	if opts.BaseURL == "" {
		return nil
	}
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &TokenExchanger{
		endpoint: opts.BaseURL + opts.Path,
		method:   method,
		http:     httpClient,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}
}

type tokenResponse struct {
	Status   string `json:"Status"`
	APIToken string `json:"ApiToken"`
}

// Token exchanges username for an API token. A non-ok status or an empty
// token is an apierr.KindUpstream error.
func (t *TokenExchanger) Token(ctx context.Context, username string) (string, error) {
	start := time.Now()
	status := "error"
	defer func() {
		t.metrics.RecordUpstreamCall(opToken, status, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, t.method, t.endpoint+url.PathEscape(username), nil)
	if err != nil {
		return "", apierr.Transport(opToken, err)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return "", apierr.Transport(opToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apierr.Transport(opToken, fmt.Errorf("unexpected HTTP status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apierr.Transport(opToken, err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", apierr.Parse(opToken, err)
	}
	if !strings.EqualFold(tr.Status, "ok") || tr.APIToken == "" {
		status = "rejected"
		t.log.Warn().Str("op", opToken).Str("status", tr.Status).Msg("token generator declined")
		return "", apierr.Upstream(opToken, "failed to generate token for username "+username)
	}

	status = "ok"
	return tr.APIToken, nil
}
