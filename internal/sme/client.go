// Package sme is the client for the upstream document-management API. Every
// call is a GET carrying the API token and a function name; responses are XML
// documents rooted at <response> with a status and status message.
package sme

import (
	"context"
	"encoding/xml"
	"errors"
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

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 32 << 20

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// ResultURLProtocol replaces the scheme of URLs the upstream returns.
	ResultURLProtocol string
	// SanitizeMissingExtension drops search results that have no extension.
	SanitizeMissingExtension bool
	// Names caches metadata field names across requests. Defaults to an
	// in-memory cache.
	Names      NameCache
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// Client calls the upstream API. It is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	protocol string
	sanitize bool
	names    NameCache
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewClient creates an upstream client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	protocol := strings.TrimSuffix(opts.ResultURLProtocol, ":")
	if protocol == "" {
		protocol = "https"
	}
	names := opts.Names
	if names == nil {
		names = NewMemoryNames()
	}

	return &Client{
		base:     base,
		http:     httpClient,
		protocol: protocol,
		sanitize: opts.SanitizeMissingExtension,
		names:    names,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}, nil
}

// envelope is the status header every upstream response carries. Embedding
// it pins the document root to <response>.
type envelope struct {
	XMLName       xml.Name `xml:"response"`
	Status        string   `xml:"status"`
	StatusMessage string   `xml:"statusmessage"`
}

func (e *envelope) header() *envelope { return e }

func (e *envelope) ok() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "ok")
}

type response interface {
	header() *envelope
}

// call performs one upstream GET and decodes the XML body into out. A non-ok
// status is returned as an apierr.KindUpstream error; a body that is not a
// status-bearing <response> document is an apierr.KindParse error.
func (c *Client) call(ctx context.Context, function, token string, params url.Values, out response) error {
	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.RecordUpstreamCall(function, status, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(function, token, params), nil)
	if err != nil {
		return apierr.Transport(function, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		terr := apierr.Transport(function, err)
		c.log.Warn().Str("op", function).Bool("token_present", token != "").Err(terr.Err).Msg("upstream request failed")
		return terr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.Transport(function, fmt.Errorf("unexpected HTTP status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apierr.Transport(function, err)
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return apierr.Parse(function, err)
	}

	h := out.header()
	if strings.TrimSpace(h.Status) == "" {
		return apierr.Parse(function, errors.New("response carries no status"))
	}
	if !h.ok() {
		status = "rejected"
		return apierr.Upstream(function, strings.TrimSpace(h.StatusMessage))
	}

	status = "ok"
	c.log.Debug().Str("op", function).Dur("duration", time.Since(start)).Msg("upstream call")
	return nil
}

// endpoint builds the request URL. Parameters already present on the base
// URL are kept; token and function are always set last.
func (c *Client) endpoint(function, token string, params url.Values) string {
	u := *c.base
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("token", token)
	q.Set("function", function)
	u.RawQuery = q.Encode()
	return u.String()
}

// rewriteScheme replaces everything before the first ':' of raw with the
// configured protocol. A value without a ':' is returned unchanged.
func (c *Client) rewriteScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	_, rest, found := strings.Cut(raw, ":")
	if !found {
		return raw
	}
	return c.protocol + ":" + rest
}

// items collects the children of a list element regardless of their names
// (the upstream numbers them i0, i1, ...).
type items[T any] struct {
	Items []T `xml:",any"`
}
