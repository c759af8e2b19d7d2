package sme

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
	"github.com/kishore1288/nodenewsearch/internal/query"
)

const fnSearch = "getFilesByQuickFilter"

// timestampLayouts are tried in order for record timestamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Result is one file returned by a search, plus the fields the enrichment
// pipeline fills in.
type Result struct {
	FileID      string    `json:"fileId"`
	FolderID    string    `json:"folderId"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	Extension   string    `json:"extension"`
	Filename    string    `json:"filename"`
	CreatedOn   time.Time `json:"createdOn"`
	ModifiedOn  time.Time `json:"modifiedOn"`
	MatchedOn   string    `json:"matchedOn"`
	Tags        []string  `json:"tags"`

	AnnotatorURL string            `json:"AnnotatorUrl"`
	DownloadURL  string            `json:"DownloadUrl"`
	Metadata     map[string]string `json:"Metadata"`

	// Degraded is set when at least one enrichment lookup failed and the
	// corresponding fields were left empty.
	Degraded bool `json:"degraded,omitempty"`
}

type fileRecord struct {
	ID          string `xml:"fi_id"`
	FolderID    string `xml:"fi_pid"`
	UserID      string `xml:"fi_uid"`
	Description string `xml:"fi_description"`
	Extension   string `xml:"fi_extension"`
	Name        string `xml:"fi_name"`
	Created     string `xml:"fi_created"`
	Modified    string `xml:"fi_modified"`
	Tags        string `xml:"fi_tags"`
	Matched     string `xml:"matched"`
}

type searchResponse struct {
	envelope
	Total    string            `xml:"total"`
	FileList items[fileRecord] `xml:"filelist"`
}

// Search runs one quick-filter search. The returned slice is never nil.
func (c *Client) Search(ctx context.Context, token string, p query.Params) ([]Result, error) {
	var resp searchResponse
	if err := c.call(ctx, fnSearch, token, p.Values(), &resp); err != nil {
		return nil, err
	}

	total, err := parseTotal(resp.Total)
	if err != nil {
		return nil, apierr.Parse(fnSearch, err)
	}
	if total == 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, len(resp.FileList.Items))
	for i, rec := range resp.FileList.Items {
		r, err := rec.result()
		if err != nil {
			return nil, apierr.Parse(fnSearch, fmt.Errorf("record %d: %w", i, err))
		}
		if c.sanitize && r.Extension == "" {
			continue
		}
		results = append(results, r)
	}

	c.log.Debug().Int("total", total).Int("results", len(results)).Msg("search returned")
	return results, nil
}

func parseTotal(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("total %q: %w", s, err)
	}
	return n, nil
}

func (rec fileRecord) result() (Result, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return Result{}, fmt.Errorf("missing fi_id")
	}
	created, err := parseTimestamp(rec.Created)
	if err != nil {
		return Result{}, fmt.Errorf("fi_created: %w", err)
	}
	modified, err := parseTimestamp(rec.Modified)
	if err != nil {
		return Result{}, fmt.Errorf("fi_modified: %w", err)
	}

	return Result{
		FileID:      id,
		FolderID:    strings.TrimSpace(rec.FolderID),
		UserID:      strings.TrimSpace(rec.UserID),
		Description: rec.Description,
		Extension:   strings.TrimSpace(rec.Extension),
		Filename:    rec.Name,
		CreatedOn:   created,
		ModifiedOn:  modified,
		MatchedOn:   strings.TrimSpace(rec.Matched),
		Tags:        splitTags(rec.Tags),
		Metadata:    map[string]string{},
	}, nil
}

// parseTimestamp accepts the upstream's layouts. An empty value is the zero time.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
