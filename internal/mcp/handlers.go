package mcp

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/query"
	"github.com/kishore1288/nodenewsearch/internal/search"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// handleSearchDocuments runs one search and returns the enriched results as text.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := query.Filter{
		FolderID:    query.Folder(int64(request.GetInt("folder_id", 0))),
		Type:        query.Word(request.GetString("type", string(query.TypeAllMatches))),
		Filename:    request.GetString("filename", ""),
		Description: request.GetString("description", ""),
		Extensions:  request.GetStringSlice("extensions", nil),
		Tags:        request.GetStringSlice("tags", nil),
	}
	for _, d := range []struct {
		arg  string
		dest **query.Date
	}{
		{"from_date", &filter.FromDate},
		{"to_date", &filter.ToDate},
	} {
		v := request.GetString(d.arg, "")
		if v == "" {
			continue
		}
		date, err := query.ParseDate(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid %s %q: expected YYYY-MM-DD", d.arg, v)), nil
		}
		*d.dest = &date
	}

	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	var c enrich.Collector
	req := search.Request{Credentials: s.credentials(request), Filter: filter}
	if err := s.svc.Search(ctx, req, &c); err != nil {
		return mcp.NewToolResultError("search failed: " + apierr.PublicMessage(err)), nil
	}

	results, count, _ := c.Results()
	if count == 0 {
		return mcp.NewToolResultText("No documents matched the search."), nil
	}
	return mcp.NewToolResultText(formatResults(results, limit)), nil
}

// handleListTags returns the caller's tags, one per line.
func (s *Server) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx, s.credentials(request))
	if err != nil {
		return mcp.NewToolResultError("listing tags failed: " + apierr.PublicMessage(err)), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("No tags found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d tag(s):\n", len(tags))
	for _, t := range tags {
		fmt.Fprintf(&sb, "- %s (%d)\n", t.Tag, t.Count)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) credentials(request mcp.CallToolRequest) search.Credentials {
	creds := search.Credentials{
		Token:    request.GetString("token", ""),
		Username: request.GetString("username", ""),
	}
	if creds.Token == "" && creds.Username == "" {
		return s.defaults
	}
	return creds
}

// formatResults renders results sorted by file name for AI agent consumption.
func formatResults(results []sme.Result, limit int) string {
	slices.SortFunc(results, func(a, b sme.Result) int {
		return cmp.Or(cmp.Compare(a.Filename, b.Filename), cmp.Compare(a.FileID, b.FileID))
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d document(s)", len(results))
	if len(results) > limit {
		fmt.Fprintf(&sb, ", showing the first %d", limit)
		results = results[:limit]
	}
	sb.WriteString(":\n")

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "File: %s (id %s, folder %s)\n", r.Filename, r.FileID, r.FolderID)
		if r.Description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", r.Description)
		}
		if !r.ModifiedOn.IsZero() {
			fmt.Fprintf(&sb, "Modified: %s\n", r.ModifiedOn.Format("2006-01-02 15:04"))
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(r.Tags, ", "))
		}
		if r.DownloadURL != "" {
			fmt.Fprintf(&sb, "Download: %s\n", r.DownloadURL)
		}
		if r.AnnotatorURL != "" {
			fmt.Fprintf(&sb, "Annotate: %s\n", r.AnnotatorURL)
		}
		for _, k := range slices.Sorted(maps.Keys(r.Metadata)) {
			fmt.Fprintf(&sb, "%s: %s\n", k, r.Metadata[k])
		}
		if r.Degraded {
			sb.WriteString("(some details could not be retrieved)\n")
		}
	}
	return sb.String()
}
