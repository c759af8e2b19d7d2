package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/query"
	"github.com/kishore1288/nodenewsearch/internal/search"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// mockService implements Service for testing.
type mockService struct {
	results []sme.Result
	tags    []sme.Tag
	err     error
	lastReq search.Request
	lastTag search.Credentials
}

func (m *mockService) Search(_ context.Context, req search.Request, sink enrich.Sink) error {
	m.lastReq = req
	if m.err != nil {
		sink.Failure(m.err)
		return m.err
	}
	for _, r := range m.results {
		sink.Result(r)
	}
	sink.Complete(len(m.results))
	return nil
}

func (m *mockService) Tags(_ context.Context, creds search.Credentials) ([]sme.Tag, error) {
	m.lastTag = creds
	return m.tags, m.err
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_documents", searchDocumentsTool, "search_documents"},
		{"list_tags", listTagsTool, "list_tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	svc := &mockService{}
	srv := NewServer(svc, search.Credentials{Username: "svc"})

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.svc != svc {
		t.Error("service not set correctly")
	}
}

func TestHandleSearchDocuments(t *testing.T) {
	svc := &mockService{results: []sme.Result{
		{
			FileID:      "2",
			FolderID:    "5",
			Filename:    "zeta.pdf",
			DownloadURL: "https://s.example/2",
			Metadata:    map[string]string{"Region": "EMEA", "Customer": "Acme"},
			Degraded:    true,
		},
		{
			FileID:     "1",
			FolderID:   "5",
			Filename:   "alpha.txt",
			Tags:       []string{"finance", "q1"},
			ModifiedOn: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Metadata:   map[string]string{},
		},
	}}
	srv := NewServer(svc, search.Credentials{})
	ctx := t.Context()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"token":      "tok",
			"filename":   "report",
			"tags":       []any{"finance"},
			"from_date":  "2024-01-01",
			"folder_id":  float64(12),
			"extensions": []any{"pdf", "txt"},
		}

		result, err := srv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		got := svc.lastReq
		if got.Token != "tok" || got.Filename != "report" || *got.FolderID != 12 {
			t.Errorf("request = %+v", got)
		}
		if got.SearchType() != query.TypeAllMatches {
			t.Errorf("type = %q, want default v", got.SearchType())
		}
		if len(got.Tags) != 1 || len(got.Extensions) != 2 {
			t.Errorf("tags = %v, extensions = %v", got.Tags, got.Extensions)
		}
		if got.FromDate == nil || got.FromDate.String() != "2024-01-01" {
			t.Errorf("from date = %v", got.FromDate)
		}

		text := resultText(t, result)
		if !strings.Contains(text, "Found 2 document(s)") {
			t.Errorf("missing count:\n%s", text)
		}
		if strings.Index(text, "alpha.txt") > strings.Index(text, "zeta.pdf") {
			t.Errorf("results should be sorted by name:\n%s", text)
		}
		if !strings.Contains(text, "Customer: Acme\nRegion: EMEA") {
			t.Errorf("metadata should be listed in key order:\n%s", text)
		}
		if !strings.Contains(text, "Tags: finance, q1") || !strings.Contains(text, "Modified: 2024-03-01 10:00") {
			t.Errorf("missing details:\n%s", text)
		}
		if !strings.Contains(text, "could not be retrieved") {
			t.Errorf("degraded result should be flagged:\n%s", text)
		}
	})

	t.Run("limit", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"token": "tok", "filename": "x", "limit": float64(1)}

		result, _ := srv.handleSearchDocuments(ctx, req)
		text := resultText(t, result)
		if !strings.Contains(text, "showing the first 1") || strings.Contains(text, "zeta.pdf") {
			t.Errorf("limit not applied:\n%s", text)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"token": "tok", "to_date": "soon"}

		result, err := srv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error for an invalid date")
		}
	})

	t.Run("no results", func(t *testing.T) {
		empty := NewServer(&mockService{}, search.Credentials{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"token": "tok", "filename": "none"}

		result, _ := empty.handleSearchDocuments(ctx, req)
		if result.IsError || !strings.Contains(resultText(t, result), "No documents") {
			t.Errorf("result = %+v", result)
		}
	})
}

func TestHandleSearchDocumentsFailure(t *testing.T) {
	svc := &mockService{err: apierr.Validation("must provide at least one search criteria")}
	srv := NewServer(svc, search.Credentials{})

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"token": "tok"}

	result, err := srv.handleSearchDocuments(t.Context(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(resultText(t, result), "at least one search criteria") {
		t.Errorf("text = %q", resultText(t, result))
	}
}

func TestDefaultCredentials(t *testing.T) {
	svc := &mockService{tags: []sme.Tag{{Tag: "finance", Count: 3}}}
	srv := NewServer(svc, search.Credentials{Username: "svc-account"})

	result, err := srv.handleListTags(t.Context(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastTag.Username != "svc-account" {
		t.Errorf("credentials = %+v, want defaults", svc.lastTag)
	}
	if text := resultText(t, result); !strings.Contains(text, "- finance (3)") {
		t.Errorf("text = %q", text)
	}

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"token": "explicit"}
	srv.handleListTags(t.Context(), req)
	if svc.lastTag.Token != "explicit" || svc.lastTag.Username != "" {
		t.Errorf("explicit credentials should replace defaults: %+v", svc.lastTag)
	}
}

func TestHandleListTagsFailure(t *testing.T) {
	srv := NewServer(&mockService{err: apierr.Upstream("getAllTags", "Invalid token")}, search.Credentials{})

	result, _ := srv.handleListTags(t.Context(), mcp.CallToolRequest{})
	if !result.IsError {
		t.Error("expected tool error")
	}
}
