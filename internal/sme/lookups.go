package sme

import (
	"context"
	"net/url"
	"strings"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
)

const (
	fnAnnotator = "getDocumentAnnotationsUrl"
	fnDownload  = "getFileURL"
	fnMetadata  = "getFilemetadata"
)

type urlResponse struct {
	envelope
	URL string `xml:"url"`
}

type metaName struct {
	ID    string `xml:"txn_id"`
	Title string `xml:"txn_title"`
}

type metaValue struct {
	MetaID string `xml:"txn_metaid"`
	Value  string `xml:"txn_value"`
}

type metadataResponse struct {
	envelope
	Names  items[metaName]  `xml:"metanames"`
	Values items[metaValue] `xml:"metadata"`
}

// AnnotatorURL returns the annotation viewer URL for a file, or "" when the
// upstream declines. folderID is sent as the group id, 0 when empty.
func (c *Client) AnnotatorURL(ctx context.Context, token, fileID, folderID string) (string, error) {
	groupID := strings.TrimSpace(folderID)
	if groupID == "" {
		groupID = "0"
	}
	params := url.Values{
		"fi_id": {fileID},
		"gr_id": {groupID},
	}
	return c.lookupURL(ctx, fnAnnotator, token, params)
}

// DownloadURL returns a short-lived download link for a file, or "" when the
// upstream declines.
func (c *Client) DownloadURL(ctx context.Context, token, fileID string) (string, error) {
	params := url.Values{
		"fi_id":         {fileID},
		"days":          {"0"},
		"hours":         {"0"},
		"minutes":       {"0"},
		"password":      {""},
		"shorturl":      {"y"},
		"options":       {""},
		"downloadlimit": {"0"},
	}
	return c.lookupURL(ctx, fnDownload, token, params)
}

func (c *Client) lookupURL(ctx context.Context, function, token string, params url.Values) (string, error) {
	var resp urlResponse
	err := c.call(ctx, function, token, params, &resp)
	if apierr.Is(err, apierr.KindUpstream) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.rewriteScheme(resp.URL), nil
}

// Metadata returns a file's metadata keyed by field name. Field names are
// requested only while the name cache is empty; an id with no known name is
// keyed by the id itself. Unlike the URL lookups, a non-ok status is an error.
func (c *Client) Metadata(ctx context.Context, token, fileID string) (map[string]string, error) {
	populated := c.names.Populated(ctx)
	params := url.Values{
		"fi_id":     {fileID},
		"metanames": {yesNo(!populated)},
	}

	var resp metadataResponse
	if err := c.call(ctx, fnMetadata, token, params, &resp); err != nil {
		return nil, err
	}

	var names map[string]string
	if populated {
		names = c.names.Names(ctx)
	} else {
		names = make(map[string]string, len(resp.Names.Items))
		for _, n := range resp.Names.Items {
			if id := strings.TrimSpace(n.ID); id != "" {
				names[id] = n.Title
			}
		}
		c.names.Store(ctx, names)
	}

	md := make(map[string]string, len(resp.Values.Items))
	for _, v := range resp.Values.Items {
		id := strings.TrimSpace(v.MetaID)
		key, ok := names[id]
		if !ok || key == "" {
			key = id
		}
		md[key] = v.Value
	}
	return md, nil
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
