package sme

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

const fnTags = "getAllTags"

// Tag is a plain (non-metadata) tag and the number of files carrying it.
type Tag struct {
	Tag   string
	Count int
}

type tagRecord struct {
	Name        string `xml:"ta_name"`
	MetaID      string `xml:"ta_metaid"`
	Occurrences string `xml:"occerences"`
}

type tagsResponse struct {
	envelope
	List items[tagRecord] `xml:"tagslist"`
}

// Tags lists the plain tags on every file the token's user can see. Tags that
// belong to a metadata field are skipped. The result is never nil.
func (c *Client) Tags(ctx context.Context, token string) ([]Tag, error) {
	params := url.Values{
		"metaid":        {"0"},
		"mergemetadata": {"y"},
	}

	var resp tagsResponse
	if err := c.call(ctx, fnTags, token, params, &resp); err != nil {
		return nil, err
	}

	tags := []Tag{}
	for _, rec := range resp.List.Items {
		if strings.TrimSpace(rec.MetaID) != "0" {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(rec.Occurrences))
		if err != nil {
			count = 0
		}
		tags = append(tags, Tag{Tag: rec.Name, Count: count})
	}
	return tags, nil
}
