package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/progress"
	"github.com/kishore1288/nodenewsearch/internal/query"
	"github.com/kishore1288/nodenewsearch/internal/search"
)

var searchFlags struct {
	token, username string
	folder          int64
	kind            string
	filename        string
	description     string
	extensions      []string
	tags            []string
	from, to        string
	meta            []string
	metaClause      string
	textOptions     []string
	asJSON          bool
	noProgress      bool
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search and print the enriched results",
	Long: `Runs a single search against the document management API and prints
every result with its download link, annotator link and metadata.

Metadata conditions are given as "<fieldId>,<clause>,<value>,<combination>",
for example --meta "4,contains,acme,or".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := searchFilter()
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg, os.Stderr)
		a, err := buildApp(cfg, log, true)
		if err != nil {
			return err
		}
		defer a.Close()

		var c enrich.Collector
		var sink enrich.Sink = &c
		if !searchFlags.noProgress && !searchFlags.asJSON {
			sink = progress.NewSink(&c, progress.NewReporter(os.Stderr))
		}

		req := search.Request{
			Credentials: credentialsFromFlags(searchFlags.token, searchFlags.username),
			Filter:      filter,
		}
		if err := a.service.Search(cmd.Context(), req, sink); err != nil {
			return err
		}

		results, _, _ := c.Results()
		if searchFlags.asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		renderResults(cmd.OutOrStdout(), results)
		return nil
	},
}

// searchFilter builds the filter from the command flags.
func searchFilter() (query.Filter, error) {
	f := query.Filter{
		FolderID:    query.Folder(searchFlags.folder),
		Type:        query.Word(searchFlags.kind),
		Filename:    searchFlags.filename,
		Description: searchFlags.description,
		Extensions:  searchFlags.extensions,
		Tags:        searchFlags.tags,
		TextOption:  searchFlags.textOptions,
	}

	var err error
	if f.FromDate, err = dateFlag("from", searchFlags.from); err != nil {
		return f, err
	}
	if f.ToDate, err = dateFlag("to", searchFlags.to); err != nil {
		return f, err
	}

	for _, raw := range searchFlags.meta {
		c, err := query.ParseCriterion(raw)
		if err != nil {
			return f, fmt.Errorf("--meta: %w", err)
		}
		f.Metadata = append(f.Metadata, query.Condition{
			ID:           c.FieldID,
			TextClause:   query.Word(string(c.Clause)),
			Criteria:     c.Value,
			SearchClause: query.Word(string(c.Combination)),
		})
	}
	if searchFlags.metaClause != "" {
		f.MetaClause = query.Word(searchFlags.metaClause)
	} else if len(f.Metadata) > 0 {
		f.MetaClause = query.Word(string(query.And))
	}
	return f, nil
}

func dateFlag(name, v string) (*query.Date, error) {
	if v == "" {
		return nil, nil
	}
	d, err := query.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.token, "token", "", "API token (or SMESEARCH_TOKEN)")
	f.StringVar(&searchFlags.username, "username", "", "username to exchange for a token (or SMESEARCH_USERNAME)")
	f.Int64Var(&searchFlags.folder, "folder", 0, "folder id to search below")
	f.StringVar(&searchFlags.kind, "type", string(query.TypeAllMatches), "search type (v, a, o, h, s, d)")
	f.StringVar(&searchFlags.filename, "filename", "", "match file names")
	f.StringVar(&searchFlags.description, "description", "", "match file descriptions")
	f.StringSliceVar(&searchFlags.extensions, "ext", nil, "file extensions to include")
	f.StringSliceVar(&searchFlags.tags, "tag", nil, "tags the files must carry")
	f.StringVar(&searchFlags.from, "from", "", "modified on or after (YYYY-MM-DD)")
	f.StringVar(&searchFlags.to, "to", "", "modified on or before (YYYY-MM-DD)")
	f.StringArrayVar(&searchFlags.meta, "meta", nil, "metadata condition <fieldId>,<clause>,<value>,<combination> (repeatable)")
	f.StringVar(&searchFlags.metaClause, "meta-clause", "", "how metadata conditions combine (and, or)")
	f.StringSliceVar(&searchFlags.textOptions, "text-option", nil, "text match modes for type v or h")
	f.BoolVar(&searchFlags.asJSON, "json", false, "print results as JSON")
	f.BoolVar(&searchFlags.noProgress, "no-progress", false, "disable the progress display")
	rootCmd.AddCommand(searchCmd)
}
