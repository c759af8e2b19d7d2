package config

import (
	"runtime"
	"time"

	"github.com/kishore1288/nodenewsearch/internal/query"
)

// DefaultPath is where init writes the configuration and where commands look
// for it unless --config says otherwise.
const DefaultPath = ".smesearch.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":9091",
			AllowedOrigins: []string{"*"},
		},
		Upstream: UpstreamConfig{
			RequestTimeout:                  30 * time.Second,
			ResultURLProtocol:               "https",
			SanitizeResultsMissingExtension: true,
			DateField: DateFieldConfig{
				ID:         query.DefaultDateField.ID,
				FromClause: string(query.DefaultDateField.FromClause),
				ToClause:   string(query.DefaultDateField.ToClause),
			},
		},
		TokenGenerator: TokenGeneratorConfig{
			Method: "GET",
		},
		ConcurrencyMultiplier: 4,
		MetadataNames: MetadataNamesConfig{
			Backend: NamesMemory,
			Key:     "smesearch:metanames",
		},
		History: HistoryConfig{
			Enabled:   true,
			Path:      ".smesearch/history.db",
			Retention: 30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConcurrencyLimit is the number of enrichment units allowed in flight per
// request: the CPU count times the configured multiplier, at least 1.
func (c *Config) ConcurrencyLimit() int {
	limit := runtime.NumCPU() * c.ConcurrencyMultiplier
	if limit < 1 {
		return 1
	}
	return limit
}

// QueryDateField converts the configured reserved date field for the compiler.
func (c *Config) QueryDateField() query.DateField {
	return query.DateField{
		ID:         c.Upstream.DateField.ID,
		FromClause: query.TextClause(c.Upstream.DateField.FromClause),
		ToClause:   query.TextClause(c.Upstream.DateField.ToClause),
	}
}
