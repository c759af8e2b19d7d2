package config

import "time"

// NameBackend selects where metadata field names are cached.
type NameBackend string

const (
	NamesMemory NameBackend = "memory"
	NamesRedis  NameBackend = "redis"
)

// Config is the top-level smesearch configuration, corresponding to .smesearch.yml.
type Config struct {
	Server                ServerConfig         `yaml:"server" koanf:"server"`
	Upstream              UpstreamConfig       `yaml:"upstream" koanf:"upstream"`
	TokenGenerator        TokenGeneratorConfig `yaml:"token_generator" koanf:"token_generator"`
	ConcurrencyMultiplier int                  `yaml:"concurrency_multiplier" koanf:"concurrency_multiplier"`
	MetadataNames         MetadataNamesConfig  `yaml:"metadata_names" koanf:"metadata_names"`
	History               HistoryConfig        `yaml:"history" koanf:"history"`
	Log                   LogConfig            `yaml:"log" koanf:"log"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr" koanf:"addr"`
	// BasePath is prefixed to every route, for deployments behind a
	// path-routing proxy.
	BasePath       string   `yaml:"base_path" koanf:"base_path"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}

// UpstreamConfig describes the document-management API.
type UpstreamConfig struct {
	BaseURL                         string          `yaml:"base_url" koanf:"base_url"`
	RequestTimeout                  time.Duration   `yaml:"request_timeout" koanf:"request_timeout"`
	ResultURLProtocol               string          `yaml:"result_url_protocol" koanf:"result_url_protocol"`
	SanitizeResultsMissingExtension bool            `yaml:"sanitize_results_missing_extension" koanf:"sanitize_results_missing_extension"`
	DateField                       DateFieldConfig `yaml:"date_field" koanf:"date_field"`
}

// DateFieldConfig names the reserved metadata field used for date bounds.
type DateFieldConfig struct {
	ID         int64  `yaml:"id" koanf:"id"`
	FromClause string `yaml:"from_clause" koanf:"from_clause"`
	ToClause   string `yaml:"to_clause" koanf:"to_clause"`
}

// TokenGeneratorConfig is the username to API token exchange service.
type TokenGeneratorConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Path    string `yaml:"path" koanf:"path"`
	Method  string `yaml:"method" koanf:"method"`
}

// MetadataNamesConfig selects the metadata name cache backend.
type MetadataNamesConfig struct {
	Backend  NameBackend `yaml:"backend" koanf:"backend"`
	RedisURL string      `yaml:"redis_url" koanf:"redis_url"`
	Key      string      `yaml:"key" koanf:"key"`
}

// HistoryConfig controls the search request audit trail.
type HistoryConfig struct {
	Enabled   bool          `yaml:"enabled" koanf:"enabled"`
	Path      string        `yaml:"path" koanf:"path"`
	Retention time.Duration `yaml:"retention" koanf:"retention"` // 0 keeps entries forever
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Pretty bool   `yaml:"pretty" koanf:"pretty"`
}
