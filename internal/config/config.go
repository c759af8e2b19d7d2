package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore: SMESEARCH_UPSTREAM__BASE_URL sets upstream.base_url.
const EnvPrefix = "SMESEARCH_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SMESEARCH_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps SMESEARCH_METADATA_NAMES__REDIS_URL to metadata_names.redis_url.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validNameBackends = map[NameBackend]bool{
	NamesMemory: true,
	NamesRedis:  true,
}

var validMethods = map[string]bool{
	"GET":  true,
	"POST": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if err := absoluteURL(c.Upstream.BaseURL); err != nil {
		return fmt.Errorf("upstream.base_url: %w", err)
	}
	if c.Upstream.RequestTimeout <= 0 {
		return fmt.Errorf("upstream.request_timeout must be positive")
	}
	if c.Upstream.ResultURLProtocol == "" {
		return fmt.Errorf("upstream.result_url_protocol is required")
	}
	if c.Upstream.DateField.ID <= 0 {
		return fmt.Errorf("upstream.date_field.id must be positive")
	}

	if c.TokenGenerator.BaseURL != "" {
		if err := absoluteURL(c.TokenGenerator.BaseURL); err != nil {
			return fmt.Errorf("token_generator.base_url: %w", err)
		}
		if !validMethods[strings.ToUpper(c.TokenGenerator.Method)] {
			return fmt.Errorf("invalid token_generator.method %q: must be GET or POST", c.TokenGenerator.Method)
		}
	}

	if c.ConcurrencyMultiplier < 0 {
		return fmt.Errorf("concurrency_multiplier must be non-negative")
	}

	if !validNameBackends[c.MetadataNames.Backend] {
		return fmt.Errorf("invalid metadata_names.backend %q: must be memory or redis", c.MetadataNames.Backend)
	}
	if c.MetadataNames.Backend == NamesRedis && c.MetadataNames.RedisURL == "" {
		return fmt.Errorf("metadata_names.redis_url is required for the redis backend")
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	if c.History.Retention < 0 {
		return fmt.Errorf("history.retention must not be negative")
	}

	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}

	return nil
}

func absoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}
