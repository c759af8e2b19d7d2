package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kishore1288/nodenewsearch/internal/config"
	"github.com/kishore1288/nodenewsearch/internal/db"
	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/history"
	"github.com/kishore1288/nodenewsearch/internal/logger"
	"github.com/kishore1288/nodenewsearch/internal/metrics"
	"github.com/kishore1288/nodenewsearch/internal/query"
	"github.com/kishore1288/nodenewsearch/internal/search"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `smesearch init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config, out io.Writer) *logger.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Pretty: cfg.Log.Pretty, Output: out})
}

// app holds everything a command needs to run searches.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	pipeline *enrich.Pipeline
	history  *history.Store
	service  *search.Service
	closers  []func() error
}

// buildApp wires the search service from cfg. History is opened only when
// withHistory is set and enabled in the config.
func buildApp(cfg *config.Config, log *logger.Logger, withHistory bool) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.New(nil)}

	names, err := a.nameCache()
	if err != nil {
		return nil, err
	}

	client, err := sme.NewClient(sme.Options{
		BaseURL:                  cfg.Upstream.BaseURL,
		Timeout:                  cfg.Upstream.RequestTimeout,
		ResultURLProtocol:        cfg.Upstream.ResultURLProtocol,
		SanitizeMissingExtension: cfg.Upstream.SanitizeResultsMissingExtension,
		Names:                    names,
		Metrics:                  a.metrics,
		Logger:                   log.Component("upstream"),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating upstream client: %w", err)
	}

	a.pipeline = enrich.New(client, cfg.ConcurrencyLimit(), log.Component("enrich"), a.metrics)
	opts := search.Options{
		Gateway:  client,
		Compiler: query.NewCompiler(cfg.QueryDateField()),
		Pipeline: a.pipeline,
		Metrics:  a.metrics,
		Logger:   log.Component("search"),
	}
	if tokens := sme.NewTokenExchanger(sme.TokenOptions{
		BaseURL: cfg.TokenGenerator.BaseURL,
		Path:    cfg.TokenGenerator.Path,
		Method:  cfg.TokenGenerator.Method,
		Timeout: cfg.Upstream.RequestTimeout,
		Metrics: a.metrics,
		Logger:  log.Component("tokens"),
	}); tokens != nil {
		opts.Tokens = tokens
	}

	if withHistory && cfg.History.Enabled {
		database, err := db.Open(cfg.History.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening history database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		a.history = history.NewStore(database)
		opts.History = a.history
	}

	a.service = search.NewService(opts)
	return a, nil
}

func (a *app) nameCache() (sme.NameCache, error) {
	if a.cfg.MetadataNames.Backend != config.NamesRedis {
		return sme.NewMemoryNames(), nil
	}
	names, err := sme.NewRedisNames(a.cfg.MetadataNames.RedisURL, a.cfg.MetadataNames.Key, a.log.Component("names"))
	if err != nil {
		return nil, fmt.Errorf("connecting metadata name cache: %w", err)
	}
	a.closers = append(a.closers, names.Close)
	return names, nil
}

// Close releases the resources opened by buildApp.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// credentialsFromFlags falls back to SMESEARCH_TOKEN and SMESEARCH_USERNAME.
func credentialsFromFlags(token, username string) search.Credentials {
	if token == "" && username == "" {
		token = os.Getenv(config.EnvPrefix + "TOKEN")
		username = os.Getenv(config.EnvPrefix + "USERNAME")
	}
	return search.Credentials{Token: token, Username: username}
}
