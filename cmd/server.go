package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kishore1288/nodenewsearch/internal/history"
	"github.com/kishore1288/nodenewsearch/internal/server"
	"github.com/kishore1288/nodenewsearch/internal/socket"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the websocket search server",
	Long: `Starts the smesearch server: the websocket search channel at the base
path, plus /healthz, /metrics and the /api/history endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverAddr != "" {
			cfg.Server.Addr = serverAddr
		}

		log := newLogger(cfg, os.Stderr)
		a, err := buildApp(cfg, log, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ws := socket.NewHandler(a.service, cfg.Server.AllowedOrigins, a.metrics, log.Component("socket"))
		srv := server.New(server.Config{
			Addr:           cfg.Server.Addr,
			BasePath:       cfg.Server.BasePath,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, ws, a.history, a.metrics, log.Component("http"))

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if a.history != nil {
			go history.RunRetention(ctx, a.history, cfg.History.Retention, time.Hour, log.Component("history"))
		}

		go func() {
			<-ctx.Done()
			zl := log.Zerolog()
			zl.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zl := log.Zerolog()
		zl.Info().
			Str("version", Version).
			Str("upstream", cfg.Upstream.BaseURL).
			Int("concurrency_limit", a.pipeline.Limit()).
			Bool("history", a.history != nil).
			Dur("history_retention", cfg.History.Retention).
			Str("names_backend", string(cfg.MetadataNames.Backend)).
			Msg("smesearch server starting")

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().StringVar(&serverAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serverCmd)
}
