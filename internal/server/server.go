package server

import (
	"context"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kishore1288/nodenewsearch/internal/history"
	"github.com/kishore1288/nodenewsearch/internal/metrics"
)

// Config holds server configuration.
type Config struct {
	Addr           string
	BasePath       string   // prefix of every route; the websocket lives at the prefix itself
	AllowedOrigins []string // CORS and websocket origins; "*" allows any
}

// Server is the smesearch HTTP front: the websocket search channel plus
// health, metrics and history endpoints.
type Server struct {
	cfg        Config
	socket     http.Handler
	history    *history.Store
	metrics    *metrics.Metrics
	log        zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. history and m may be nil.
func New(cfg Config, socket http.Handler, store *history.Store, m *metrics.Metrics, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		socket:  socket,
		history: store,
		metrics: m,
		log:     log,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes,
// mounted under the base path.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	// CORS
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Mount(basePath(s.cfg.BasePath), s.routes())
	return r
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	if s.history != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			history.RegisterRoutes(r, s.history)
		})
	}

	if s.socket != nil {
		r.Handle("/", s.socket)
	}

	return r
}

// basePath normalizes the configured base path to an absolute route.
func basePath(base string) string {
	return path.Clean("/" + base)
}

// accessLog logs one line per request. The websocket route logs when the
// session ends.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info().Str("addr", s.cfg.Addr).Str("socket_path", basePath(s.cfg.BasePath)).Msg("smesearch server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
