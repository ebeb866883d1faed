// Package server exposes the analytics report over a read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/pipeline-analytics/internal/analytics"
	"github.com/sells-group/pipeline-analytics/internal/model"
)

// SnapshotLoader supplies the data of one analysis pass.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
}

// Config holds server configuration.
type Config struct {
	Port        int
	RateLimit   float64 // requests per second, 0 = unlimited
	RateBurst   int
	Timeout     time.Duration
	CORSOrigins []string
	// Defaults applied when a request does not override them.
	IncludeStalled bool
	MatrixYear     int
	// Now is the clock; nil uses time.Now.
	Now func() time.Time
}

// Server is the HTTP API.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	loader  SnapshotLoader
	cfg     Config
	log     *zap.Logger
	limiter *rate.Limiter
}

// New builds a Server with its middleware and routes.
func New(loader SnapshotLoader, cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &Server{
		router: chi.NewRouter(),
		loader: loader,
		cfg:    cfg,
		log:    zap.L().With(zap.String("component", "server")),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(middleware.Timeout(s.cfg.Timeout))

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/forecast", s.handleForecast)
		r.Get("/monthly", s.handleMonthly)
		r.Route("/risks", func(r chi.Router) {
			r.Get("/", s.handleRisks)
			r.Get("/groups", s.handleRiskGroups)
		})
		r.Get("/plan", s.handlePlan)
		r.Get("/matrix", s.handleMatrix)
	})
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", zap.Int("port", s.cfg.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// options reads period, year and stalled from the query string.
func (s *Server) options(r *http.Request) (analytics.Options, error) {
	q := r.URL.Query()
	opts := analytics.Options{
		Now:            s.cfg.Now(),
		Year:           s.cfg.MatrixYear,
		IncludeStalled: s.cfg.IncludeStalled,
	}

	if p := q.Get("period"); p != "" {
		if _, err := time.Parse("2006-01", p); err != nil {
			return opts, eris.Errorf("period must be YYYY-MM, got %q", p)
		}
		opts.Period = p
	}
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil || year < 1900 || year > 9999 {
			return opts, eris.Errorf("year must be a four-digit year, got %q", y)
		}
		opts.Year = year
	}
	if st := q.Get("stalled"); st != "" {
		b, err := strconv.ParseBool(st)
		if err != nil {
			return opts, eris.Errorf("stalled must be a boolean, got %q", st)
		}
		opts.IncludeStalled = b
	}
	return opts, nil
}

// analyze loads a fresh snapshot and runs the engine. It writes the error
// response itself and reports false on failure.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (analytics.Report, bool) {
	opts, err := s.options(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return analytics.Report{}, false
	}
	snap, err := s.loader.LoadSnapshot(r.Context())
	if err != nil {
		s.log.Error("load snapshot failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load pipeline snapshot")
		return analytics.Report{}, false
	}
	return analytics.Analyze(snap, opts), true
}
