// Package http serves the editor API: block catalogue, compilation, runs,
// reports and live run streaming.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/strogmv/apiblocks/internal/pkg/circuitbreaker"
	"github.com/strogmv/apiblocks/internal/service"
)

type Options struct {
	// APIKeyHash is a bcrypt hash of the API key. Empty disables the check.
	APIKeyHash   string
	CORSOrigins  []string
	MaxBodyBytes int64
	// ArchiveTTL is how long archived report links stay valid.
	ArchiveTTL time.Duration
	// Breakers reports the outgoing circuit states shown on /healthz.
	Breakers func() map[string]circuitbreaker.State
	Logger   *slog.Logger
}

type Server struct {
	runner   *service.Runner
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewServer(runner *service.Runner, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.ArchiveTTL <= 0 {
		opts.ArchiveTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{runner: runner, opts: opts, logger: opts.Logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler builds the router wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(APIKeyMiddleware(s.opts.APIKeyHash))
		r.Use(MaxBodySizeMiddleware(s.opts.MaxBodyBytes))

		r.Get("/blocks", s.listBlocks)
		r.Post("/compile", s.compile)

		r.Get("/programs/{hash}", s.getProgram)
		r.Get("/programs/{hash}/export.go", s.exportProgram)
		r.Get("/programs/{hash}/runs", s.listProgramRuns)
		r.Post("/programs/{hash}/runs", s.runProgram)

		r.Get("/runs", s.listRuns)
		r.Post("/runs", s.runWorkspace)
		r.Get("/runs/stream", s.stream)
		r.Get("/runs/{id}", s.getRun)
		r.Get("/runs/{id}/report/{format}", s.getReport)
		r.Post("/runs/{id}/archive", s.archive)
		r.Get("/files/*", s.getFile)
	})

	return otelhttp.NewHandler(r, "apiblocks.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
