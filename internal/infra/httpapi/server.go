// Package httpapi is the public HTTP surface: uploads, live progress over
// WebSocket and Server-Sent Events, archive downloads and the admin settings.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/metrics"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/settings"
	"github.com/heenao9k/betmc-ui-generator/internal/progress"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Generator starts a session in the background.
type Generator interface {
	Start(ctx context.Context, sessionID string, req *entity.GenerationRequest)
}

// Subscriber delivers the events of one session.
type Subscriber interface {
	Subscribe(sessionID string, handler progress.Handler) progress.Token
	Unsubscribe(tok progress.Token)
}

type Config struct {
	UploadDir        string
	ZipDir           string
	RateLimitPerHour int
	MaxUploadBytes   int64
	// KeepAlive is the interval of SSE comments and WebSocket pings.
	KeepAlive time.Duration
}

type Server struct {
	gen      Generator
	events   Subscriber
	settings *settings.Store
	cfg      Config
	logger   *zap.Logger
}

func NewServer(gen Generator, events Subscriber, st *settings.Store, logger *zap.Logger, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 512 << 20
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 15 * time.Second
	}
	return &Server{gen: gen, events: events, settings: st, cfg: cfg, logger: logger}
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	upload := http.Handler(http.HandlerFunc(s.handleUpload))
	if s.cfg.RateLimitPerHour > 0 {
		upload = httprate.Limit(
			s.cfg.RateLimitPerHour,
			time.Hour,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			}),
		)(upload)
	}
	r.Method(http.MethodPost, "/upload", upload)

	r.Get("/ws/progress/{sessionID}", s.handleWebSocket)
	r.Get("/progress/{sessionID}", s.handleSSE)
	r.Get("/zips/{file}", s.handleDownload)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handlePublicConfig)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/password", s.handleSetPassword)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/config", s.handleAdminConfig)
				r.Put("/config", s.handleUpdateConfig)
			})
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return otelhttp.NewHandler(r, "betmc-http")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
