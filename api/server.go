package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"

	"kosyak-bot/config"
	"kosyak-bot/core/telegram"
	"kosyak-bot/core/utils"
)

// Server receives webhook updates in webhook transport mode and exposes a
// liveness probe. In polling mode only /healthz is served.
type Server struct {
	cfg     *config.AppConfig
	handler telegram.UpdateHandler
	logger  *utils.Logger
	httpSrv *http.Server
}

func NewServer(cfg *config.AppConfig, handler telegram.UpdateHandler, logger *utils.Logger) *Server {
	s := &Server{cfg: cfg, handler: handler, logger: logger}
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)
	r.MethodFunc(http.MethodGet, "/healthz", s.handleHealthz)
	if cfg.Transport.IsWebhookMode() {
		r.MethodFunc(http.MethodPost, "/telegram/webhook", s.handleWebhook)
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.Transport.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Printf("http listening on %s", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if s.logger != nil {
					s.logger.Errorf("PANIC %s %s: %v\n%s", r.Method, r.URL.Path, rec, string(debug.Stack()))
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.logger != nil {
			s.logger.Printf("RESP %s %s status=%d dur=%s", r.Method, r.URL.Path, rec.status, time.Since(start))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
