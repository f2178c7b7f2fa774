// Package httpx serves the optional operations endpoint (metrics and health)
// next to the interactive console.
package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/pharmacy/pkg/health"
	"github.com/ghuser/pharmacy/pkg/logger"
)

// NewOpsRouter returns a chi.Mux exposing GET /metrics and GET /health.
//
// Middleware order (outermost → innermost):
//  1. Recoverer: handler panics become 500s
//  2. RequestID: unique X-Request-Id per request
//  3. RequestLogger: method, path, status and duration
//  4. otelhttp: one server span per request, named after serviceName
//  5. Timeout: 10 s handler deadline
func NewOpsRouter(log logger.Logger, serviceName string, metrics http.Handler, checks map[string]health.Checker) *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		RequestLogger(log),
		otelhttp.NewMiddleware(serviceName),
		middleware.Timeout(10*time.Second),
	)

	r.Method(http.MethodGet, "/metrics", metrics)
	r.Get("/health", HealthHandler(checks))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		JSONError(w, http.StatusNotFound, "not found")
	})
	return r
}

// RequestLogger logs every request at debug level, or warn for 5xx answers.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.WarnContext(r.Context(), "ops request failed", args...)
				return
			}
			log.DebugContext(r.Context(), "ops request", args...)
		})
	}
}

// NewServer returns an *http.Server with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
