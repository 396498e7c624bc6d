package webui

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cinematch/internal/logging"
	"cinematch/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// requestID reuses an upstream X-Request-ID or mints a UUID, echoes it on
// the response and attaches it to the request context for logging.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrument logs each request and records it in the HTTP metrics, labelled
// by chi route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := routePattern(r)
		metrics.RecordHTTPRequest(r.Method, route, rec.status, elapsed)

		logger := logging.WithContext(r.Context(), s.logger)
		attrs := logging.Args(
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", rec.status),
			logging.Duration("duration", elapsed),
			logging.String("remote", r.RemoteAddr),
		)
		switch {
		case rec.status >= http.StatusInternalServerError:
			logger.Error("http request failed", attrs...)
		case route == "/metrics" || route == "/api/health":
			logger.Debug("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
