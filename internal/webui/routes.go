package webui

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.instrument)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.Limit(s.rateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				}),
			))
		}
		r.Get("/health", s.handleHealth)
		r.Get("/titles", s.handleTitles)
		r.Get("/recommendations", s.handleRecommendations)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
