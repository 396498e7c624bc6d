package webui

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"cinematch/internal/gallery"
	"cinematch/internal/logging"
	"cinematch/internal/recommend"
	"cinematch/internal/textutil"
)

const defaultTitleSearchLimit = 20

type recommendationsResponse struct {
	Title           string         `json:"title"`
	Recommendations []gallery.Card `json:"recommendations"`
}

type titlesResponse struct {
	Query  string   `json:"query,omitempty"`
	Titles []string `json:"titles"`
}

type healthResponse struct {
	Status string `json:"status"`
	Movies int    `json:"movies"`
	Limit  int    `json:"limit"`
}

type notFoundResponse struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions"`
}

type ambiguousResponse struct {
	Error   string            `json:"error"`
	Matches []recommend.Match `json:"matches"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Movies: s.recommender.Dataset().Len(),
		Limit:  s.recommender.Limit(),
	})
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	titles := s.recommender.Dataset().Titles()
	if query == "" {
		writeJSON(w, http.StatusOK, titlesResponse{Titles: titles})
		return
	}

	limit := defaultTitleSearchLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	matches := make([]string, 0, limit)
	for _, idx := range textutil.RankTitles(query, titles, limit) {
		matches = append(matches, titles[idx])
	}
	writeJSON(w, http.StatusOK, titlesResponse{Query: query, Titles: matches})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, http.StatusBadRequest, "title query parameter is required")
		return
	}
	cards, err := s.recommend(r, title)
	if err != nil {
		s.writeRecommendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{Title: title, Recommendations: cards})
}

func (s *Server) recommend(r *http.Request, title string) ([]gallery.Card, error) {
	recs, err := s.recommender.Recommend(title)
	if err != nil {
		return nil, err
	}
	return gallery.Build(r.Context(), recs, s.posters, s.placeholder), nil
}

func (s *Server) writeRecommendError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *recommend.NotFoundError
	var ambiguous *recommend.AmbiguousTitleError
	switch {
	case errors.As(err, &notFound):
		suggestions := notFound.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		writeJSON(w, http.StatusNotFound, notFoundResponse{Error: err.Error(), Suggestions: suggestions})
	case errors.As(err, &ambiguous):
		writeJSON(w, http.StatusConflict, ambiguousResponse{Error: err.Error(), Matches: ambiguous.Matches})
	case errors.Is(err, recommend.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "recommendation failed", "recommend_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the dataset artifact"),
			logging.String(logging.FieldImpact, "request returned 500"),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
