package webui

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"cinematch/internal/gallery"
	"cinematch/internal/logging"
	"cinematch/internal/recommend"
)

//go:embed templates/index.html
var templateFS embed.FS

type pageData struct {
	Titles      []string
	Selected    string
	Rows        [][]gallery.Card
	Error       string
	Suggestions []string
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"score": func(v float64) string { return fmt.Sprintf("%.3f", v) },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// handleIndex renders the title picker and, when ?title= is set, the
// recommendation grid.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Titles:   s.recommender.Dataset().Titles(),
		Selected: r.URL.Query().Get("title"),
	}
	status := http.StatusOK
	if strings.TrimSpace(data.Selected) != "" {
		cards, err := s.recommend(r, data.Selected)
		switch {
		case err == nil:
			data.Rows = gallery.Grid(cards, gallery.DefaultColumns)
		case errors.Is(err, recommend.ErrNotFound):
			status = http.StatusNotFound
			data.Error = fmt.Sprintf("%q is not in the catalog.", data.Selected)
			var notFound *recommend.NotFoundError
			if errors.As(err, &notFound) {
				data.Suggestions = notFound.Suggestions
			}
		case errors.Is(err, recommend.ErrAmbiguousTitle):
			status = http.StatusConflict
			data.Error = err.Error()
		case errors.Is(err, recommend.ErrInsufficientData):
			status = http.StatusUnprocessableEntity
			data.Error = "The catalog has no other movies to recommend."
		default:
			s.writeRecommendError(w, r, err)
			return
		}
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "render index page", "template_failed",
			logging.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
