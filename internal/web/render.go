package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/logging"
	"github.com/styleatelier/atelier/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "cards", "hand"
}

// ListPageData is the template data for the card list page.
type ListPageData struct {
	PageData
	Items      []card.CardSummary
	Pagination ops.Pagination
	Sort       string
	Tier       string
	Tag        string
	Search     string
}

// DetailPageData is the template data for the card sheet page.
type DetailPageData struct {
	PageData
	Card      *card.StyleCard
	Prompt    string
	Evolution ops.Evolution
	SheetHTML template.HTML
}

// HandPageData is the template data for the hand page.
type HandPageData struct {
	PageData
	Items []card.CardSummary
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// markdown renders card sheets. GFM is needed for the parameter table.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	log       *logging.Logger
}

// NewRenderer parses the layout and every page template from templateFS.
func NewRenderer(templateFS fs.FS, version string, log *logging.Logger) (*Renderer, error) {
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatTime": formatTime,
		"tierClass":  func(t card.Tier) string { return "tier-" + strings.ToLower(string(t)) },
		"tiers":      func() []card.Tier { return card.Tiers },
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]string{
		"cards": "cards.html",
		"card":  "card.html",
		"hand":  "hand.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version, log: log}, nil
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given status.
// HTMX requests get only the "content" block.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.log.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes err as JSON for JSON clients, an HTML fragment for
// HTMX, or a full error page.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	if wantsJSON(req) {
		r.renderJSONError(w, req, err)
		return
	}

	aErr := r.resolve(req, err)
	status, message := aErr.Status, aErr.Message

	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

// renderJSONError writes err as {"error": {code, message, status}}.
// Used directly by the extension endpoints, which only speak JSON.
func (r *Renderer) renderJSONError(w http.ResponseWriter, req *http.Request, err error) {
	aErr := r.resolve(req, err)
	renderJSON(w, aErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(aErr.Code),
			"message": aErr.Message,
			"status":  aErr.Status,
		},
	})
}

// resolve finds the AtelierError in err, treating anything else as
// internal. Internal causes are logged, never shown.
func (r *Renderer) resolve(req *http.Request, err error) *errors.AtelierError {
	aErr, ok := errors.As(err)
	if !ok {
		aErr = errors.NewInternal(err)
	}
	if aErr.Code == errors.ErrInternal {
		r.log.Error("request failed", "path", req.URL.Path, "error", err)
	}
	return aErr
}

// wantsJSON reports whether the client asked for JSON, either via Accept
// or by sending a JSON body.
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(req.Header.Get("Content-Type"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer, so card names cannot inject markup.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(buf.String())
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}
