package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/logging"
	"github.com/styleatelier/atelier/internal/ops"
	"github.com/styleatelier/atelier/internal/prompt"
)

// maxBodyBytes caps JSON request bodies. Scraped job-card HTML is the
// largest thing the extension sends.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the extension API and the
// library pages.
type Handlers struct {
	store    *db.Store
	cfg      *config.Config
	log      *logging.Logger
	renderer *Renderer

	// sheets caches rendered card sheets by card revision.
	sheets *cache.Cache
	// captures throttles POST /captures.
	captures *rate.Limiter
}

// captureRequest is a single capture, or a batch when Items is set.
type captureRequest struct {
	ops.CaptureInput
	Items []ops.CaptureInput `json:"items,omitempty"`
}

type promptParseRequest struct {
	Command string `json:"command"`
}

type promptBuildRequest struct {
	Segments   []prompt.Segment  `json:"segments"`
	Parameters prompt.Parameters `json:"parameters"`
	Masked     []string          `json:"masked"`
}

type promptAppendRequest struct {
	Segments []prompt.Segment `json:"segments"`
	Text     string           `json:"text"`
}

type composeRequest struct {
	CardIDs []string          `json:"card_ids"`
	Mode    string            `json:"mode"`
	Fill    map[string]string `json:"fill"`
	Use     bool              `json:"use"`
}

// HandleCapture handles POST /captures: record one scraped generation, or
// a batch under "items". Rate limited per server.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if !h.captures.Allow() {
		h.renderer.renderJSONError(w, r, errors.NewRateLimited("captures"))
		return
	}

	var req captureRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if len(req.Items) > 0 {
		result, err := ops.CaptureBatch(r.Context(), h.store, req.Items)
		if err != nil {
			h.renderer.renderJSONError(w, r, err)
			return
		}
		h.log.Info("capture batch", "created", result.Created, "failed", result.Failed)
		renderJSON(w, http.StatusOK, result)
		return
	}

	result, err := ops.Capture(r.Context(), h.store, req.CaptureInput)
	if err != nil {
		h.renderer.renderJSONError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		h.log.Info("captured", "job_id", result.Item.ID)
	}
	renderJSON(w, status, result)
}

// HandlePromptParse handles POST /prompt/parse.
func (h *Handlers) HandlePromptParse(w http.ResponseWriter, r *http.Request) {
	var req promptParseRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	renderJSON(w, http.StatusOK, prompt.Parse(req.Command))
}

// HandlePromptBuild handles POST /prompt/build.
func (h *Handlers) HandlePromptBuild(w http.ResponseWriter, r *http.Request) {
	var req promptBuildRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := prompt.ValidateSegments(req.Segments); err != nil {
		h.renderer.renderJSONError(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}
	masked, err := prompt.ParseMaskedKeys(req.Masked)
	if err != nil {
		h.renderer.renderJSONError(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"prompt": prompt.Build(req.Segments, req.Parameters, masked...),
	})
}

// HandlePromptAppend handles POST /prompt/append: the token input of the
// card editor.
func (h *Handlers) HandlePromptAppend(w http.ResponseWriter, r *http.Request) {
	var req promptAppendRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := prompt.ValidateSegments(req.Segments); err != nil {
		h.renderer.renderJSONError(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}

	segments := prompt.AppendTyped(req.Segments, req.Text)
	renderJSON(w, http.StatusOK, map[string]any{
		"segments": segments,
		"body":     prompt.Body(segments),
	})
}

// HandleList handles GET /cards.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListInput{
		Tier:     q.Get("tier"),
		Tag:      q.Get("tag"),
		Search:   q.Get("search"),
		Favorite: parseBoolPtr(r, "favorite"),
		Pinned:   parseBoolPtr(r, "pinned"),
		Sort:     q.Get("sort"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}

	result, err := ops.ListCards(r.Context(), h.store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "cards", ListPageData{
		PageData: PageData{
			Title:   "Cards",
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Sort:       result.Sort,
		Tier:       input.Tier,
		Tag:        input.Tag,
		Search:     input.Search,
	})
}

// HandleDetail handles GET /cards/{id}: the card sheet.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	result, err := ops.FetchCard(r.Context(), h.store, h.cfg, ops.FetchInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "card", DetailPageData{
		PageData: PageData{
			Title:   result.Card.Name,
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Card:      result.Card,
		Prompt:    result.Prompt,
		Evolution: result.Evolution,
		SheetHTML: h.sheetHTML(result.Card),
	})
}

// sheetHTML returns the rendered markdown sheet for c. Any edit bumps
// UpdatedAt, which changes the cache key.
func (h *Handlers) sheetHTML(c *card.StyleCard) template.HTML {
	key := fmt.Sprintf("%s@%d", c.ID, c.UpdatedAt)
	if cached, ok := h.sheets.Get(key); ok {
		return cached.(template.HTML)
	}
	html := renderMarkdown(card.Sheet(c))
	h.sheets.SetDefault(key, html)
	return html
}

// HandleCardPrompt handles GET /cards/{id}/prompt: the injection string,
// without recording a use.
func (h *Handlers) HandleCardPrompt(w http.ResponseWriter, r *http.Request) {
	result, err := ops.FetchCard(r.Context(), h.store, h.cfg, ops.FetchInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderJSONError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"id":     result.Card.ID,
		"prompt": result.Prompt,
	})
}

// HandleUse handles POST /cards/{id}/use: the injection string, counted.
func (h *Handlers) HandleUse(w http.ResponseWriter, r *http.Request) {
	result, err := ops.UseCard(r.Context(), h.store, h.cfg, ops.UseInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderJSONError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleHand handles GET /hand.
func (h *Handlers) HandleHand(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListHand(r.Context(), h.store)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "hand", HandPageData{
		PageData: PageData{
			Title:   "Hand",
			Version: h.renderer.version,
			Nav:     "hand",
		},
		Items: result.Items,
	})
}

// HandlePin handles PUT /hand/{id}.
func (h *Handlers) HandlePin(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Pin(r.Context(), h.store, ops.PinInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderJSONError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleUnpin handles DELETE /hand/{id}.
func (h *Handlers) HandleUnpin(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Unpin(r.Context(), h.store, ops.PinInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderJSONError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleCompose handles POST /workbench/compose.
func (h *Handlers) HandleCompose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	result, err := ops.Compose(r.Context(), h.store, h.cfg, ops.ComposeInput{
		CardIDs: req.CardIDs,
		Mode:    ops.ComposeMode(req.Mode),
		Fill:    req.Fill,
		Use:     req.Use,
	})
	if err != nil {
		h.renderer.renderJSONError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// decodeBody reads a JSON body into dst, writing a 400 or 413 on failure.
// Unknown fields are rejected so extension/server version skew shows up.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		h.renderer.renderJSONError(w, r, errors.NewFileTooLarge(tooLarge.Limit, tooLarge.Limit+1))
	case stderrors.Is(err, io.EOF):
		h.renderer.renderJSONError(w, r, errors.NewInvalidRequest("request body is required"))
	default:
		h.renderer.renderJSONError(w, r, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err)))
	}
	return false
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolPtr returns nil when the parameter is absent.
func parseBoolPtr(r *http.Request, name string) *bool {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil
	}
	v := s == "true" || s == "1"
	return &v
}
