package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/logging"
	"github.com/styleatelier/atelier/internal/ops"
	"github.com/styleatelier/atelier/internal/prompt"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *db.Store
	cfg   *config.Config
	log   *logging.Logger
}

// NewHandlers creates a new Handlers instance. A nil logger discards output.
func NewHandlers(store *db.Store, cfg *config.Config, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.Nop()
	}
	return &Handlers{store: store, cfg: cfg, log: log}
}

// Request types for each tool

// PromptParseRequest represents the arguments for prompt_parse.
type PromptParseRequest struct {
	Command string `json:"command"`
}

// PromptBuildRequest represents the arguments for prompt_build.
type PromptBuildRequest struct {
	Segments   []prompt.Segment  `json:"segments,omitempty"`
	Parameters prompt.Parameters `json:"parameters"`
	Masked     []string          `json:"masked,omitempty"`
}

// PromptMergeRequest represents the arguments for prompt_merge.
type PromptMergeRequest struct {
	Segments []prompt.Segment `json:"segments,omitempty"`
	Commands []string         `json:"commands,omitempty"`
}

// PromptKeywordsRequest represents the arguments for prompt_keywords.
type PromptKeywordsRequest struct {
	Command   string `json:"command,omitempty"`
	HistoryID string `json:"history_id,omitempty"`
}

// PromptAppendRequest represents the arguments for prompt_append.
type PromptAppendRequest struct {
	Segments []prompt.Segment `json:"segments,omitempty"`
	Text     string           `json:"text"`
}

// CaptureBatchRequest represents the arguments for history_capture_batch.
type CaptureBatchRequest struct {
	Items []ops.CaptureInput `json:"items"`
}

// HistoryListRequest represents the arguments for history_list.
type HistoryListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// MintRequest represents the arguments for card_mint.
type MintRequest struct {
	HistoryID string           `json:"history_id"`
	Name      string           `json:"name,omitempty"`
	Segments  []prompt.Segment `json:"segments,omitempty"`
	Tags      []string         `json:"tags,omitempty"`
	HideSref  bool             `json:"hide_sref,omitempty"`
	HideP     bool             `json:"hide_p,omitempty"`
	FrameID   string           `json:"frame_id,omitempty"`
}

// IDRequest represents the arguments for tools addressing one card.
type IDRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for card_list.
type ListRequest struct {
	Tier     string `json:"tier,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Search   string `json:"search,omitempty"`
	Favorite *bool  `json:"favorite,omitempty"`
	Pinned   *bool  `json:"pinned,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// UpdateRequest represents the arguments for card_update.
type UpdateRequest struct {
	ID            string            `json:"id"`
	Name          *string           `json:"name,omitempty"`
	Tags          *[]string         `json:"tags,omitempty"`
	HideSref      *bool             `json:"hide_sref,omitempty"`
	HideP         *bool             `json:"hide_p,omitempty"`
	Favorite      *bool             `json:"favorite,omitempty"`
	DominantColor *string           `json:"dominant_color,omitempty"`
	FrameID       *string           `json:"frame_id,omitempty"`
	Segments      *[]prompt.Segment `json:"segments,omitempty"`
	AppendText    *string           `json:"append_text,omitempty"`
	ToggleSlot    *ops.SlotToggle   `json:"toggle_slot,omitempty"`
	Flags         *string           `json:"flags,omitempty"`
}

// VaryRequest represents the arguments for card_vary.
type VaryRequest struct {
	ParentIDs     []string `json:"parent_ids"`
	Name          string   `json:"name,omitempty"`
	ThumbnailData string   `json:"thumbnail_data,omitempty"`
}

// ExportRequest represents the arguments for card_export.
type ExportRequest struct {
	Path     string   `json:"path,omitempty"`
	CardIDs  []string `json:"card_ids,omitempty"`
	HandOnly bool     `json:"hand_only,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// ImportRequest represents the arguments for card_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// ComposeRequest represents the arguments for workbench_compose.
type ComposeRequest struct {
	CardIDs []string          `json:"card_ids,omitempty"`
	Mode    string            `json:"mode,omitempty"`
	Fill    map[string]string `json:"fill,omitempty"`
	Use     bool              `json:"use,omitempty"`
}

// DeckCreateRequest represents the arguments for deck_create.
type DeckCreateRequest struct {
	Name       string   `json:"name"`
	CardIDs    []string `json:"card_ids,omitempty"`
	ThemeColor *string  `json:"theme_color,omitempty"`
}

// DeckAddRequest represents the arguments for deck_add.
type DeckAddRequest struct {
	DeckID  string   `json:"deck_id"`
	CardIDs []string `json:"card_ids"`
}

// Prompt handlers. These are pure and never touch the store.

// HandlePromptParse handles the prompt_parse tool call.
func (h *Handlers) HandlePromptParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptParseRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(prompt.Parse(input.Command))
}

// HandlePromptBuild handles the prompt_build tool call.
func (h *Handlers) HandlePromptBuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptBuildRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}
	if err := validateSegments(input.Segments); err != nil {
		return h.fail(req, err), nil
	}
	masked, err := parseMaskedKeys(input.Masked)
	if err != nil {
		return h.fail(req, err), nil
	}

	return successResult(map[string]any{
		"prompt": prompt.Build(input.Segments, input.Parameters, masked...),
	})
}

// HandlePromptMerge handles the prompt_merge tool call.
func (h *Handlers) HandlePromptMerge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptMergeRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}
	if err := validateSegments(input.Segments); err != nil {
		return h.fail(req, err), nil
	}

	all := append([]prompt.Segment(nil), input.Segments...)
	for _, command := range input.Commands {
		all = append(all, prompt.Parse(command).Segments...)
	}
	merged := prompt.MergeSegments(all)

	return successResult(map[string]any{
		"segments": merged,
		"body":     prompt.Body(merged),
	})
}

// HandlePromptKeywords handles the prompt_keywords tool call.
func (h *Handlers) HandlePromptKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptKeywordsRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.SuggestKeywords(ctx, h.store, ops.KeywordsInput{
		Command:   input.Command,
		HistoryID: input.HistoryID,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandlePromptAppend handles the prompt_append tool call.
func (h *Handlers) HandlePromptAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptAppendRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}
	if err := validateSegments(input.Segments); err != nil {
		return h.fail(req, err), nil
	}

	segments := prompt.AppendTyped(input.Segments, input.Text)
	return successResult(map[string]any{
		"segments": segments,
		"body":     prompt.Body(segments),
	})
}

// History handlers

// HandleCapture handles the history_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.CaptureInput](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.Capture(ctx, h.store, input)
	if err != nil {
		return h.fail(req, err), nil
	}
	h.log.Debug("captured", "job_id", result.Item.ID, "created", result.Created)
	return successResult(result)
}

// HandleCaptureBatch handles the history_capture_batch tool call.
func (h *Handlers) HandleCaptureBatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureBatchRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.CaptureBatch(ctx, h.store, input.Items)
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleHistoryList handles the history_list tool call.
func (h *Handlers) HandleHistoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryListRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.ListHistory(ctx, h.store, ops.ListHistoryInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// Card handlers

// HandleMint handles the card_mint tool call.
func (h *Handlers) HandleMint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MintRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.Mint(ctx, h.store, h.cfg, ops.MintInput{
		HistoryID: input.HistoryID,
		Segments:  input.Segments,
		Name:      input.Name,
		Tags:      input.Tags,
		HideSref:  input.HideSref,
		HideP:     input.HideP,
		FrameID:   input.FrameID,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	h.log.Info("card minted", "id", result.Card.ID, "history_id", input.HistoryID)
	return successResult(result)
}

// HandleFetch handles the card_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.FetchCard(ctx, h.store, h.cfg, ops.FetchInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleList handles the card_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.ListCards(ctx, h.store, ops.ListInput{
		Tier:     input.Tier,
		Tag:      input.Tag,
		Search:   input.Search,
		Favorite: input.Favorite,
		Pinned:   input.Pinned,
		Sort:     input.Sort,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleUpdate handles the card_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.UpdateCard(ctx, h.store, ops.UpdateInput{
		ID:            input.ID,
		Name:          input.Name,
		Tags:          input.Tags,
		HideSref:      input.HideSref,
		HideP:         input.HideP,
		Favorite:      input.Favorite,
		DominantColor: input.DominantColor,
		FrameID:       input.FrameID,
		Segments:      input.Segments,
		AppendText:    input.AppendText,
		ToggleSlot:    input.ToggleSlot,
		Flags:         input.Flags,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleDelete handles the card_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.DeleteCard(ctx, h.store, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	h.log.Info("card deleted", "id", result.ID)
	return successResult(result)
}

// HandleEvolve handles the card_evolve tool call.
func (h *Handlers) HandleEvolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.Evolve(ctx, h.store, h.cfg, ops.EvolveInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	h.log.Info("card evolved", "id", result.ID, "from", result.From, "to", result.To)
	return successResult(result)
}

// HandleVary handles the card_vary tool call.
func (h *Handlers) HandleVary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[VaryRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.CreateVariation(ctx, h.store, h.cfg, ops.VariationInput{
		ParentIDs:     input.ParentIDs,
		Name:          input.Name,
		ThumbnailData: input.ThumbnailData,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleUse handles the card_use tool call.
func (h *Handlers) HandleUse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.UseCard(ctx, h.store, h.cfg, ops.UseInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleExport handles the card_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.ExportCards(ctx, h.store, h.cfg, ops.ExportInput{
		Path:     input.Path,
		CardIDs:  input.CardIDs,
		HandOnly: input.HandOnly,
		Label:    input.Label,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	h.log.Info("cards exported", "count", result.Count)
	return successResult(result)
}

// HandleImport handles the card_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}
	mode, err := parseImportMode(input.Mode)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.ImportCards(ctx, h.store, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: mode,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	h.log.Info("cards imported", "imported", result.Imported, "skipped", result.Skipped, "errors", len(result.Errors))
	return successResult(result)
}

// Hand handlers

// HandlePin handles the hand_pin tool call.
func (h *Handlers) HandlePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.Pin(ctx, h.store, ops.PinInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleUnpin handles the hand_unpin tool call.
func (h *Handlers) HandleUnpin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.Unpin(ctx, h.store, ops.PinInput{ID: input.ID})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleHandList handles the hand_list tool call.
func (h *Handlers) HandleHandList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListHand(ctx, h.store)
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleHandClear handles the hand_clear tool call.
func (h *Handlers) HandleHandClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ClearHand(ctx, h.store)
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleCompose handles the workbench_compose tool call.
func (h *Handlers) HandleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ComposeRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.Compose(ctx, h.store, h.cfg, ops.ComposeInput{
		CardIDs: input.CardIDs,
		Mode:    ops.ComposeMode(input.Mode),
		Fill:    input.Fill,
		Use:     input.Use,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// Deck handlers

// HandleDeckCreate handles the deck_create tool call.
func (h *Handlers) HandleDeckCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeckCreateRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.CreateDeck(ctx, h.store, ops.CreateDeckInput{
		Name:       input.Name,
		CardIDs:    input.CardIDs,
		ThemeColor: input.ThemeColor,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleDeckList handles the deck_list tool call.
func (h *Handlers) HandleDeckList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListDecks(ctx, h.store)
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// HandleDeckAdd handles the deck_add tool call.
func (h *Handlers) HandleDeckAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeckAddRequest](req)
	if err != nil {
		return h.fail(req, err), nil
	}

	result, err := ops.AddToDeck(ctx, h.store, ops.AddToDeckInput{
		DeckID:  input.DeckID,
		CardIDs: input.CardIDs,
	})
	if err != nil {
		return h.fail(req, err), nil
	}
	return successResult(result)
}

// validateSegments rejects segments with an unknown variant.
func validateSegments(segments []prompt.Segment) error {
	if err := prompt.ValidateSegments(segments); err != nil {
		return errors.NewInvalidRequest(err.Error())
	}
	return nil
}

// parseMaskedKeys maps masked key names to parameter keys.
func parseMaskedKeys(names []string) ([]prompt.ParamKey, error) {
	keys, err := prompt.ParseMaskedKeys(names)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return keys, nil
}

func parseImportMode(s string) (ops.ImportMode, error) {
	switch m := ops.ImportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ops.ImportModeError, nil
	case ops.ImportModeError, ops.ImportModeReplace, ops.ImportModeSkip:
		return m, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("invalid mode %q: must be error, replace, or skip", s))
}

// fail logs internal failures with their cause and builds the error result.
func (h *Handlers) fail(req mcp.CallToolRequest, err error) *mcp.CallToolResult {
	if aErr, ok := errors.As(err); !ok || aErr.Code == errors.ErrInternal {
		h.log.Error("tool failed", "tool", req.Params.Name, "error", err)
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    errors.ErrInternal,
		"message": "an internal error occurred",
		"status":  500,
	}
	if aErr, ok := errors.As(err); ok {
		msg := aErr.Message
		// Keep wrapper context such as "items[2]: ".
		if full := err.Error(); full != aErr.Error() {
			msg = strings.TrimSuffix(full, aErr.Error()) + aErr.Message
		}
		errorObj["code"] = aErr.Code
		errorObj["message"] = msg
		errorObj["status"] = aErr.Status
		// Internal details carry SQL errors and file paths.
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
