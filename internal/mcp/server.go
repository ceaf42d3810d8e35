package mcp

import (
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/logging"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"prompt", "history", "card", "hand", "workbench", "deck"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"prompt_parse":    {promptParseToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptParse }},
	"prompt_build":    {promptBuildToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptBuild }},
	"prompt_merge":    {promptMergeToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptMerge }},
	"prompt_keywords": {promptKeywordsToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptKeywords }},
	"prompt_append":   {promptAppendToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptAppend }},

	"history_capture":       {historyCaptureToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapture }},
	"history_capture_batch": {historyCaptureBatchToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCaptureBatch }},
	"history_list":          {historyListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryList }},

	"card_mint":   {cardMintToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleMint }},
	"card_fetch":  {cardFetchToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch }},
	"card_list":   {cardListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleList }},
	"card_update": {cardUpdateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate }},
	"card_delete": {cardDeleteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete }},
	"card_evolve": {cardEvolveToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleEvolve }},
	"card_vary":   {cardVaryToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleVary }},
	"card_use":    {cardUseToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleUse }},
	"card_export": {cardExportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport }},
	"card_import": {cardImportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport }},

	"hand_pin":   {handPinToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePin }},
	"hand_unpin": {handUnpinToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleUnpin }},
	"hand_list":  {handListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleHandList }},
	"hand_clear": {handClearToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleHandClear }},

	"workbench_compose": {workbenchComposeToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCompose }},

	"deck_create": {deckCreateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckCreate }},
	"deck_list":   {deckListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckList }},
	"deck_add":    {deckAddToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeckAdd }},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns the names in the list that match no tool.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns the names in the list that are not in KnownTypes.
func ValidateDisabledTypes(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(KnownTypes, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "card_mint" → "card").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	tools := make([]string, 0)
	for _, name := range AllToolNames() {
		if slices.Contains(types, GetTypeForTool(name)) {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server with the atelier tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are left out.
func NewServer(store *db.Store, cfg *config.Config, log *logging.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"atelier",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, cfg, log)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	registered := 0
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
		registered++
	}
	h.log.Debug("mcp tools registered", "count", registered, "disabled", len(disabled))

	return s
}

// Run serves the MCP tools over stdio until stdin closes.
func Run(store *db.Store, cfg *config.Config, log *logging.Logger, version string) error {
	return server.ServeStdio(NewServer(store, cfg, log, version))
}
