package mcp

import "github.com/mark3labs/mcp-go/mcp"

// segmentSchema describes one prompt segment in tool input schemas.
var segmentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type":    map[string]any{"type": "string", "enum": []string{"text", "slot", "chip"}},
		"value":   map[string]any{"type": "string", "description": "Text, or the chip's reference token"},
		"label":   map[string]any{"type": "string", "description": "Slot label, rendered as {{label}}"},
		"default": map[string]any{"type": "string", "description": "Slot fallback value"},
		"kind":    map[string]any{"type": "string", "enum": []string{"sref", "cref"}},
	},
	"required": []string{"type"},
}

var stringItems = map[string]any{"type": "string"}

var captureSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"html":      map[string]any{"type": "string"},
		"text":      map[string]any{"type": "string"},
		"alt":       map[string]any{"type": "string"},
		"job_id":    map[string]any{"type": "string"},
		"page_url":  map[string]any{"type": "string"},
		"image_url": map[string]any{"type": "string"},
	},
}

var parametersSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"ar":      map[string]any{"type": "string"},
		"sref":    map[string]any{"type": "array", "items": stringItems},
		"cref":    map[string]any{"type": "array", "items": stringItems},
		"p":       map[string]any{"type": "array", "items": stringItems},
		"stylize": map[string]any{"type": "integer", "minimum": 0, "maximum": 1000},
		"chaos":   map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"weird":   map[string]any{"type": "integer", "minimum": 0, "maximum": 3000},
		"tile":    map[string]any{"type": "boolean"},
		"raw":     map[string]any{"type": "boolean"},
	},
}

// Prompt tools

var promptParseToolDef = mcp.NewTool("prompt_parse",
	mcp.WithDescription("Split a raw generation command into text segments and structured parameters. Never fails; malformed values are dropped."),
	mcp.WithString("command", mcp.Required(), mcp.Description("Raw command text, e.g. \"neon cat, rainy street --ar 16:9\"")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var promptBuildToolDef = mcp.NewTool("prompt_build",
	mcp.WithDescription("Rebuild the canonical command from segments and parameters, leaving out masked keys."),
	mcp.WithArray("segments", mcp.Items(segmentSchema), mcp.Description("Prompt body segments in order")),
	mcp.WithObject("parameters", mcp.Properties(parametersSchema["properties"].(map[string]any)), mcp.Description("Structured parameter set")),
	mcp.WithArray("masked", mcp.Items(stringItems), mcp.Description("Parameter keys to omit (e.g. sref, p)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var promptMergeToolDef = mcp.NewTool("prompt_merge",
	mcp.WithDescription("Merge segment lists, dropping repeated text (case-insensitive) and keeping first occurrences. Pass segments, raw commands, or both."),
	mcp.WithArray("segments", mcp.Items(segmentSchema)),
	mcp.WithArray("commands", mcp.Items(stringItems), mcp.Description("Raw commands whose bodies are parsed and appended in order")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var promptKeywordsToolDef = mcp.NewTool("prompt_keywords",
	mcp.WithDescription("Suggest naming and tagging keywords from a raw command or a captured history item."),
	mcp.WithString("command", mcp.Description("Raw command text")),
	mcp.WithString("history_id", mcp.Description("History item (job) ID; use instead of command")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var promptAppendToolDef = mcp.NewTool("prompt_append",
	mcp.WithDescription("Split typed text on prompt delimiters and append one text segment per token."),
	mcp.WithArray("segments", mcp.Items(segmentSchema)),
	mcp.WithString("text", mcp.Required(), mcp.Description("Typed text, e.g. \"glowing eyes, 35mm\"")),
	mcp.WithReadOnlyHintAnnotation(true),
)

// History tools

var historyCaptureToolDef = mcp.NewTool("history_capture",
	mcp.WithDescription("Record one generation from a scraped job card (html) or explicit fields. A job already captured returns the stored item with created=false."),
	mcp.WithString("html", mcp.Description("Job card HTML fragment")),
	mcp.WithString("text", mcp.Description("Command text; overrides what html yields")),
	mcp.WithString("alt", mcp.Description("Image alt text, used when text has no parameters")),
	mcp.WithString("job_id", mcp.Description("Job UUID; recovered from page_url or image_url when omitted")),
	mcp.WithString("page_url"),
	mcp.WithString("image_url"),
	mcp.WithString("related_card_id", mcp.Description("Card used for this generation, if any")),
)

var historyCaptureBatchToolDef = mcp.NewTool("history_capture_batch",
	mcp.WithDescription("Record many generations at once. Bad items are reported per index without failing the batch."),
	mcp.WithArray("items", mcp.Required(), mcp.Items(captureSchema), mcp.Description("Captures, at most 50")),
)

var historyListToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List captured history items, newest first."),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 200)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

// Card tools

var cardMintToolDef = mcp.NewTool("card_mint",
	mcp.WithDescription("Mint a new Common card from a history item."),
	mcp.WithString("history_id", mcp.Required()),
	mcp.WithString("name", mcp.Description("Defaults to the first text segment")),
	mcp.WithArray("segments", mcp.Items(segmentSchema), mcp.Description("Edited body; defaults to the parsed command")),
	mcp.WithArray("tags", mcp.Items(stringItems)),
	mcp.WithBoolean("hide_sref", mcp.Description("Seal style references out of the exported prompt")),
	mcp.WithBoolean("hide_p", mcp.Description("Seal personalization codes out of the exported prompt")),
	mcp.WithString("frame_id"),
)

var cardFetchToolDef = mcp.NewTool("card_fetch",
	mcp.WithDescription("Fetch a card with its injectable prompt and evolution status."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithReadOnlyHintAnnotation(true),
)

var cardListToolDef = mcp.NewTool("card_list",
	mcp.WithDescription("List card summaries with filters and pagination."),
	mcp.WithString("tier", mcp.Enum("Common", "Rare", "Epic", "Legendary")),
	mcp.WithString("tag"),
	mcp.WithString("search", mcp.Description("Substring of the card name")),
	mcp.WithBoolean("favorite"),
	mcp.WithBoolean("pinned"),
	mcp.WithString("sort", mcp.Enum("updated_at_desc", "usage_count_desc", "name_asc")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset"),
	mcp.WithReadOnlyHintAnnotation(true),
)

var cardUpdateToolDef = mcp.NewTool("card_update",
	mcp.WithDescription("Edit a card. Body edits apply in order: segments, append_text, toggle_slot."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithString("name"),
	mcp.WithArray("tags", mcp.Items(stringItems)),
	mcp.WithBoolean("hide_sref"),
	mcp.WithBoolean("hide_p"),
	mcp.WithBoolean("favorite"),
	mcp.WithString("dominant_color", mcp.Description("#rrggbb")),
	mcp.WithString("frame_id"),
	mcp.WithArray("segments", mcp.Items(segmentSchema)),
	mcp.WithString("append_text", mcp.Description("Typed text appended as new segments")),
	mcp.WithObject("toggle_slot",
		mcp.Properties(map[string]any{
			"index": map[string]any{"type": "integer", "minimum": 0},
			"label": map[string]any{"type": "string"},
		}),
		mcp.Description("Flip the segment at index between text and slot"),
	),
	mcp.WithString("flags", mcp.Description("Replace all parameters with these flags, e.g. \"--ar 2:3\"")),
)

var cardDeleteToolDef = mcp.NewTool("card_delete",
	mcp.WithDescription("Permanently delete a card."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithDestructiveHintAnnotation(true),
)

var cardEvolveToolDef = mcp.NewTool("card_evolve",
	mcp.WithDescription("Advance a card one tier once its usage reaches the threshold."),
	mcp.WithString("id", mcp.Required()),
)

var cardVaryToolDef = mcp.NewTool("card_vary",
	mcp.WithDescription("Combine parent cards into a new next-generation card."),
	mcp.WithArray("parent_ids", mcp.Required(), mcp.Items(stringItems), mcp.Description("Parents; the first is the lead")),
	mcp.WithString("name"),
	mcp.WithString("thumbnail_data"),
)

var cardUseToolDef = mcp.NewTool("card_use",
	mcp.WithDescription("Return a card's injectable prompt and record one use."),
	mcp.WithString("id", mcp.Required()),
)

var cardExportToolDef = mcp.NewTool("card_export",
	mcp.WithDescription("Export cards to a JSONL file (default ~/.atelier/exports/<label>-<timestamp>.jsonl)."),
	mcp.WithString("path"),
	mcp.WithArray("card_ids", mcp.Items(stringItems), mcp.Description("Restrict to these cards")),
	mcp.WithBoolean("hand_only", mcp.Description("Restrict to cards in the hand")),
	mcp.WithString("label", mcp.Description("Default file name prefix")),
)

var cardImportToolDef = mcp.NewTool("card_import",
	mcp.WithDescription("Import cards from a JSONL export. mode=error is all-or-nothing."),
	mcp.WithString("path", mcp.Required()),
	mcp.WithString("mode", mcp.Enum("error", "replace", "skip")),
)

// Hand tools

var handPinToolDef = mcp.NewTool("hand_pin",
	mcp.WithDescription("Place a card in the hand."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithIdempotentHintAnnotation(true),
)

var handUnpinToolDef = mcp.NewTool("hand_unpin",
	mcp.WithDescription("Remove a card from the hand."),
	mcp.WithString("id", mcp.Required()),
	mcp.WithIdempotentHintAnnotation(true),
)

var handListToolDef = mcp.NewTool("hand_list",
	mcp.WithDescription("List the cards in the hand."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var handClearToolDef = mcp.NewTool("hand_clear",
	mcp.WithDescription("Unpin every card."),
)

// Workbench tools

var workbenchComposeToolDef = mcp.NewTool("workbench_compose",
	mcp.WithDescription("Assemble hand cards into one prompt. join renders each card and joins with \", \"; mix merges all segments and parameters."),
	mcp.WithArray("card_ids", mcp.Items(stringItems), mcp.Description("Workbench order; defaults to the whole hand")),
	mcp.WithString("mode", mcp.Enum("join", "mix")),
	mcp.WithObject("fill", mcp.AdditionalProperties(stringItems), mcp.Description("Slot label to value")),
	mcp.WithBoolean("use", mcp.Description("Record one use on every composed card")),
)

// Deck tools

var deckCreateToolDef = mcp.NewTool("deck_create",
	mcp.WithDescription("Create a named deck of cards."),
	mcp.WithString("name", mcp.Required()),
	mcp.WithArray("card_ids", mcp.Items(stringItems)),
	mcp.WithString("theme_color", mcp.Description("#rrggbb")),
)

var deckListToolDef = mcp.NewTool("deck_list",
	mcp.WithDescription("List decks, most recently used first."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deckAddToolDef = mcp.NewTool("deck_add",
	mcp.WithDescription("Append cards to a deck."),
	mcp.WithString("deck_id", mcp.Required()),
	mcp.WithArray("card_ids", mcp.Required(), mcp.Items(stringItems)),
)
