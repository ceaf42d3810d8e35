package ops

import (
	"context"
	"slices"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

// ComposeMode selects how workbench cards are combined.
type ComposeMode string

const (
	// ComposeJoin renders each card's prompt and joins them with ", ".
	ComposeJoin ComposeMode = "join"
	// ComposeMix merges all segments and parameters and renders once.
	ComposeMix ComposeMode = "mix"
)

// ComposeInput contains parameters for the Compose operation.
type ComposeInput struct {
	// CardIDs are the workbench cards in placement order. Only cards in the
	// hand are used; empty means the whole hand.
	CardIDs []string
	Mode    ComposeMode // default: join

	// Fill substitutes slot labels with values; unfilled slots render as {{label}}.
	Fill map[string]string

	// Use records one use on every composed card.
	Use bool
}

// ComposeOutput contains the result of the Compose operation.
type ComposeOutput struct {
	Prompt  string      `json:"prompt"`
	Mode    ComposeMode `json:"mode"`
	CardIDs []string    `json:"card_ids"`
	// Skipped lists requested IDs that are missing or not in the hand.
	Skipped []string `json:"skipped,omitempty"`
}

// Compose assembles hand cards on the workbench into one prompt.
// An empty workbench yields an empty prompt, not an error.
func Compose(ctx context.Context, store *db.Store, cfg *config.Config, input ComposeInput) (*ComposeOutput, error) {
	mode := input.Mode
	if mode == "" {
		mode = ComposeJoin
	}
	if mode != ComposeJoin && mode != ComposeMix {
		return nil, errors.NewInvalidRequest("mode must be one of: join, mix")
	}

	cards, skipped, err := workbenchCards(ctx, store, cleanIDs(input.CardIDs))
	if err != nil {
		return nil, err
	}

	out := &ComposeOutput{Mode: mode, CardIDs: make([]string, 0, len(cards)), Skipped: skipped}
	for _, c := range cards {
		c.Segments = fillSlots(c.Segments, input.Fill)
		out.CardIDs = append(out.CardIDs, c.ID)
	}

	switch mode {
	case ComposeMix:
		out.Prompt = mixPrompt(cards, cfg)
	default:
		out.Prompt = joinPrompt(cards)
	}

	if input.Use {
		for _, c := range cards {
			if _, err := store.IncrementUsage(ctx, c.ID, now().Unix()); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func workbenchCards(ctx context.Context, store *db.Store, ids []string) ([]*card.StyleCard, []string, error) {
	if len(ids) == 0 {
		cards, err := handCards(ctx, store)
		return cards, nil, err
	}

	var (
		cards   []*card.StyleCard
		skipped []string
	)
	for _, id := range ids {
		c, err := store.GetCard(ctx, id)
		if errors.Is(err, errors.ErrNotFound) {
			skipped = append(skipped, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if !c.IsPinned {
			skipped = append(skipped, id)
			continue
		}
		cards = append(cards, c)
	}
	return cards, skipped, nil
}

func joinPrompt(cards []*card.StyleCard) string {
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		if p := card.ExportPrompt(c); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, prompt.SegmentSeparator)
}

// mixPrompt merges every card into a single command. A key masked on any
// card stays masked in the result.
func mixPrompt(cards []*card.StyleCard, cfg *config.Config) string {
	if len(cards) == 0 {
		return ""
	}
	var (
		segments []prompt.Segment
		masked   []prompt.ParamKey
	)
	for _, c := range cards {
		segments = append(segments, c.Segments...)
		for _, k := range c.Masking.MaskedKeys() {
			if !slices.Contains(masked, k) {
				masked = append(masked, k)
			}
		}
	}
	maxRefs := card.DefaultMaxReferenceImages
	if cfg != nil && cfg.MaxReferenceImages > 0 {
		maxRefs = cfg.MaxReferenceImages
	}
	return prompt.Build(prompt.MergeSegments(segments), card.CombineParameters(cards, maxRefs), masked...)
}

// fillSlots replaces slots whose label has a non-blank fill value with text.
func fillSlots(segments []prompt.Segment, fill map[string]string) []prompt.Segment {
	if len(fill) == 0 {
		return segments
	}
	out := slices.Clone(segments)
	for i, s := range out {
		if s.Type != prompt.SegmentSlot {
			continue
		}
		if v, ok := fill[s.Label]; ok && strings.TrimSpace(v) != "" {
			out[i] = prompt.Text(strings.TrimSpace(v))
		}
	}
	return out
}
