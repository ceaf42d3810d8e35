package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

// MintInput contains parameters for the Mint operation.
type MintInput struct {
	HistoryID string // required

	// Segments replaces the parsed body when the user edited it before minting.
	Segments []prompt.Segment
	Name     string
	Tags     []string
	HideSref bool
	HideP    bool
	FrameID  string
}

// MintOutput contains the result of the Mint operation.
type MintOutput struct {
	Card   *card.StyleCard `json:"card"`
	Prompt string          `json:"prompt"`
}

// Mint turns a captured history item into a new first-generation card.
func Mint(ctx context.Context, store *db.Store, cfg *config.Config, input MintInput) (*MintOutput, error) {
	historyID := strings.TrimSpace(input.HistoryID)
	if historyID == "" {
		return nil, errors.NewInvalidRequest("history_id is required")
	}
	if input.Segments != nil {
		if err := validateSegments(input.Segments); err != nil {
			return nil, err
		}
	}

	item, err := store.GetHistory(ctx, historyID)
	if err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	frame := strings.TrimSpace(input.FrameID)
	if frame == "" && cfg != nil {
		frame = cfg.DefaultFrameID
	}

	c := card.Mint(card.MintInput{
		ID:       id,
		History:  item,
		Segments: input.Segments,
		Name:     input.Name,
		Masking:  card.Masking{HideSref: input.HideSref, HideP: input.HideP},
		Tags:     input.Tags,
		FrameID:  frame,
		Now:      now(),
	})
	if err := store.InsertCard(ctx, c); err != nil {
		return nil, err
	}

	return &MintOutput{Card: c, Prompt: card.ExportPrompt(c)}, nil
}

// validateSegments rejects caller-supplied segments that break the
// Segment invariants.
func validateSegments(segments []prompt.Segment) error {
	for i, s := range segments {
		if !s.Valid() {
			return errors.NewInvalidRequest(fmt.Sprintf("invalid segment at index %d", i))
		}
	}
	return nil
}
