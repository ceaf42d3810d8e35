package ops

import (
	"context"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// MaxVariationParents bounds how many cards can be combined at once.
const MaxVariationParents = 10

// VariationInput contains parameters for the CreateVariation operation.
type VariationInput struct {
	// ParentIDs lists the cards to combine; the first is the lead parent.
	ParentIDs     []string
	Name          string
	ThumbnailData string
}

// VariationOutput contains the result of the CreateVariation operation.
type VariationOutput struct {
	Card   *card.StyleCard `json:"card"`
	Prompt string          `json:"prompt"`
}

// CreateVariation mints a new card by combining existing cards.
func CreateVariation(ctx context.Context, store *db.Store, cfg *config.Config, input VariationInput) (*VariationOutput, error) {
	ids := cleanIDs(input.ParentIDs)
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequest("at least one parent card is required")
	}
	if len(ids) > MaxVariationParents {
		return nil, errors.NewInvalidRequest("too many parent cards")
	}

	parents := make([]*card.StyleCard, 0, len(ids))
	for _, id := range ids {
		p, err := store.GetCard(ctx, id)
		if err != nil {
			return nil, err
		}
		parents = append(parents, p)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	maxRefs := card.DefaultMaxReferenceImages
	if cfg != nil && cfg.MaxReferenceImages > 0 {
		maxRefs = cfg.MaxReferenceImages
	}

	c, err := card.NewVariation(card.VariationInput{
		ID:            id,
		Name:          input.Name,
		Parents:       parents,
		ThumbnailData: input.ThumbnailData,
		MaxRefs:       maxRefs,
		Now:           now(),
	})
	if err != nil {
		return nil, err
	}
	if cfg != nil && cfg.DefaultFrameID != "" {
		c.FrameID = cfg.DefaultFrameID
	}
	if err := store.InsertCard(ctx, c); err != nil {
		return nil, err
	}

	return &VariationOutput{Card: c, Prompt: card.ExportPrompt(c)}, nil
}
