package ops

import (
	"context"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// FetchInput contains parameters for the FetchCard operation.
type FetchInput struct {
	ID string // required
}

// Evolution describes how far a card is from its next tier.
type Evolution struct {
	NextTier  card.Tier `json:"next_tier,omitempty"`
	Required  int       `json:"required,omitempty"`
	CanEvolve bool      `json:"can_evolve"`
}

// FetchOutput contains the result of the FetchCard operation.
type FetchOutput struct {
	Card      *card.StyleCard `json:"card"`
	Prompt    string          `json:"prompt"`
	Evolution Evolution       `json:"evolution"`
}

// FetchCard retrieves a card with its injectable prompt and evolution status.
func FetchCard(ctx context.Context, store *db.Store, cfg *config.Config, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	c, err := store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{
		Card:      c,
		Prompt:    card.ExportPrompt(c),
		Evolution: evolutionStatus(c, thresholds(cfg)),
	}, nil
}

func evolutionStatus(c *card.StyleCard, th card.Thresholds) Evolution {
	next, ok := card.NextTier(c.Tier)
	if !ok {
		return Evolution{}
	}
	return Evolution{
		NextTier:  next,
		Required:  th.Required(c.Tier),
		CanEvolve: card.CanEvolve(c, th),
	}
}
