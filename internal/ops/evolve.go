package ops

import (
	"context"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// EvolveInput contains parameters for the Evolve operation.
type EvolveInput struct {
	ID string // required
}

// EvolveOutput contains the result of the Evolve operation.
type EvolveOutput struct {
	ID         string    `json:"id"`
	From       card.Tier `json:"from"`
	To         card.Tier `json:"to"`
	UsageCount int       `json:"usage_count"`
	Evolution  Evolution `json:"evolution"`
}

// Evolve advances a card one tier once it has been used enough.
func Evolve(ctx context.Context, store *db.Store, cfg *config.Config, input EvolveInput) (*EvolveOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	c, err := store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	th := thresholds(cfg)
	from := c.Tier
	to, err := card.Evolve(c, th, now())
	if err != nil {
		return nil, err
	}
	if err := store.PutCard(ctx, c); err != nil {
		return nil, err
	}

	return &EvolveOutput{
		ID:         c.ID,
		From:       from,
		To:         to,
		UsageCount: c.UsageCount,
		Evolution:  evolutionStatus(c, th),
	}, nil
}
