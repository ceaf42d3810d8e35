package ops

import (
	"context"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// UseInput contains parameters for the UseCard operation.
type UseInput struct {
	ID string // required
}

// UseOutput contains the result of the UseCard operation.
type UseOutput struct {
	ID         string    `json:"id"`
	Prompt     string    `json:"prompt"`
	UsageCount int       `json:"usage_count"`
	Evolution  Evolution `json:"evolution"`
}

// UseCard returns a card's injectable prompt and records one use.
func UseCard(ctx context.Context, store *db.Store, cfg *config.Config, input UseInput) (*UseOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	count, err := store.IncrementUsage(ctx, id, now().Unix())
	if err != nil {
		return nil, err
	}
	c, err := store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	c.UsageCount = count

	return &UseOutput{
		ID:         c.ID,
		Prompt:     card.ExportPrompt(c),
		UsageCount: count,
		Evolution:  evolutionStatus(c, thresholds(cfg)),
	}, nil
}
