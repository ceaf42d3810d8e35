package ops

import (
	"context"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// PinInput contains parameters for the Pin and Unpin operations.
type PinInput struct {
	ID string // required
}

// PinOutput contains the result of the Pin and Unpin operations.
type PinOutput struct {
	ID       string `json:"id"`
	IsPinned bool   `json:"is_pinned"`
}

// Pin places a card in the hand.
func Pin(ctx context.Context, store *db.Store, input PinInput) (*PinOutput, error) {
	return setPinned(ctx, store, input.ID, true)
}

// Unpin removes a card from the hand.
func Unpin(ctx context.Context, store *db.Store, input PinInput) (*PinOutput, error) {
	return setPinned(ctx, store, input.ID, false)
}

func setPinned(ctx context.Context, store *db.Store, id string, pinned bool) (*PinOutput, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if err := store.SetPinned(ctx, id, pinned, now().Unix()); err != nil {
		return nil, err
	}
	return &PinOutput{ID: id, IsPinned: pinned}, nil
}

// ClearHandOutput contains the result of the ClearHand operation.
type ClearHandOutput struct {
	Unpinned int `json:"unpinned"`
}

// ClearHand unpins every card.
func ClearHand(ctx context.Context, store *db.Store) (*ClearHandOutput, error) {
	n, err := store.ClearPinned(ctx, now().Unix())
	if err != nil {
		return nil, err
	}
	return &ClearHandOutput{Unpinned: n}, nil
}

// ListHandOutput contains the result of the ListHand operation.
type ListHandOutput struct {
	Items []card.CardSummary `json:"items"`
	Count int                `json:"count"`
}

// ListHand returns every pinned card, most recently touched first.
func ListHand(ctx context.Context, store *db.Store) (*ListHandOutput, error) {
	cards, err := handCards(ctx, store)
	if err != nil {
		return nil, err
	}
	return &ListHandOutput{Items: summaries(cards), Count: len(cards)}, nil
}

func handCards(ctx context.Context, store *db.Store) ([]*card.StyleCard, error) {
	pinned := true
	cards, _, err := store.QueryCards(ctx, db.CardQuery{Pinned: &pinned, Sort: db.SortUpdated})
	return cards, err
}
