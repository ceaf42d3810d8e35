package ops

import (
	"context"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// CreateDeckInput contains parameters for the CreateDeck operation.
type CreateDeckInput struct {
	Name       string // required
	CardIDs    []string
	ThemeColor *string
}

// DeckOutput wraps a deck returned by the deck operations.
type DeckOutput struct {
	Deck *card.Deck `json:"deck"`
}

// CreateDeck creates a named deck, optionally seeded with cards.
func CreateDeck(ctx context.Context, store *db.Store, input CreateDeckInput) (*DeckOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	theme := cleanOptional(input.ThemeColor)
	if theme != nil && !hexColorRegex.MatchString(*theme) {
		return nil, errors.NewInvalidRequest("theme_color must be a #rrggbb hex color")
	}

	ids := cleanIDs(input.CardIDs)
	if err := requireCards(ctx, store, ids); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	d := &card.Deck{
		ID:         id,
		Name:       name,
		CardIDs:    ids,
		ThemeColor: theme,
		LastUsedAt: now().Unix(),
	}
	if err := store.PutDeck(ctx, d); err != nil {
		return nil, err
	}
	return &DeckOutput{Deck: d}, nil
}

// ListDecksOutput contains the result of the ListDecks operation.
type ListDecksOutput struct {
	Items []*card.Deck `json:"items"`
	Sort  string       `json:"sort"`
}

// ListDecks returns all decks, most recently used first.
func ListDecks(ctx context.Context, store *db.Store) (*ListDecksOutput, error) {
	decks, err := store.QueryDecks(ctx)
	if err != nil {
		return nil, err
	}
	return &ListDecksOutput{Items: decks, Sort: "last_used_at_desc"}, nil
}

// AddToDeckInput contains parameters for the AddToDeck operation.
type AddToDeckInput struct {
	DeckID  string   // required
	CardIDs []string // required
}

// AddToDeck appends cards to a deck, skipping ones already in it, and marks
// the deck as used.
func AddToDeck(ctx context.Context, store *db.Store, input AddToDeckInput) (*DeckOutput, error) {
	deckID := strings.TrimSpace(input.DeckID)
	if deckID == "" {
		return nil, errors.NewInvalidRequest("deck_id is required")
	}
	ids := cleanIDs(input.CardIDs)
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequest("at least one card id is required")
	}

	d, err := store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if err := requireCards(ctx, store, ids); err != nil {
		return nil, err
	}

	d.CardIDs = cleanIDs(append(d.CardIDs, ids...))
	d.LastUsedAt = now().Unix()
	if err := store.PutDeck(ctx, d); err != nil {
		return nil, err
	}
	return &DeckOutput{Deck: d}, nil
}

func requireCards(ctx context.Context, store *db.Store, ids []string) error {
	for _, id := range ids {
		ok, err := store.CardExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewNotFound("card", id)
		}
	}
	return nil
}
