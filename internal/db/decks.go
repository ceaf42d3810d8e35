package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/errors"
)

// PutDeck inserts or replaces a deck.
func (s *Store) PutDeck(ctx context.Context, d *card.Deck) error {
	ids := d.CardIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := toJSON(ids)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO decks (id, name, card_ids_json, theme_color, last_used_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			card_ids_json = excluded.card_ids_json,
			theme_color = excluded.theme_color,
			last_used_at = excluded.last_used_at
	`, d.ID, d.Name, idsJSON, toNullString(d.ThemeColor), d.LastUsedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetDeck retrieves a deck by ID.
func (s *Store) GetDeck(ctx context.Context, id string) (*card.Deck, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, card_ids_json, theme_color, last_used_at
		FROM decks WHERE id = ?
	`, id)
	d, err := scanDeck(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("deck", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// QueryDecks returns every deck, most recently used first.
func (s *Store) QueryDecks(ctx context.Context) ([]*card.Deck, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, card_ids_json, theme_color, last_used_at
		FROM decks
		ORDER BY last_used_at DESC, id DESC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	decks := []*card.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return decks, nil
}

func scanDeck(row scanner) (*card.Deck, error) {
	var (
		d       card.Deck
		idsJSON string
		theme   sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Name, &idsJSON, &theme, &d.LastUsedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &d.CardIDs); err != nil {
		return nil, err
	}
	if d.CardIDs == nil {
		d.CardIDs = []string{}
	}
	d.ThemeColor = fromNullString(theme)
	return &d, nil
}
