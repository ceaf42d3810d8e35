package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/errors"
)

// PutHistory stores a captured history item. History is immutable: if an
// item with the same job ID already exists it is left untouched and
// inserted reports false.
func (s *Store) PutHistory(ctx context.Context, h *card.HistoryItem) (inserted bool, err error) {
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO history_items (id, full_command, image_url, timestamp, related_card_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, h.ID, h.FullCommand, h.ImageURL, h.Timestamp, toNullString(h.RelatedCardID))
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// GetHistory retrieves a history item by job ID.
func (s *Store) GetHistory(ctx context.Context, id string) (*card.HistoryItem, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, full_command, image_url, timestamp, related_card_id
		FROM history_items WHERE id = ?
	`, id)
	h, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("history item", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return h, nil
}

// QueryHistory returns history items newest first plus the total count.
// A non-positive limit returns every item.
func (s *Store) QueryHistory(ctx context.Context, limit, offset int) ([]*card.HistoryItem, int, error) {
	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_items`).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, full_command, image_url, timestamp, related_card_id
		FROM history_items
		ORDER BY timestamp DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, max(offset, 0))
	}

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	items := []*card.HistoryItem{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return items, total, nil
}

func scanHistory(row scanner) (*card.HistoryItem, error) {
	var (
		h       card.HistoryItem
		related sql.NullString
	)
	if err := row.Scan(&h.ID, &h.FullCommand, &h.ImageURL, &h.Timestamp, &related); err != nil {
		return nil, err
	}
	h.RelatedCardID = fromNullString(related)
	return &h, nil
}
