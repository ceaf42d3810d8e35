package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

const cardColumns = `
	id, name, segments_json, parameters_json, masking_json, tier,
	is_favorite, is_pinned, usage_count, tags_json, dominant_color,
	thumbnail_data, frame_id, genealogy_json, created_at, updated_at`

// Card sort orders accepted by QueryCards.
const (
	SortUpdated = "updated_at_desc"
	SortUsage   = "usage_count_desc"
	SortName    = "name_asc"
)

var sortClauses = map[string]string{
	SortUpdated: "updated_at DESC, id DESC",
	SortUsage:   "usage_count DESC, updated_at DESC, id DESC",
	SortName:    "name COLLATE NOCASE ASC, id ASC",
}

// CardQuery filters QueryCards. Zero values mean "no filter".
type CardQuery struct {
	Pinned   *bool
	Favorite *bool
	Tier     card.Tier
	Tag      string
	// Search matches a case-insensitive substring of the card name.
	Search string
	Sort   string
	Limit  int
	Offset int
}

// cardArgs flattens a card into the column order of cardColumns.
func cardArgs(c *card.StyleCard) ([]any, error) {
	segments, err := toJSON(c.Segments)
	if err != nil {
		return nil, err
	}
	params, err := toJSON(c.Parameters)
	if err != nil {
		return nil, err
	}
	masking, err := toJSON(c.Masking)
	if err != nil {
		return nil, err
	}
	genealogy, err := toJSON(c.Genealogy)
	if err != nil {
		return nil, err
	}
	tags, err := toNullJSON(c.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		c.ID, c.Name, segments, params, masking, string(c.Tier),
		boolToInt(c.IsFavorite), boolToInt(c.IsPinned), c.UsageCount, tags, c.DominantColor,
		c.ThumbnailData, c.FrameID, genealogy, c.CreatedAt, c.UpdatedAt,
	}, nil
}

// InsertCard stores a new card. Returns ALREADY_EXISTS if the ID is taken.
func (s *Store) InsertCard(ctx context.Context, c *card.StyleCard) error {
	args, err := cardArgs(c)
	if err != nil {
		return err
	}
	query := `INSERT INTO style_cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewAlreadyExists("card", c.ID)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// PutCard inserts or fully replaces a card. Last write wins.
func (s *Store) PutCard(ctx context.Context, c *card.StyleCard) error {
	args, err := cardArgs(c)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO style_cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			segments_json = excluded.segments_json,
			parameters_json = excluded.parameters_json,
			masking_json = excluded.masking_json,
			tier = excluded.tier,
			is_favorite = excluded.is_favorite,
			is_pinned = excluded.is_pinned,
			usage_count = excluded.usage_count,
			tags_json = excluded.tags_json,
			dominant_color = excluded.dominant_color,
			thumbnail_data = excluded.thumbnail_data,
			frame_id = excluded.frame_id,
			genealogy_json = excluded.genealogy_json,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetCard retrieves a card by its ULID.
func (s *Store) GetCard(ctx context.Context, id string) (*card.StyleCard, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM style_cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("card", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// CardExists reports whether a card with the given ID is stored.
func (s *Store) CardExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, `SELECT 1 FROM style_cards WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// DeleteCard removes a card. Children keep their parent IDs as dangling
// weak references.
func (s *Store) DeleteCard(ctx context.Context, id string) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM style_cards WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return expectOneRow(result, "card", id)
}

// QueryCards returns one page of cards matching q plus the total match count.
func (s *Store) QueryCards(ctx context.Context, q CardQuery) ([]*card.StyleCard, int, error) {
	var (
		where []string
		args  []any
	)
	if q.Pinned != nil {
		where = append(where, "is_pinned = ?")
		args = append(args, boolToInt(*q.Pinned))
	}
	if q.Favorite != nil {
		where = append(where, "is_favorite = ?")
		args = append(args, boolToInt(*q.Favorite))
	}
	if q.Tier != "" {
		where = append(where, "tier = ?")
		args = append(args, string(q.Tier))
	}
	if tag := strings.TrimSpace(q.Tag); tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(style_cards.tags_json) WHERE json_each.value = ?)")
		args = append(args, tag)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(search)+"%")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM style_cards`+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	order, ok := sortClauses[q.Sort]
	if !ok {
		order = sortClauses[SortUpdated]
	}
	query := `SELECT ` + cardColumns + ` FROM style_cards` + clause + ` ORDER BY ` + order
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, max(q.Offset, 0))
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	cards := []*card.StyleCard{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return cards, total, nil
}

// StreamCards calls fn for every stored card in creation order, stopping at
// the first error. Context cancellation surfaces as CANCELLED.
func (s *Store) StreamCards(ctx context.Context, fn func(*card.StyleCard) error) error {
	rows, err := s.q.QueryContext(ctx, `SELECT `+cardColumns+` FROM style_cards ORDER BY created_at ASC, id ASC`)
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelled("stream")
		}
		return errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		select {
		case <-ctx.Done():
			return errors.NewCancelled("stream")
		default:
		}
		c, err := scanCard(rows)
		if err != nil {
			return errors.NewInternal(err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelled("stream")
		}
		return errors.NewInternal(err)
	}
	return nil
}

// SetPinned places a card in (or removes it from) the hand.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool, now int64) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE style_cards SET is_pinned = ?, updated_at = ? WHERE id = ?`,
		boolToInt(pinned), now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return expectOneRow(result, "card", id)
}

// ClearPinned empties the hand and returns how many cards were unpinned.
func (s *Store) ClearPinned(ctx context.Context, now int64) (int, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE style_cards SET is_pinned = 0, updated_at = ? WHERE is_pinned = 1`, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// IncrementUsage bumps a card's usage count in place and returns the new value.
func (s *Store) IncrementUsage(ctx context.Context, id string, now int64) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx,
		`UPDATE style_cards SET usage_count = usage_count + 1, updated_at = ? WHERE id = ? RETURNING usage_count`,
		now, id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, errors.NewNotFound("card", id)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

func expectOneRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound(kind, id)
	}
	return nil
}

// scanCard scans a single row into a StyleCard.
func scanCard(row scanner) (*card.StyleCard, error) {
	var (
		c                                    card.StyleCard
		segments, params, masking, genealogy string
		tier                                 string
		favorite, pinned                     int
		tags                                 sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.Name, &segments, &params, &masking, &tier,
		&favorite, &pinned, &c.UsageCount, &tags, &c.DominantColor,
		&c.ThumbnailData, &c.FrameID, &genealogy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Tier = card.Tier(tier)
	c.IsFavorite = favorite != 0
	c.IsPinned = pinned != 0

	if err := json.Unmarshal([]byte(segments), &c.Segments); err != nil {
		return nil, fmt.Errorf("segments_json: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &c.Parameters); err != nil {
		return nil, fmt.Errorf("parameters_json: %w", err)
	}
	if err := json.Unmarshal([]byte(masking), &c.Masking); err != nil {
		return nil, fmt.Errorf("masking_json: %w", err)
	}
	if err := json.Unmarshal([]byte(genealogy), &c.Genealogy); err != nil {
		return nil, fmt.Errorf("genealogy_json: %w", err)
	}
	if c.Genealogy.ParentIDs == nil {
		c.Genealogy.ParentIDs = []string{}
	}
	if c.Segments == nil {
		c.Segments = []prompt.Segment{}
	}
	if c.Tags, err = fromNullJSON(tags); err != nil {
		return nil, fmt.Errorf("tags_json: %w", err)
	}
	return &c, nil
}
