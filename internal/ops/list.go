package ops

import (
	"context"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// ListInput contains parameters for the ListCards operation.
type ListInput struct {
	Tier     string
	Tag      string
	Search   string
	Favorite *bool
	Pinned   *bool
	Sort     string // updated_at_desc (default), usage_count_desc, name_asc
	Limit    int    // default: 20, max: 100
	Offset   int    // default: 0
}

// ListOutput contains the result of the ListCards operation.
type ListOutput struct {
	Items      []card.CardSummary `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

// ListCards retrieves card summaries from the library with pagination.
func ListCards(ctx context.Context, store *db.Store, input ListInput) (*ListOutput, error) {
	query := db.CardQuery{
		Tag:      card.Normalize(input.Tag),
		Search:   input.Search,
		Favorite: input.Favorite,
		Pinned:   input.Pinned,
	}

	if input.Tier != "" {
		tier, ok := card.ParseTier(input.Tier)
		if !ok {
			return nil, errors.NewInvalidRequest("tier must be one of: Common, Rare, Epic, Legendary")
		}
		query.Tier = tier
	}

	switch input.Sort {
	case "":
		query.Sort = db.SortUpdated
	case db.SortUpdated, db.SortUsage, db.SortName:
		query.Sort = input.Sort
	default:
		return nil, errors.NewInvalidRequest("sort must be one of: updated_at_desc, usage_count_desc, name_asc")
	}

	query.Limit, query.Offset = clampPage(input.Limit, input.Offset, MaxListLimit)

	cards, total, err := store.QueryCards(ctx, query)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: summaries(cards),
		Pagination: Pagination{
			Limit:   query.Limit,
			Offset:  query.Offset,
			HasMore: query.Offset+len(cards) < total,
			Total:   total,
		},
		Sort: query.Sort,
	}, nil
}
