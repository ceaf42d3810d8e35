package ops

import (
	"context"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/db"
)

// ListHistoryInput contains parameters for the ListHistory operation.
type ListHistoryInput struct {
	Limit  int // default: 20, max: 200
	Offset int // default: 0
}

// ListHistoryOutput contains the result of the ListHistory operation.
type ListHistoryOutput struct {
	Items      []*card.HistoryItem `json:"items"`
	Pagination Pagination          `json:"pagination"`
	Sort       string              `json:"sort"`
}

// ListHistory retrieves captured history items, newest first.
func ListHistory(ctx context.Context, store *db.Store, input ListHistoryInput) (*ListHistoryOutput, error) {
	limit, offset := clampPage(input.Limit, input.Offset, MaxHistoryLimit)

	items, total, err := store.QueryHistory(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListHistoryOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "timestamp_desc",
	}, nil
}
