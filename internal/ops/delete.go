package ops

import (
	"context"
	"strings"

	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
)

// DeleteInput contains parameters for the DeleteCard operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the DeleteCard operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteCard removes a card from the library. Children minted from it keep
// the dangling parent ID, and decks keep listing it until edited.
func DeleteCard(ctx context.Context, store *db.Store, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := store.DeleteCard(ctx, id); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      id,
	}, nil
}
