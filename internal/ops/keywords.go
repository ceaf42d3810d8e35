package ops

import (
	"context"
	"strings"

	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

// KeywordsInput contains parameters for the SuggestKeywords operation.
// Exactly one source must be given.
type KeywordsInput struct {
	Command   string
	HistoryID string
}

// KeywordsOutput contains the result of the SuggestKeywords operation.
type KeywordsOutput struct {
	Keywords []string `json:"keywords"`
}

// SuggestKeywords extracts candidate keywords from a raw command or a
// captured history item.
func SuggestKeywords(ctx context.Context, store *db.Store, input KeywordsInput) (*KeywordsOutput, error) {
	command := input.Command
	historyID := strings.TrimSpace(input.HistoryID)

	switch {
	case strings.TrimSpace(command) != "" && historyID != "":
		return nil, errors.NewInvalidRequest("specify either command or history_id, not both")
	case historyID != "":
		if store == nil {
			return nil, errors.NewInvalidRequest("history lookup is unavailable")
		}
		item, err := store.GetHistory(ctx, historyID)
		if err != nil {
			return nil, err
		}
		command = item.FullCommand
	case strings.TrimSpace(command) == "":
		return nil, errors.NewInvalidRequest("command or history_id is required")
	}

	return &KeywordsOutput{Keywords: prompt.ExtractKeywords(command)}, nil
}
