package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/config"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	MaxHistoryLimit  = 200
	MaxBatchCaptures = 50
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// now is the clock used for timestamps. Tests replace it.
var now = time.Now

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// clampPage applies limit defaults and bounds.
func clampPage(limit, offset, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, max(offset, 0)
}

// thresholds converts configured tier thresholds to the card domain,
// ignoring unknown tier names and non-positive counts.
func thresholds(cfg *config.Config) card.Thresholds {
	th := card.DefaultThresholds()
	if cfg == nil {
		return th
	}
	for name, n := range cfg.EvolutionThresholds {
		if tier, ok := card.ParseTier(name); ok && n > 0 {
			th[tier] = n
		}
	}
	return th
}

// cleanIDs trims, drops blanks and removes duplicates, keeping first-seen order.
func cleanIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func summaries(cards []*card.StyleCard) []card.CardSummary {
	out := make([]card.CardSummary, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ToSummary())
	}
	return out
}
