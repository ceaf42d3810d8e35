package card

import (
	"fmt"
	"strings"
	"time"

	"github.com/styleatelier/atelier/internal/errors"
)

// Tier is a card's rarity. Cards advance one tier at a time as they are used.
type Tier string

const (
	TierCommon    Tier = "Common"
	TierRare      Tier = "Rare"
	TierEpic      Tier = "Epic"
	TierLegendary Tier = "Legendary"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierCommon, TierRare, TierEpic, TierLegendary}

// ParseTier returns the Tier named by s, ignoring case.
func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// NextTier returns the tier after t. ok is false at the top tier or for an
// unknown tier.
func NextTier(t Tier) (next Tier, ok bool) {
	switch t {
	case TierCommon:
		return TierRare, true
	case TierRare:
		return TierEpic, true
	case TierEpic:
		return TierLegendary, true
	}
	return "", false
}

// Thresholds maps a tier to the usage count required to leave it.
type Thresholds map[Tier]int

// DefaultThresholds returns the standard usage requirements.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TierCommon: 10,
		TierRare:   30,
		TierEpic:   100,
	}
}

// Required returns the usage needed to leave t. Tiers with no configured
// value fall back to the defaults.
func (th Thresholds) Required(t Tier) int {
	if n, ok := th[t]; ok {
		return n
	}
	return DefaultThresholds()[t]
}

// CanEvolve reports whether c has a next tier and enough uses to reach it.
func CanEvolve(c *StyleCard, th Thresholds) bool {
	if _, ok := NextTier(c.Tier); !ok {
		return false
	}
	return c.UsageCount >= th.Required(c.Tier)
}

// Evolve advances c one tier in place and appends a mutation note.
// It returns the new tier, or an error when c is at the top tier or has
// not been used enough.
func Evolve(c *StyleCard, th Thresholds, now time.Time) (Tier, error) {
	next, ok := NextTier(c.Tier)
	if !ok {
		return "", errors.NewMaxTier(string(c.Tier))
	}
	if required := th.Required(c.Tier); c.UsageCount < required {
		return "", errors.NewEvolutionLocked(string(c.Tier), c.UsageCount, required)
	}

	note := fmt.Sprintf("Evolved from %s to %s at %s", c.Tier, next, now.UTC().Format(time.RFC3339))
	c.Genealogy.MutationNote = appendNote(c.Genealogy.MutationNote, note)
	c.Tier = next
	c.UpdatedAt = now.Unix()
	return next, nil
}

func appendNote(existing, note string) string {
	return strings.TrimSpace(existing + "\n" + note)
}
