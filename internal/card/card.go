package card

import (
	"slices"

	"github.com/styleatelier/atelier/internal/prompt"
)

// StyleCard is a reusable prompt recipe minted from a capture or from a
// merge of parent cards.
type StyleCard struct {
	// ID is a ULID that uniquely identifies this card
	ID string `json:"id"`

	// Name is the display name (e.g. "Neon Cyber Cat")
	Name string `json:"name"`

	// CreatedAt is the Unix timestamp when the card was minted
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last change
	UpdatedAt int64 `json:"updated_at"`

	// Segments is the structured prompt body
	Segments []prompt.Segment `json:"prompt_segments"`

	// Parameters holds the structured --key flags
	Parameters prompt.Parameters `json:"parameters"`

	// Masking lists the keys sealed away when the prompt is exported
	Masking Masking `json:"masking"`

	Tier       Tier     `json:"tier"`
	IsFavorite bool     `json:"is_favorite"`
	IsPinned   bool     `json:"is_pinned"`
	UsageCount int      `json:"usage_count"`
	Tags       []string `json:"tags"`

	// DominantColor is a hex color used by the card frame (e.g. "#ff00ff")
	DominantColor string `json:"dominant_color"`

	// ThumbnailData is an image URL or inline data URI
	ThumbnailData string `json:"thumbnail_data"`

	// FrameID names the visual frame applied to the card
	FrameID string `json:"frame_id"`

	Genealogy Genealogy `json:"genealogy"`
}

// Masking records which privacy-sensitive parameters are suppressed when a
// card's prompt is exported or shared.
type Masking struct {
	HideSref bool `json:"hide_sref"`
	HideP    bool `json:"hide_p"`
}

// MaskedKeys returns the parameter keys to omit from rendered output.
func (m Masking) MaskedKeys() []prompt.ParamKey {
	var keys []prompt.ParamKey
	if m.HideSref {
		keys = append(keys, prompt.KeySref)
	}
	if m.HideP {
		keys = append(keys, prompt.KeyP)
	}
	return keys
}

// Genealogy is a card's derivation lineage. ParentIDs are weak references:
// a parent may be gone without invalidating the child.
type Genealogy struct {
	Generation      int      `json:"generation"`
	ParentIDs       []string `json:"parent_ids"`
	OriginCreatorID string   `json:"origin_creator_id,omitempty"`
	MutationNote    string   `json:"mutation_note,omitempty"`
}

// HistoryItem is a raw capture of one generation. It is immutable once
// stored and is the sole input for minting.
type HistoryItem struct {
	// ID is the external job identifier
	ID string `json:"id"`

	// FullCommand is the untouched raw command text
	FullCommand string `json:"full_command"`

	ImageURL string `json:"image_url"`

	// Timestamp is the Unix time of the capture
	Timestamp int64 `json:"timestamp"`

	// RelatedCardID is the card used for this generation, if known
	RelatedCardID *string `json:"related_card_id,omitempty"`
}

// Deck is an ordered, named collection of card IDs.
type Deck struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CardIDs    []string `json:"card_ids"`
	ThemeColor *string  `json:"theme_color,omitempty"`
	LastUsedAt int64    `json:"last_used_at"`
}

// Clone returns a deep copy of the card.
func (c *StyleCard) Clone() *StyleCard {
	out := *c
	out.Segments = slices.Clone(c.Segments)
	out.Parameters = c.Parameters.Clone()
	out.Tags = slices.Clone(c.Tags)
	out.Genealogy.ParentIDs = slices.Clone(c.Genealogy.ParentIDs)
	return &out
}

// CardSummary is a card without its prompt recipe or thumbnail.
// Used for browse operations (list, hand, deck views).
type CardSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Tier          Tier     `json:"tier"`
	IsFavorite    bool     `json:"is_favorite"`
	IsPinned      bool     `json:"is_pinned"`
	UsageCount    int      `json:"usage_count"`
	Tags          []string `json:"tags,omitempty"`
	DominantColor string   `json:"dominant_color"`
	FrameID       string   `json:"frame_id"`
	Generation    int      `json:"generation"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
}

// ToSummary strips the recipe and thumbnail.
func (c *StyleCard) ToSummary() CardSummary {
	return CardSummary{
		ID:            c.ID,
		Name:          c.Name,
		Tier:          c.Tier,
		IsFavorite:    c.IsFavorite,
		IsPinned:      c.IsPinned,
		UsageCount:    c.UsageCount,
		Tags:          c.Tags,
		DominantColor: c.DominantColor,
		FrameID:       c.FrameID,
		Generation:    c.Genealogy.Generation,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
