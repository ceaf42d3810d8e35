package ops

import (
	"context"
	"regexp"
	"strings"

	"github.com/styleatelier/atelier/internal/card"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SlotToggle converts the segment at Index between text and slot.
type SlotToggle struct {
	Index int    `json:"index"`
	Label string `json:"label,omitempty"`
}

// UpdateInput contains parameters for the UpdateCard operation.
// Body edits apply in order: Segments, AppendText, ToggleSlot.
type UpdateInput struct {
	ID string // required

	// Editable fields (nil = don't change)
	Name          *string
	Tags          *[]string
	HideSref      *bool
	HideP         *bool
	Favorite      *bool
	DominantColor *string
	FrameID       *string
	Segments      *[]prompt.Segment
	AppendText    *string
	ToggleSlot    *SlotToggle

	// Flags replaces the parameter set with the flags parsed from this
	// string (e.g. "--ar 2:3 --stylize 250"). Empty clears all parameters.
	Flags *string
}

// UpdateOutput contains the result of the UpdateCard operation.
type UpdateOutput struct {
	Card   *card.StyleCard `json:"card"`
	Prompt string          `json:"prompt"`
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Tags == nil && in.HideSref == nil && in.HideP == nil &&
		in.Favorite == nil && in.DominantColor == nil && in.FrameID == nil &&
		in.Segments == nil && in.AppendText == nil && in.ToggleSlot == nil && in.Flags == nil
}

// UpdateCard edits a card's metadata, masking or prompt recipe.
func UpdateCard(ctx context.Context, store *db.Store, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.empty() {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	c, err := store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.NewInvalidRequest("name must not be empty")
		}
		c.Name = name
	}
	if input.Tags != nil {
		c.Tags = card.NormalizeTags(*input.Tags)
	}
	if input.HideSref != nil {
		c.Masking.HideSref = *input.HideSref
	}
	if input.HideP != nil {
		c.Masking.HideP = *input.HideP
	}
	if input.Favorite != nil {
		c.IsFavorite = *input.Favorite
	}
	if input.DominantColor != nil {
		color := strings.TrimSpace(*input.DominantColor)
		if !hexColorRegex.MatchString(color) {
			return nil, errors.NewInvalidRequest("dominant_color must be a #rrggbb hex color")
		}
		c.DominantColor = strings.ToLower(color)
	}
	if input.FrameID != nil {
		frame := strings.TrimSpace(*input.FrameID)
		if frame == "" {
			frame = card.DefaultFrameID
		}
		c.FrameID = frame
	}

	if input.Segments != nil {
		if err := validateSegments(*input.Segments); err != nil {
			return nil, err
		}
		c.Segments = append([]prompt.Segment{}, *input.Segments...)
	}
	if input.AppendText != nil {
		c.Segments = prompt.AppendTyped(c.Segments, *input.AppendText)
	}
	if t := input.ToggleSlot; t != nil {
		if t.Index < 0 || t.Index >= len(c.Segments) {
			return nil, errors.NewInvalidRequest("toggle_slot index out of range")
		}
		if c.Segments[t.Index].Type == prompt.SegmentChip {
			return nil, errors.NewInvalidRequest("chips cannot become slots")
		}
		c.Segments = prompt.ToggleSlot(c.Segments, t.Index, t.Label)
	}
	if input.Flags != nil {
		c.Parameters = prompt.ParseParameters(*input.Flags)
	}

	c.UpdatedAt = now().Unix()
	if err := store.PutCard(ctx, c); err != nil {
		return nil, err
	}

	return &UpdateOutput{Card: c, Prompt: card.ExportPrompt(c)}, nil
}
