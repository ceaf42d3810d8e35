package prompt

import "strings"

// SegmentType identifies which variant of Segment is populated.
type SegmentType string

const (
	SegmentText SegmentType = "text"
	SegmentSlot SegmentType = "slot"
	SegmentChip SegmentType = "chip"
)

// ChipKind is the image-reference parameter a chip stands for.
type ChipKind string

const (
	ChipSref ChipKind = "sref"
	ChipCref ChipKind = "cref"
)

// Segment is one unit of a structured prompt body.
// Only the fields of the variant named by Type are meaningful:
//   - text: Value
//   - slot: Label, Default
//   - chip: Kind, Value
type Segment struct {
	Type    SegmentType `json:"type"`
	Value   string      `json:"value,omitempty"`
	Label   string      `json:"label,omitempty"`
	Default string      `json:"default,omitempty"`
	Kind    ChipKind    `json:"kind,omitempty"`
}

// Text returns a literal text segment.
func Text(value string) Segment {
	return Segment{Type: SegmentText, Value: value}
}

// Slot returns a named placeholder with a fallback value.
func Slot(label, def string) Segment {
	return Segment{Type: SegmentSlot, Label: label, Default: def}
}

// Chip returns an inline image-reference token.
func Chip(kind ChipKind, value string) Segment {
	return Segment{Type: SegmentChip, Kind: kind, Value: value}
}

// Render returns the segment's contribution to the prompt body.
// Slots render as {{label}}; chips render as nothing because their
// parameter is emitted from the ParameterSet instead.
func (s Segment) Render() string {
	switch s.Type {
	case SegmentText:
		return s.Value
	case SegmentSlot:
		return "{{" + s.Label + "}}"
	default:
		return ""
	}
}

// Valid reports whether the segment carries a known variant.
func (s Segment) Valid() bool {
	switch s.Type {
	case SegmentText:
		return true
	case SegmentSlot:
		return strings.TrimSpace(s.Label) != ""
	case SegmentChip:
		return s.Kind == ChipSref || s.Kind == ChipCref
	}
	return false
}

// ToggleSlot flips the segment at index between text and slot.
// A text segment becomes a slot labelled label (or its own text when label
// is blank) that keeps the old text as its default. A slot turns back into
// text holding its default, or its label when the default is empty.
// Chips and out-of-range indexes leave the sequence unchanged.
// The input slice is never modified.
func ToggleSlot(segments []Segment, index int, label string) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	if index < 0 || index >= len(out) {
		return out
	}

	s := out[index]
	switch s.Type {
	case SegmentText:
		label = strings.TrimSpace(label)
		if label == "" {
			label = strings.TrimSpace(s.Value)
		}
		if label == "" {
			return out
		}
		out[index] = Slot(label, s.Value)
	case SegmentSlot:
		value := s.Default
		if strings.TrimSpace(value) == "" {
			value = s.Label
		}
		out[index] = Text(value)
	}
	return out
}
