package card

import (
	"fmt"
	"time"

	"github.com/styleatelier/atelier/internal/prompt"
)

// Mint defaults.
const (
	DefaultName          = "New Card"
	DefaultFrameID       = "default"
	DefaultDominantColor = "#ffffff"
	DefaultCreatorID     = "user"
	MaxAutoNameRunes     = 20
)

// MintInput describes a card to be minted from a history item.
type MintInput struct {
	ID      string
	History *HistoryItem

	// Segments overrides the parsed body (the user may have edited it).
	// Nil means "parse History.FullCommand".
	Segments []prompt.Segment

	Name      string
	Masking   Masking
	Tags      []string
	FrameID   string
	CreatorID string
	Now       time.Time
}

// Mint builds a first-generation Common card from a history item.
// Parameters always come from the raw command; segments come from the
// input when given. The name falls back to the first text segment, then the
// first keyword, then DefaultName.
func Mint(in MintInput) *StyleCard {
	parsed := prompt.Parse(in.History.FullCommand)

	segments := parsed.Segments
	if in.Segments != nil {
		segments = validSegments(in.Segments)
	}

	frame := in.FrameID
	if frame == "" {
		frame = DefaultFrameID
	}
	creator := in.CreatorID
	if creator == "" {
		creator = DefaultCreatorID
	}

	ts := in.Now.Unix()
	return &StyleCard{
		ID:            in.ID,
		Name:          mintName(in.Name, segments, in.History.FullCommand),
		CreatedAt:     ts,
		UpdatedAt:     ts,
		Segments:      segments,
		Parameters:    parsed.Parameters,
		Masking:       in.Masking,
		Tier:          TierCommon,
		Tags:          NormalizeTags(in.Tags),
		DominantColor: DefaultDominantColor,
		ThumbnailData: in.History.ImageURL,
		FrameID:       frame,
		Genealogy: Genealogy{
			Generation:      1,
			ParentIDs:       []string{},
			OriginCreatorID: creator,
			MutationNote:    fmt.Sprintf("Minted from history item %s", in.History.ID),
		},
	}
}

func mintName(explicit string, segments []prompt.Segment, raw string) string {
	if name := Truncate(explicit, 200); name != "" {
		return name
	}
	if len(segments) > 0 && segments[0].Type == prompt.SegmentText {
		if name := Truncate(segments[0].Value, MaxAutoNameRunes); name != "" {
			return name
		}
	}
	if kws := prompt.ExtractKeywords(raw); len(kws) > 0 {
		return Truncate(kws[0], MaxAutoNameRunes)
	}
	return DefaultName
}

// validSegments drops segments of unknown variants. The result is never nil.
func validSegments(segs []prompt.Segment) []prompt.Segment {
	out := make([]prompt.Segment, 0, len(segs))
	for _, s := range segs {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}
