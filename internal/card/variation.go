package card

import (
	"strings"
	"time"

	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

// DefaultMaxReferenceImages caps the merged sref and cref lists.
const DefaultMaxReferenceImages = 5

// CombineParameters merges the parameter sets of parents. The first parent's
// set is the base. Each later parent's sref and cref tokens are placed in
// front of the accumulated list, so the most recently added parent wins when
// the list is capped at maxRefs. Other keys come from the first parent only.
func CombineParameters(parents []*StyleCard, maxRefs int) prompt.Parameters {
	if len(parents) == 0 {
		return prompt.Parameters{}
	}
	if maxRefs <= 0 {
		maxRefs = DefaultMaxReferenceImages
	}

	merged := parents[0].Parameters.Clone()
	for _, p := range parents[1:] {
		if len(p.Parameters.Sref) > 0 {
			merged.Sref = capRefs(append(append([]string{}, p.Parameters.Sref...), merged.Sref...), maxRefs)
		}
		if len(p.Parameters.Cref) > 0 {
			merged.Cref = capRefs(append(append([]string{}, p.Parameters.Cref...), merged.Cref...), maxRefs)
		}
	}
	return merged
}

func capRefs(tokens []string, limit int) []string {
	out := prompt.UniqueTokens(tokens)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// VariationInput describes a card derived from one or more parents.
type VariationInput struct {
	ID            string
	Name          string
	Parents       []*StyleCard
	ThumbnailData string
	MaxRefs       int
	Now           time.Time
}

// NewVariation combines parents into a new Common card one generation past
// the deepest parent. The first parent supplies masking, color and origin.
func NewVariation(in VariationInput) (*StyleCard, error) {
	if len(in.Parents) == 0 {
		return nil, errors.NewInvalidRequest("at least one parent card is required")
	}
	lead := in.Parents[0]

	var (
		all       []prompt.Segment
		tags      []string
		names     []string
		parentIDs []string
		gen       int
	)
	for _, p := range in.Parents {
		all = append(all, p.Segments...)
		tags = append(tags, p.Tags...)
		names = append(names, p.Name)
		parentIDs = append(parentIDs, p.ID)
		gen = max(gen, p.Genealogy.Generation)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = lead.Name + " Variant"
	}
	thumb := in.ThumbnailData
	if thumb == "" {
		thumb = lead.ThumbnailData
	}

	ts := in.Now.Unix()
	return &StyleCard{
		ID:            in.ID,
		Name:          name,
		CreatedAt:     ts,
		UpdatedAt:     ts,
		Segments:      prompt.MergeSegments(all),
		Parameters:    CombineParameters(in.Parents, in.MaxRefs),
		Masking:       lead.Masking,
		Tier:          TierCommon,
		Tags:          NormalizeTags(tags),
		DominantColor: lead.DominantColor,
		ThumbnailData: thumb,
		FrameID:       DefaultFrameID,
		Genealogy: Genealogy{
			Generation:      gen + 1,
			ParentIDs:       parentIDs,
			OriginCreatorID: lead.Genealogy.OriginCreatorID,
			MutationNote:    "Combined from " + strings.Join(names, " and "),
		},
	}, nil
}
