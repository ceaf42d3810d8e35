package card

import (
	"strings"

	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/prompt"
)

// ExportPrompt renders the card's canonical command with its masked keys
// left out. This is the string handed to the page injector.
func ExportPrompt(c *StyleCard) string {
	return prompt.Build(c.Segments, c.Parameters, c.Masking.MaskedKeys()...)
}

// ExportRecord represents a card record in JSONL export format.
// The header line sets AtelierExport and the schema fields; card lines
// carry the card.
type ExportRecord struct {
	// Header detection field - true only for header line
	AtelierExport bool `json:"_atelier_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	StyleCard
}

// CardToExportRecord converts a StyleCard to an ExportRecord for export.
func CardToExportRecord(c *StyleCard) *ExportRecord {
	return &ExportRecord{StyleCard: *c.Clone()}
}

// ToCard validates an imported record and returns a sanitized card.
// Unknown segment variants are dropped, tags renormalized, out-of-range
// parameters cleared and an unknown tier reset to Common.
func (r *ExportRecord) ToCard() (*StyleCard, error) {
	c := r.StyleCard.Clone()
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = DefaultName
	}

	if c.Segments == nil {
		c.Segments = []prompt.Segment{}
	}
	c.Segments = validSegments(c.Segments)
	c.Parameters = sanitizeParameters(c.Parameters)
	c.Tags = NormalizeTags(c.Tags)

	if _, ok := ParseTier(string(c.Tier)); !ok {
		c.Tier = TierCommon
	}
	if c.UsageCount < 0 {
		c.UsageCount = 0
	}
	if c.Genealogy.Generation < 1 {
		c.Genealogy.Generation = 1
	}
	if c.Genealogy.ParentIDs == nil {
		c.Genealogy.ParentIDs = []string{}
	}
	if c.FrameID == "" {
		c.FrameID = DefaultFrameID
	}
	if c.DominantColor == "" {
		c.DominantColor = DefaultDominantColor
	}
	return c, nil
}

// sanitizeParameters enforces the ParameterSet invariants on data that did
// not come through the parser.
func sanitizeParameters(p prompt.Parameters) prompt.Parameters {
	p.AR = strings.TrimSpace(p.AR)
	p.Sref = prompt.UniqueTokens(p.Sref)
	p.Cref = prompt.UniqueTokens(p.Cref)
	p.P = prompt.UniqueTokens(p.P)
	if !p.Has(prompt.KeyStylize) {
		p.Stylize = nil
	}
	if !p.Has(prompt.KeyChaos) {
		p.Chaos = nil
	}
	if !p.Has(prompt.KeyWeird) {
		p.Weird = nil
	}
	return p
}
