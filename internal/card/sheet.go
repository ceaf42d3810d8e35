package card

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/styleatelier/atelier/internal/prompt"
)

// Sheet renders a card as a markdown document for display.
func Sheet(c *StyleCard) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", c.Name)
	fmt.Fprintf(&sb, "**Tier:** %s | **Uses:** %d | **Generation:** %d", c.Tier, c.UsageCount, c.Genealogy.Generation)
	if c.IsPinned {
		sb.WriteString(" | in hand")
	}
	if c.IsFavorite {
		sb.WriteString(" | favorite")
	}
	sb.WriteString("\n\n")

	sb.WriteString("## Prompt\n\n```\n")
	sb.WriteString(ExportPrompt(c))
	sb.WriteString("\n```\n\n")

	if len(c.Segments) > 0 {
		sb.WriteString("## Segments\n\n")
		for _, s := range c.Segments {
			switch s.Type {
			case prompt.SegmentText:
				fmt.Fprintf(&sb, "- %s\n", s.Value)
			case prompt.SegmentSlot:
				fmt.Fprintf(&sb, "- `{{%s}}` (default: %s)\n", s.Label, s.Default)
			case prompt.SegmentChip:
				fmt.Fprintf(&sb, "- %s chip: `%s`\n", s.Kind, s.Value)
			}
		}
		sb.WriteString("\n")
	}

	if rows := parameterRows(c); len(rows) > 0 {
		sb.WriteString("## Parameters\n\n| Key | Value |\n| --- | --- |\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "| %s | %s |\n", r[0], r[1])
		}
		sb.WriteString("\n")
	}

	if len(c.Tags) > 0 {
		sb.WriteString("## Tags\n\n")
		for i, t := range c.Tags {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "`%s`", t)
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Genealogy\n\n")
	if len(c.Genealogy.ParentIDs) > 0 {
		fmt.Fprintf(&sb, "Parents: %s\n\n", strings.Join(c.Genealogy.ParentIDs, ", "))
	}
	if c.Genealogy.MutationNote != "" {
		for _, line := range strings.Split(c.Genealogy.MutationNote, "\n") {
			fmt.Fprintf(&sb, "> %s\n", line)
		}
	}
	return sb.String()
}

// parameterRows lists the present parameters in builder order. Masked keys
// show as "(sealed)".
func parameterRows(c *StyleCard) [][2]string {
	masked := make(map[prompt.ParamKey]bool)
	for _, k := range c.Masking.MaskedKeys() {
		masked[k] = true
	}

	p := c.Parameters
	var rows [][2]string
	for _, k := range prompt.KeyOrder {
		if !p.Has(k) {
			continue
		}
		if masked[k] {
			rows = append(rows, [2]string{string(k), "(sealed)"})
			continue
		}
		var v string
		switch k {
		case prompt.KeyAR:
			v = p.AR
		case prompt.KeySref:
			v = strings.Join(p.Sref, " ")
		case prompt.KeyCref:
			v = strings.Join(p.Cref, " ")
		case prompt.KeyP:
			v = strings.Join(p.P, " ")
		case prompt.KeyStylize:
			v = strconv.Itoa(*p.Stylize)
		case prompt.KeyChaos:
			v = strconv.Itoa(*p.Chaos)
		case prompt.KeyWeird:
			v = strconv.Itoa(*p.Weird)
		case prompt.KeyTile, prompt.KeyRaw:
			v = "on"
		}
		rows = append(rows, [2]string{string(k), v})
	}
	return rows
}
