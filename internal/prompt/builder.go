package prompt

import (
	"strconv"
	"strings"
)

// SegmentSeparator joins rendered segments in a built prompt.
const SegmentSeparator = ", "

// Body renders segments into the prompt body. Segments that render to
// blank text are skipped.
func Body(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Render())
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, SegmentSeparator)
}

// Flags renders params as flags in KeyOrder, skipping absent and masked keys.
func Flags(params Parameters, masked ...ParamKey) string {
	skip := make(map[ParamKey]bool, len(masked))
	for _, k := range masked {
		skip[k] = true
	}

	var flags []string
	for _, k := range KeyOrder {
		if skip[k] || !params.Has(k) {
			continue
		}
		switch k {
		case KeyAR:
			flags = append(flags, "--ar "+strings.TrimSpace(params.AR))
		case KeySref:
			flags = append(flags, "--sref "+strings.Join(params.Sref, " "))
		case KeyCref:
			flags = append(flags, "--cref "+strings.Join(params.Cref, " "))
		case KeyP:
			flags = append(flags, "--p "+strings.Join(params.P, " "))
		case KeyStylize:
			flags = append(flags, "--stylize "+strconv.Itoa(*params.Stylize))
		case KeyChaos:
			flags = append(flags, "--chaos "+strconv.Itoa(*params.Chaos))
		case KeyWeird:
			flags = append(flags, "--weird "+strconv.Itoa(*params.Weird))
		case KeyTile:
			flags = append(flags, "--tile")
		case KeyRaw:
			flags = append(flags, "--style raw")
		}
	}
	return strings.Join(flags, " ")
}

// Build reconstructs the canonical command for segments and params,
// leaving out every key in masked. Output is deterministic.
func Build(segments []Segment, params Parameters, masked ...ParamKey) string {
	return strings.TrimSpace(Body(segments) + " " + Flags(params, masked...))
}
