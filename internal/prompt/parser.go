package prompt

// Parsed is the structured form of a raw command.
type Parsed struct {
	Segments   []Segment  `json:"prompt_segments"`
	Parameters Parameters `json:"parameters"`
}

// ParseParameters collects the parameter set from raw without touching the body.
func ParseParameters(raw string) Parameters {
	var params Parameters
	for _, p := range ScanParams(raw) {
		applyParam(&params, p)
	}
	return params
}

// Parse splits a raw command into text segments and parameters.
// Parameter runs are collected and cut out of the text first, then the
// remainder is tokenized; every token becomes a text segment in order.
// Parse never fails: malformed values are dropped and empty input yields
// an empty result.
func Parse(raw string) Parsed {
	found := ScanParams(raw)

	var params Parameters
	for _, p := range found {
		applyParam(&params, p)
	}

	segments := make([]Segment, 0)
	for tok := range Tokens(excise(raw, found)) {
		segments = append(segments, Text(tok))
	}

	return Parsed{Segments: segments, Parameters: params}
}
