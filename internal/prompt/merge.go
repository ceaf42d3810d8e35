package prompt

import "strings"

// MergeSegments drops text segments whose trimmed, lowercased value was
// already seen, keeping the first occurrence and the original order.
// Slots and chips always pass through.
func MergeSegments(segments []Segment) []Segment {
	seen := make(map[string]bool)
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Type == SegmentText {
			key := strings.ToLower(strings.TrimSpace(s.Value))
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, s)
	}
	return out
}
