package prompt

import (
	"strings"
	"unicode/utf8"
)

// sentenceBreaks split a comma-separated segment into sentences.
const sentenceBreaks = ".!?;"

// edgePunct is trimmed from both ends of every keyword.
const edgePunct = `."':;!?,`

// ExtractKeywords derives naming and tagging candidates from a raw prompt.
// Parameter runs are removed, the rest is split on commas, then on sentence
// punctuation, then chunked into phrases. Chunks of one character or less and
// case-insensitive repeats are dropped.
func ExtractKeywords(raw string) []string {
	keywords := make([]string, 0)
	clean := strings.TrimSpace(StripParams(raw))
	if clean == "" {
		return keywords
	}

	seen := make(map[string]bool)
	for _, segment := range strings.Split(clean, ",") {
		for _, sentence := range strings.FieldsFunc(segment, isSentenceBreak) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			for _, chunk := range Chunk(sentence) {
				kw := strings.Trim(strings.TrimSpace(chunk), edgePunct)
				kw = strings.TrimSpace(kw)
				if utf8.RuneCountInString(kw) <= 1 {
					continue
				}
				key := strings.ToLower(kw)
				if seen[key] {
					continue
				}
				seen[key] = true
				keywords = append(keywords, kw)
			}
		}
	}
	return keywords
}

func isSentenceBreak(r rune) bool {
	return strings.ContainsRune(sentenceBreaks, r)
}
