package prompt

import (
	"iter"
	"slices"
	"strings"
	"unicode"
)

// DelimiterChars holds every character that separates prompt tokens.
// The parser and the interactive token input both split on exactly this set;
// a prompt typed by hand and the same prompt parsed from a capture must yield
// the same segments.
const DelimiterChars = ",、。:;"

// IsDelimiter reports whether r separates prompt tokens.
func IsDelimiter(r rune) bool {
	return strings.ContainsRune(DelimiterChars, r)
}

// Tokens yields the trimmed, non-empty pieces of text between runs of
// delimiters, left to right. Internal whitespace runs are collapsed to a
// single space.
func Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i, r := range text {
			if IsDelimiter(r) {
				if start >= 0 {
					if tok := cleanToken(text[start:i]); tok != "" && !yield(tok) {
						return
					}
					start = -1
				}
				continue
			}
			if start < 0 {
				start = i
			}
		}
		if start >= 0 {
			if tok := cleanToken(text[start:]); tok != "" {
				yield(tok)
			}
		}
	}
}

// SplitTokens collects Tokens into a slice.
func SplitTokens(text string) []string {
	return slices.Collect(Tokens(text))
}

// AppendTyped splits user-typed text with the shared delimiter policy and
// appends one text segment per token. It is the entry point for the
// interactive token input; the input slice is never modified.
func AppendTyped(segments []Segment, typed string) []Segment {
	out := slices.Clone(segments)
	for tok := range Tokens(typed) {
		out = append(out, Text(tok))
	}
	return out
}

// cleanToken trims a token and collapses internal whitespace.
func cleanToken(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
