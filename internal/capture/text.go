package capture

import (
	"regexp"
	"strings"

	"github.com/styleatelier/atelier/internal/prompt"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	useTextNoise    = regexp.MustCompile(`(?i)\+\s*use text`)
)

// NormalizeText collapses all whitespace, line breaks included, to single
// spaces and trims the result.
func NormalizeText(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// CleanBody removes known UI noise from a scraped prompt body.
func CleanBody(text string) string {
	return NormalizeText(useTextNoise.ReplaceAllString(text, ""))
}

// CollectParameters finds every --key value run in text and merges repeated
// keys into one flag, in first-seen order: "--sref a --sref b" becomes
// "--sref a b". Keys without a value are kept bare. Line breaks end a value,
// so text should keep the page's line structure.
func CollectParameters(text string) []string {
	var (
		order  []string
		values = make(map[string][]string)
	)
	for _, p := range prompt.ScanParams(text) {
		if _, ok := values[p.Key]; !ok {
			order = append(order, p.Key)
			values[p.Key] = nil
		}
		if p.Value != "" {
			values[p.Key] = append(values[p.Key], p.Value)
		}
	}

	out := make([]string, 0, len(order))
	for _, k := range order {
		flag := "--" + k
		if vs := values[k]; len(vs) > 0 {
			flag += " " + strings.Join(vs, " ")
		}
		out = append(out, flag)
	}
	return out
}

// Assemble joins a scraped body and the parameters found in paramText into
// one command.
func Assemble(body, paramText string) string {
	parts := make([]string, 0, 8)
	if b := CleanBody(prompt.StripParams(body)); b != "" {
		parts = append(parts, b)
	}
	parts = append(parts, CollectParameters(paramText)...)
	return strings.TrimSpace(strings.Join(parts, " "))
}
