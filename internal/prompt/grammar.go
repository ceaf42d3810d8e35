package prompt

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// paramMarker introduces a parameter flag.
const paramMarker = "--"

// keyAliases folds short and legacy key spellings onto their field.
var keyAliases = map[string]ParamKey{
	"ar":      KeyAR,
	"sref":    KeySref,
	"cref":    KeyCref,
	"p":       KeyP,
	"profile": KeyP,
	"stylize": KeyStylize,
	"s":       KeyStylize,
	"chaos":   KeyChaos,
	"c":       KeyChaos,
	"weird":   KeyWeird,
	"w":       KeyWeird,
	"tile":    KeyTile,
}

// RawParam is one --key value run found in a command.
// Start and End are byte offsets of the whole run in the scanned text.
type RawParam struct {
	Key   string
	Value string
	Start int
	End   int
}

// ScanParams finds every --key value run in text, left to right.
// A key is one or more of [a-z0-9-]. The value extends to the next "--"
// preceded by whitespace, a line break, or the end of text.
func ScanParams(text string) []RawParam {
	var out []RawParam
	i := 0
	for i < len(text) {
		rel := strings.Index(text[i:], paramMarker)
		if rel < 0 {
			break
		}
		start := i + rel
		keyStart := start + len(paramMarker)
		keyEnd := keyStart
		for keyEnd < len(text) && isKeyByte(text[keyEnd]) {
			keyEnd++
		}
		if keyEnd == keyStart {
			i = keyStart
			continue
		}

		end := valueEnd(text, keyEnd)
		key := text[keyStart:keyEnd]
		out = append(out, RawParam{
			Key:   key,
			Value: cleanValue(key, text[keyEnd:end]),
			Start: start,
			End:   end,
		})
		i = end
	}
	return out
}

// StripParams removes every parameter run from text and returns the rest.
func StripParams(text string) string {
	return excise(text, ScanParams(text))
}

func excise(text string, params []RawParam) string {
	if len(params) == 0 {
		return text
	}
	var sb strings.Builder
	last := 0
	for _, p := range params {
		sb.WriteString(text[last:p.Start])
		// Keep the words on either side apart.
		sb.WriteByte(' ')
		last = p.End
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func isKeyByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '-'
}

// valueEnd returns the offset where the value starting at from stops.
func valueEnd(text string, from int) int {
	for j := from; j < len(text); {
		r, size := utf8.DecodeRuneInString(text[j:])
		if r == '\n' || r == '\r' {
			return j
		}
		if unicode.IsSpace(r) && strings.HasPrefix(text[j+size:], paramMarker) {
			return j
		}
		j += size
	}
	return len(text)
}

// repetitionCache holds the compiled repetition patterns per key.
var repetitionCache = map[string]*regexp.Regexp{}

func init() {
	for key := range keyAliases {
		repetitionCache[key] = repetitionPattern(key)
	}
}

func repetitionPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s+` + regexp.QuoteMeta(key) + `\b.*$`)
}

// cleanValue trims the value and drops a trailing repeat of the key name.
// Pasted commands sometimes carry "--sref X sref Y"; everything from the
// repeated word on is treated as noise. This is best-effort, not grammar.
func cleanValue(key, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	re, ok := repetitionCache[key]
	if !ok {
		re = repetitionPattern(key)
	}
	return strings.TrimSpace(re.ReplaceAllString(value, ""))
}

// applyParam folds one raw run into params. Unknown keys and unusable values
// are ignored.
func applyParam(params *Parameters, raw RawParam) {
	if raw.Key == "style" {
		if strings.EqualFold(firstField(raw.Value), "raw") {
			params.Raw = true
		}
		return
	}

	key, ok := keyAliases[raw.Key]
	if !ok {
		return
	}

	switch key {
	case KeyAR:
		if v := firstField(raw.Value); v != "" {
			params.AR = v
		}
	case KeySref:
		params.Sref = appendUnique(params.Sref, valueFields(raw.Value)...)
	case KeyCref:
		params.Cref = appendUnique(params.Cref, valueFields(raw.Value)...)
	case KeyP:
		params.P = appendUnique(params.P, valueFields(raw.Value)...)
	case KeyStylize:
		params.Stylize = parseBounded(KeyStylize, raw.Value, params.Stylize)
	case KeyChaos:
		params.Chaos = parseBounded(KeyChaos, raw.Value, params.Chaos)
	case KeyWeird:
		params.Weird = parseBounded(KeyWeird, raw.Value, params.Weird)
	case KeyTile:
		params.Tile = true
	}
}

// parseBounded parses the first field of value as an integer within the
// key's range. On failure the previous value is kept.
func parseBounded(key ParamKey, value string, prev *int) *int {
	n, err := strconv.Atoi(firstField(value))
	if err != nil || !InRange(key, n) {
		return prev
	}
	return &n
}

func firstField(s string) string {
	fields := valueFields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// valueFields splits a parameter value on whitespace. A value written
// inline ("--ar 16:9, blue sky") carries the following delimiter, so
// trailing delimiters are cut from each field.
func valueFields(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimRightFunc(f, IsDelimiter); f != "" {
			out = append(out, f)
		}
	}
	return out
}
