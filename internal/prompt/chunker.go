package prompt

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Part-of-speech heads from the IPA dictionary that shape chunks.
const (
	posParticle    = "助詞"
	posConjunctive = "接続助詞"
	posSymbol      = "記号"
)

// The dictionary is large; it is loaded on the first Japanese chunk.
var loadTokenizer = sync.OnceValues(func() (*tokenizer.Tokenizer, error) {
	return tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
})

// Chunk splits a phrase into smaller natural units.
// Text containing Japanese script is segmented morphologically: runs of
// content words ("東京タワー", "飛ぶ猫") become chunks, particles and
// symbols between them are dropped, and a conjunctive particle stays on the
// word it follows. Text in space-delimited scripts is returned whole.
func Chunk(piece string) []string {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return nil
	}
	if !hasJapanese(piece) {
		return []string{piece}
	}
	t, err := loadTokenizer()
	if err != nil {
		return []string{piece}
	}

	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, tok := range t.Tokenize(piece) {
		pos := tok.POS()
		head := ""
		if len(pos) > 0 {
			head = pos[0]
		}
		switch {
		case head == posSymbol || strings.TrimSpace(tok.Surface) == "":
			flush()
		case head == posParticle && len(pos) > 1 && pos[1] == posConjunctive:
			cur.WriteString(tok.Surface)
			flush()
		case head == posParticle:
			flush()
		default:
			cur.WriteString(tok.Surface)
		}
	}
	flush()
	return chunks
}

func hasJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
