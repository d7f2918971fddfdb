package language

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// rule is one named text transformation. Rules are applied in order.
type rule struct {
	name  string
	apply func(string) string
}

// maxCleanPasses bounds the fixpoint loop in [Clean]. Every rule either
// deletes text or is itself idempotent, so a handful of passes suffices.
const maxCleanPasses = 8

var (
	// Sound and speaker annotations: [Music], [Applause], [ __ ], 【拍手】.
	// Long bracketed runs are left alone since they are usually real text.
	squareTagRe   = regexp.MustCompile(`\[[^\[\]]{0,24}\]`)
	lenticularRe  = regexp.MustCompile(`【[^【】]{0,24}】`)
	musicSymbolRe = regexp.MustCompile(`[♪♫♬♩]+`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
)

var japaneseRules = []rule{
	{"fold-width", width.Fold.String},
	{"strip-tags", stripTags},
	{"strip-music", stripMusic},
	{"join-japanese", joinJapanese},
	{"collapse-space", collapseSpace},
}

var englishRules = []rule{
	{"strip-tags", stripTags},
	{"strip-music", stripMusic},
	{"straight-quotes", quoteReplacer.Replace},
	{"collapse-space", collapseSpace},
}

var otherRules = []rule{
	{"collapse-space", collapseSpace},
}

// Clean applies the cleanup rules for lang to a single caption text.
// Clean is idempotent: Clean(Clean(s, l), l) == Clean(s, l).
func Clean(text string, lang Language) string {
	rules := otherRules
	switch lang {
	case Japanese:
		rules = japaneseRules
	case English:
		rules = englishRules
	}

	for range maxCleanPasses {
		next := text
		for _, r := range rules {
			next = r.apply(next)
		}
		if next == text {
			break
		}
		text = next
	}
	return text
}

func stripTags(s string) string {
	for {
		next := lenticularRe.ReplaceAllString(squareTagRe.ReplaceAllString(s, " "), " ")
		if next == s {
			return s
		}
		s = next
	}
}

func stripMusic(s string) string {
	return musicSymbolRe.ReplaceAllString(s, " ")
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}

// joinJapanese removes whitespace runs that sit between two Japanese
// characters, where a space is a caption artifact rather than a word
// boundary.
func joinJapanese(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
			i += size
			continue
		}

		j := i
		for j < len(s) {
			rr, n := utf8.DecodeRuneInString(s[j:])
			if !unicode.IsSpace(rr) {
				break
			}
			j += n
		}

		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		next, _ := utf8.DecodeRuneInString(s[j:])
		if !(isJapaneseText(prev) && isJapaneseText(next)) {
			sb.WriteString(s[i:j])
		}
		i = j
	}
	return sb.String()
}

// isJapaneseText extends [IsJapanese] with CJK punctuation such as 、 and 。.
func isJapaneseText(r rune) bool {
	return IsJapanese(r) || r >= 0x3000 && r <= 0x303F
}
