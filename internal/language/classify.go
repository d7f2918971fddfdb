// Package language classifies transcript text as Japanese, English, or
// other, and applies language-specific cleanup to caption text.
package language

import (
	"fmt"
	"strings"
	"unicode"
)

// Language is the detected language of a video.
type Language int

const (
	English Language = iota
	Japanese
	Other
)

// String returns the short code used in output and prompts.
func (l Language) String() string {
	switch l {
	case Japanese:
		return "ja"
	case Other:
		return "other"
	default:
		return "en"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (l *Language) UnmarshalText(b []byte) error {
	switch string(b) {
	case "en":
		*l = English
	case "ja":
		*l = Japanese
	case "other":
		*l = Other
	default:
		return fmt.Errorf("unknown language %q", b)
	}
	return nil
}

// japaneseRatio is the share of Japanese characters among all letters
// above which a text is considered Japanese.
const japaneseRatio = 0.3

// japaneseIndicators are common particles and verb endings. Any of them
// in a title or description marks the video as Japanese, since short
// titles rarely carry enough kana to pass the ratio test.
var japaneseIndicators = []string{
	"を", "は", "が", "に", "で", "と", "の",
	"です", "ます", "した", "する", "ある", "いる",
}

// Classify decides the language of a video from its title, description,
// and a sample of transcript text.
func Classify(title, description, sample string) Language {
	meta := title + "\n" + description
	for _, ind := range japaneseIndicators {
		if strings.Contains(meta, ind) {
			return Japanese
		}
	}

	var japanese, latin, otherScript int
	for _, r := range meta + "\n" + sample {
		switch {
		case IsJapanese(r):
			japanese++
		case !unicode.IsLetter(r):
		case unicode.Is(unicode.Latin, r):
			latin++
		default:
			otherScript++
		}
	}

	letters := japanese + latin + otherScript
	switch {
	case letters == 0:
		return English
	case float64(japanese)/float64(letters) >= japaneseRatio:
		return Japanese
	case otherScript > latin+japanese:
		return Other
	default:
		return English
	}
}

// IsJapanese reports whether r is hiragana, katakana, or a CJK unified
// ideograph.
func IsJapanese(r rune) bool {
	return r >= 0x3040 && r <= 0x309F ||
		r >= 0x30A0 && r <= 0x30FF ||
		r >= 0x4E00 && r <= 0x9FAF
}
