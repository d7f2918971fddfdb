package media

import (
	"fmt"
	"slices"

	"github.com/nugget/ytscribe/internal/captions"
)

// Track is one downloadable caption candidate: a language, whether it
// is auto-generated, and a single payload format.
type Track struct {
	Language string          `json:"language"`
	Auto     bool            `json:"auto"`
	Format   captions.Format `json:"format"`
	URL      string          `json:"-"`
	Name     string          `json:"name,omitempty"`
}

// String renders the track for logs and errors, e.g. "en (auto, json3)".
func (t Track) String() string {
	kind := "manual"
	if t.Auto {
		kind = "auto"
	}
	return fmt.Sprintf("%s (%s, %s)", t.Language, kind, t.Format)
}

// Preferred language lists, most wanted first.
var (
	japanesePreferred = []string{"ja", "ja-JP", "en", "en-US", "en-GB"}
	englishPreferred  = []string{"en", "en-US", "en-GB", "ja", "ja-JP"}
)

// PreferredLanguages returns the caption languages to try first for a
// video whose metadata is (or is not) Japanese.
func PreferredLanguages(japanese bool) []string {
	if japanese {
		return slices.Clone(japanesePreferred)
	}
	return slices.Clone(englishPreferred)
}

// Candidates lists every parseable track in the order they should be
// tried: manual tracks in preferred languages, auto tracks in preferred
// languages, any other manual track, any other auto track. Languages
// outside the preferred list are ordered by code. Each language expands
// to one candidate per registered format in [captions.Formats] order.
func (v *VideoInfo) Candidates(preferred []string) []Track {
	formats := captions.Formats()

	var out []Track
	for _, auto := range []bool{false, true} {
		out = appendLanguages(out, v.tracks(auto), preferred, formats, auto)
	}
	for _, auto := range []bool{false, true} {
		tracks := v.tracks(auto)
		var rest []string
		for lang := range tracks {
			if !slices.Contains(preferred, lang) {
				rest = append(rest, lang)
			}
		}
		slices.Sort(rest)
		out = appendLanguages(out, tracks, rest, formats, auto)
	}
	return out
}

func (v *VideoInfo) tracks(auto bool) map[string][]TrackFormat {
	if auto {
		return v.AutomaticCaptions
	}
	return v.Subtitles
}

func appendLanguages(out []Track, tracks map[string][]TrackFormat, langs []string, formats []captions.Format, auto bool) []Track {
	for _, lang := range langs {
		listed, ok := tracks[lang]
		if !ok {
			continue
		}
		for _, f := range formats {
			i := slices.IndexFunc(listed, func(tf TrackFormat) bool {
				return tf.Ext == string(f) && tf.URL != ""
			})
			if i < 0 {
				continue
			}
			out = append(out, Track{
				Language: lang,
				Auto:     auto,
				Format:   f,
				URL:      listed[i].URL,
				Name:     listed[i].Name,
			})
		}
	}
	return out
}
