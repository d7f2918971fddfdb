package media

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/nugget/ytscribe/internal/captions"
)

func TestCandidates(t *testing.T) {
	var meta ytdlpJSON
	if err := json.Unmarshal([]byte(sampleDump), &meta); err != nil {
		t.Fatal(err)
	}
	info := &VideoInfo{Subtitles: meta.Subtitles, AutomaticCaptions: meta.AutomaticCaptions}

	var got []string
	for _, tr := range info.Candidates(PreferredLanguages(false)) {
		got = append(got, tr.String())
	}
	want := []string{
		"en (manual, json3)",
		"en (manual, vtt)",
		"en (auto, json3)",
		"en (auto, srv1)",
		"ja (auto, vtt)",
		"de (auto, vtt)",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates(english) =\n%q\nwant\n%q", got, want)
	}

	got = got[:0]
	for _, tr := range info.Candidates(PreferredLanguages(true)) {
		got = append(got, tr.String())
	}
	want = []string{
		"en (manual, json3)",
		"en (manual, vtt)",
		"ja (auto, vtt)",
		"en (auto, json3)",
		"en (auto, srv1)",
		"de (auto, vtt)",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates(japanese) =\n%q\nwant\n%q", got, want)
	}
}

func TestCandidates_Empty(t *testing.T) {
	info := &VideoInfo{}
	if got := info.Candidates(PreferredLanguages(false)); len(got) != 0 {
		t.Errorf("Candidates() = %v, want none", got)
	}
}

func TestCandidates_URLAndName(t *testing.T) {
	info := &VideoInfo{
		Subtitles: map[string][]TrackFormat{
			"fr": {{Ext: "vtt", URL: "", Name: "broken"}, {Ext: "srv1", URL: "https://example.test/fr", Name: "French"}},
		},
	}
	got := info.Candidates(PreferredLanguages(false))
	if len(got) != 1 {
		t.Fatalf("Candidates() = %v, want one track", got)
	}
	if got[0].URL != "https://example.test/fr" || got[0].Name != "French" || got[0].Auto {
		t.Errorf("track = %+v", got[0])
	}
}

func TestCandidates_RegisteredFormat(t *testing.T) {
	info := &VideoInfo{
		Subtitles: map[string][]TrackFormat{
			"en": {{Ext: "ttml", URL: "https://example.test/en.ttml"}, {Ext: "vtt", URL: "https://example.test/en.vtt"}},
		},
	}
	if got := info.Candidates(PreferredLanguages(false)); len(got) != 1 {
		t.Fatalf("Candidates() before Register = %v, want vtt only", got)
	}

	captions.Register("ttml", func([]byte) ([]captions.RawCue, error) { return nil, nil })

	var got []string
	for _, tr := range info.Candidates(PreferredLanguages(false)) {
		got = append(got, tr.String())
	}
	want := []string{"en (manual, vtt)", "en (manual, ttml)"}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates() = %q, want %q", got, want)
	}
}

func TestPreferredLanguages(t *testing.T) {
	if got := PreferredLanguages(true); got[0] != "ja" {
		t.Errorf("japanese list starts with %q", got[0])
	}
	if got := PreferredLanguages(false); got[0] != "en" {
		t.Errorf("english list starts with %q", got[0])
	}
	a := PreferredLanguages(false)
	a[0] = "zz"
	if PreferredLanguages(false)[0] != "en" {
		t.Error("PreferredLanguages returned shared slice")
	}
}
