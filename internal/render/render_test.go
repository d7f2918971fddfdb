package render

import (
	"strings"
	"testing"
	"time"

	"github.com/nugget/ytscribe/internal/captions"
)

func TestTranscript(t *testing.T) {
	doc := TranscriptDocument{
		Title:   "Test Video",
		VideoID: "dQw4w9WgXcQ",
		URL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Segments: []captions.Segment{
			{Start: 1500 * time.Millisecond, Text: "Hello there"},
			{Start: time.Hour + 2*time.Minute + 3*time.Second, Text: "General Kenobi"},
		},
		IncludeTimestamps: true,
	}

	want := "# Test Video\n\n" +
		"**Video ID:** dQw4w9WgXcQ  \n" +
		"**YouTube URL:** https://www.youtube.com/watch?v=dQw4w9WgXcQ\n\n" +
		"---\n\n" +
		"**[00:00:01]** Hello there\n\n" +
		"**[01:02:03]** General Kenobi\n"

	got := Transcript(doc)
	if got != want {
		t.Errorf("Transcript() =\n%s\nwant\n%s", got, want)
	}
	if again := Transcript(doc); again != got {
		t.Error("Transcript is not deterministic")
	}
}

func TestTranscript_NoTimestamps(t *testing.T) {
	doc := TranscriptDocument{
		Title:   "T",
		VideoID: "id",
		URL:     "u",
		Segments: []captions.Segment{
			{Start: time.Second, Text: "one"},
			{Start: 2 * time.Second, Text: "two"},
		},
	}
	got := Transcript(doc)
	if !strings.HasSuffix(got, "---\n\none\n\ntwo\n") {
		t.Errorf("Transcript() = %q", got)
	}
	if strings.Contains(got, "**[") {
		t.Errorf("timestamps present: %q", got)
	}
}

func TestTranscript_Empty(t *testing.T) {
	got := Transcript(TranscriptDocument{Title: "T", VideoID: "id", URL: "u", IncludeTimestamps: true})
	want := "# T\n\n**Video ID:** id  \n**YouTube URL:** u\n\n---\n\n" + NoTranscript + "\n"
	if got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestSummary(t *testing.T) {
	doc := SummaryDocument{
		Title:    "Test Video",
		VideoID:  "dQw4w9WgXcQ",
		URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Duration: 212 * time.Second,
		Summary:  "## Overview\n\nA song.\n\n",
		Provider: "Gemini (gemini-2.0-flash)",
	}
	want := "# Test Video - Summary\n\n" +
		"**Video ID:** dQw4w9WgXcQ  \n" +
		"**YouTube URL:** https://www.youtube.com/watch?v=dQw4w9WgXcQ  \n" +
		"**Duration:** 00:03:32\n\n" +
		"---\n\n" +
		"## Overview\n\nA song.\n\n" +
		"---\n\n" +
		"*Summary generated using Gemini (gemini-2.0-flash)*\n"

	if got := Summary(doc); got != want {
		t.Errorf("Summary() =\n%s\nwant\n%s", got, want)
	}
}

func TestSummary_UnknownDuration(t *testing.T) {
	got := Summary(SummaryDocument{Title: "T", VideoID: "id", URL: "u", Summary: "s", Provider: "Ollama"})
	if strings.Contains(got, "Duration") {
		t.Errorf("unexpected duration line: %q", got)
	}
	if !strings.Contains(got, "**YouTube URL:** u\n\n---") {
		t.Errorf("metadata block malformed: %q", got)
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{999 * time.Millisecond, "00:00:00"},
		{61 * time.Second, "00:01:01"},
		{100 * time.Hour, "100:00:00"},
		{-time.Second, "00:00:00"},
	}
	for _, tt := range tests {
		if got := Timestamp(tt.d); got != tt.want {
			t.Errorf("Timestamp(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHTML(t *testing.T) {
	md := Transcript(TranscriptDocument{
		Title:             "Cats <script>alert(1)</script>",
		VideoID:           "id",
		URL:               "u",
		Segments:          []captions.Segment{{Text: "meow"}},
		IncludeTimestamps: true,
	})
	got, err := HTML("Cats <script>", md)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	for _, want := range []string{"<title>Cats &lt;script&gt;</title>", "<h1>", "<strong>[00:00:00]</strong> meow", "<hr>"} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<script>alert") {
		t.Errorf("raw HTML passed through:\n%s", got)
	}
}
