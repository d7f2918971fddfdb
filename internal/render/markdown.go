// Package render produces the Markdown documents written for a video:
// the transcript and its summary. Output is deterministic for a given
// input and always ends with a single newline.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/nugget/ytscribe/internal/captions"
)

// NoTranscript is rendered in place of segments when there are none.
const NoTranscript = "*No transcript available for this video.*"

// TranscriptDocument is the input to [Transcript].
type TranscriptDocument struct {
	Title             string
	VideoID           string
	URL               string
	Segments          []captions.Segment
	IncludeTimestamps bool
}

// SummaryDocument is the input to [Summary].
type SummaryDocument struct {
	Title    string
	VideoID  string
	URL      string
	Duration time.Duration // zero when unknown
	Summary  string
	Provider string
}

// Transcript renders a transcript document.
func Transcript(doc TranscriptDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	writeMeta(&b, doc.VideoID, doc.URL, 0)
	b.WriteString("---\n\n")

	if len(doc.Segments) == 0 {
		b.WriteString(NoTranscript)
		b.WriteString("\n")
		return b.String()
	}

	for i, seg := range doc.Segments {
		if i > 0 {
			b.WriteString("\n")
		}
		if doc.IncludeTimestamps {
			fmt.Fprintf(&b, "**[%s]** ", Timestamp(seg.Start))
		}
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Summary renders a summary document. The summary text is copied
// verbatim apart from surrounding blank lines.
func Summary(doc SummaryDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Summary\n\n", doc.Title)
	writeMeta(&b, doc.VideoID, doc.URL, doc.Duration)
	b.WriteString("---\n\n")
	b.WriteString(strings.Trim(doc.Summary, "\r\n"))
	b.WriteString("\n\n---\n\n")

	provider := doc.Provider
	if provider == "" {
		provider = "an unknown provider"
	}
	fmt.Fprintf(&b, "*Summary generated using %s*\n", provider)
	return b.String()
}

// writeMeta writes the metadata block. Lines other than the last end in
// two spaces, a Markdown hard line break.
func writeMeta(b *strings.Builder, id, url string, d time.Duration) {
	lines := []string{
		"**Video ID:** " + id,
		"**YouTube URL:** " + url,
	}
	if d > 0 {
		lines = append(lines, "**Duration:** "+Timestamp(d))
	}
	b.WriteString(strings.Join(lines, "  \n"))
	b.WriteString("\n\n")
}

// Timestamp formats d as zero-padded HH:MM:SS, truncating fractions.
func Timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
