package captions

import (
	"bytes"
	"encoding/xml"
	"html"
	"strings"
	"time"
)

// srv1Doc is YouTube's legacy timedtext XML:
//
//	<transcript><text start="3285.28" dur="4.88">surprised you</text></transcript>
type srv1Doc struct {
	XMLName xml.Name   `xml:"transcript"`
	Texts   []srv1Text `xml:"text"`
}

type srv1Text struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}

func parseSRV1(data []byte) ([]RawCue, error) {
	var doc srv1Doc
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	var cues []RawCue
	for _, t := range doc.Texts {
		// Text is frequently double-escaped ("&amp;#39;"), so one more
		// pass of HTML unescaping is needed after XML decoding.
		text := strings.TrimSpace(strings.ReplaceAll(html.UnescapeString(t.Text), "\n", " "))
		if text == "" {
			continue
		}
		start := secondsToDuration(t.Start)
		cues = append(cues, RawCue{
			Start: start,
			End:   start + secondsToDuration(t.Duration),
			Text:  text,
		})
	}
	return cues, nil
}

// secondsToDuration converts fractional seconds to a Duration rounded to
// the nearest millisecond, avoiding float artifacts like 1.2299999s.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s*1000+0.5) * time.Millisecond
}
