package captions

import (
	"encoding/json"
	"strings"
	"time"
)

// json3Doc is the subset of YouTube's timedtext "json3" format we read.
//
//	{"events":[{"tStartMs":1200,"dDurationMs":2400,"segs":[{"utf8":"hello"},{"utf8":" world"}]}]}
type json3Doc struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int64      `json:"tStartMs"`
	DurationMs int64      `json:"dDurationMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

func parseJSON3(data []byte) ([]RawCue, error) {
	var doc json3Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var cues []RawCue
	for _, ev := range doc.Events {
		if len(ev.Segs) == 0 {
			continue
		}

		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(sb.String(), "\n", " "))
		if text == "" {
			continue
		}

		start := time.Duration(ev.StartMs) * time.Millisecond
		cues = append(cues, RawCue{
			Start: start,
			End:   start + time.Duration(ev.DurationMs)*time.Millisecond,
			Text:  text,
		})
	}
	return cues, nil
}
