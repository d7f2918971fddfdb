package captions

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timingLineRe matches a WebVTT timing line such as
// "00:00:01.234 --> 00:00:03.456 align:start position:0%". Hours are
// optional; anything after the end timestamp (cue settings) is ignored.
var timingLineRe = regexp.MustCompile(`^\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{3})\s+-->\s+((?:\d+:)?\d{1,2}:\d{2}[.,]\d{3})`)

// inlineTagRe matches cue markup: <c>, </c>, <i>, <v Speaker>, and the
// karaoke-style <00:00:01.500> timestamps in YouTube auto-captions.
var inlineTagRe = regexp.MustCompile(`<[^>]*>`)

func parseVTT(data []byte) ([]RawCue, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	var cues []RawCue
	for i := 0; i < len(lines); i++ {
		m := timingLineRe.FindStringSubmatch(lines[i])
		if m == nil {
			// Header, metadata, NOTE/STYLE blocks and cue identifiers.
			continue
		}

		start, err1 := parseVTTTimestamp(m[1])
		end, err2 := parseVTTTimestamp(m[2])

		// The cue payload runs until a truly empty line. YouTube emits
		// lines containing a single space inside cues, so only "" ends it.
		var parts []string
		for i+1 < len(lines) && lines[i+1] != "" {
			i++
			line := strings.TrimSpace(html.UnescapeString(inlineTagRe.ReplaceAllString(lines[i], "")))
			if line != "" {
				parts = append(parts, line)
			}
		}

		if err1 != nil || err2 != nil || len(parts) == 0 {
			continue
		}
		cues = append(cues, RawCue{
			Start: start,
			End:   end,
			Text:  strings.Join(parts, " "),
		})
	}
	return cues, nil
}

// parseVTTTimestamp parses "HH:MM:SS.mmm" or "MM:SS.mmm".
func parseVTTTimestamp(ts string) (time.Duration, error) {
	ts = strings.Replace(ts, ",", ".", 1)
	clock, frac, ok := strings.Cut(ts, ".")
	if !ok || len(frac) != 3 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}

	fields := strings.Split(clock, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}

	var total time.Duration
	units := []time.Duration{time.Second, time.Minute, time.Hour}
	for i := range fields {
		n, err := strconv.Atoi(fields[len(fields)-1-i])
		if err != nil {
			return 0, fmt.Errorf("bad timestamp %q: %w", ts, err)
		}
		total += time.Duration(n) * units[i]
	}

	ms, err := strconv.Atoi(frac)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q: %w", ts, err)
	}
	return total + time.Duration(ms)*time.Millisecond, nil
}
