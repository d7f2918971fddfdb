// Package captions turns raw subtitle payloads into an ordered list of
// transcript segments. Parsing is format-specific (JSON3, WebVTT, SRV1)
// and produces [RawCue] values; [Normalize] then collapses the rolling,
// overlapping cues emitted by auto-generated captions into [Segment]
// values suitable for rendering.
package captions

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Format is a caption payload encoding, named by its yt-dlp extension.
type Format string

// Built-in formats.
const (
	FormatJSON3 Format = "json3"
	FormatVTT   Format = "vtt"
	FormatSRV1  Format = "srv1"
)

// RawCue is a single timed caption entry as it appears in a payload.
type RawCue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Segment is a normalized unit of transcript text with its start time.
type Segment struct {
	Start time.Duration `json:"start"`
	Text  string        `json:"text"`
}

// Parser converts one raw payload into cues ordered as they appear in
// the payload.
type Parser func(data []byte) ([]RawCue, error)

// ErrUnknownFormat is returned by [Parse] for a format with no
// registered parser.
var ErrUnknownFormat = errors.New("unknown caption format")

// ErrNoCues is returned by [Parse] when a payload parsed without error
// but contained no usable cues.
var ErrNoCues = errors.New("no cues in payload")

var (
	registryMu sync.RWMutex
	registry   = map[Format]Parser{
		FormatJSON3: parseJSON3,
		FormatVTT:   parseVTT,
		FormatSRV1:  parseSRV1,
	}

	// preference orders the registered formats. JSON3 carries exact
	// millisecond offsets and no markup; SRV1 is the least structured.
	preference = []Format{FormatJSON3, FormatVTT, FormatSRV1}
)

// Register adds or replaces the parser for a format. A new format ranks
// after every format registered before it.
func Register(f Format, p Parser) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[f]; !ok {
		preference = append(preference, f)
	}
	registry[f] = p
}

// Formats lists the registered formats from most to least preferred.
func Formats() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Clone(preference)
}

// Parse decodes data using the parser registered for f. On any failure
// it returns a nil slice and an error; callers treat that as a signal
// to try the next available track.
func Parse(f Format, data []byte) ([]RawCue, error) {
	registryMu.RLock()
	p, ok := registry[f]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	cues, err := p(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f, err)
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("parse %s: %w", f, ErrNoCues)
	}
	return cues, nil
}

// Cues converts segments back to cues. Each cue ends where the next
// segment starts; the final cue has zero length.
func Cues(segs []Segment) []RawCue {
	cues := make([]RawCue, len(segs))
	for i, s := range segs {
		end := s.Start
		if i+1 < len(segs) {
			end = segs[i+1].Start
		}
		cues[i] = RawCue{Start: s.Start, End: end, Text: s.Text}
	}
	return cues
}
