package transcript

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// NoCaptionsAvailable means the video lists no parseable caption track.
	NoCaptionsAvailable Kind = iota + 1

	// FetchFailure means metadata could not be retrieved.
	FetchFailure

	// ParseFailure means every candidate track failed to download or
	// parse.
	ParseFailure

	// SummaryFailure means the summarizer failed. It never aborts a run.
	SummaryFailure
)

// Sentinels matched by [Error.Is], one per [Kind].
var (
	ErrNoCaptions = errors.New("no captions available")
	ErrFetch      = errors.New("fetch failed")
	ErrParse      = errors.New("no caption track could be parsed")
	ErrSummary    = errors.New("summary failed")
)

func (k Kind) String() string {
	switch k {
	case NoCaptionsAvailable:
		return "NoCaptionsAvailable"
	case FetchFailure:
		return "FetchFailure"
	case ParseFailure:
		return "ParseFailure"
	case SummaryFailure:
		return "SummaryFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case NoCaptionsAvailable:
		return ErrNoCaptions
	case FetchFailure:
		return ErrFetch
	case ParseFailure:
		return ErrParse
	case SummaryFailure:
		return ErrSummary
	}
	return nil
}

// Error is a pipeline failure for one video.
type Error struct {
	Kind    Kind
	VideoID string
	Track   string // last track tried on a ParseFailure, else empty
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	msg += ": video " + e.VideoID
	if e.Track != "" {
		msg += ", track " + e.Track
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
