// Package transcript runs the extraction pipeline for one video: fetch
// metadata, pick and parse a caption track, normalize and clean the
// segments, render Markdown, and optionally summarize.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nugget/ytscribe/internal/captions"
	"github.com/nugget/ytscribe/internal/language"
	"github.com/nugget/ytscribe/internal/media"
	"github.com/nugget/ytscribe/internal/render"
	"github.com/nugget/ytscribe/internal/summarize"
)

// classifySampleRunes bounds the transcript text passed to the language
// classifier.
const classifySampleRunes = 2000

// Fetcher retrieves video metadata and caption payloads. *media.Client
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*media.VideoInfo, error)
	Download(ctx context.Context, t media.Track) ([]byte, error)
}

// Options control a single pipeline run.
type Options struct {
	IncludeTimestamps bool
	Paragraphs        bool
	NoSummary         bool

	// SummaryLanguage is "auto", "en", or "ja".
	SummaryLanguage string

	// MaxSummaryChars limits the text sent to the summarizer.
	MaxSummaryChars int
}

// Pipeline stages reported through a [ProgressFunc].
const (
	StageFetch     = "fetch"
	StageDownload  = "download"
	StageParse     = "parse"
	StageClean     = "clean"
	StageRender    = "render"
	StageSummarize = "summarize"
)

// ProgressFunc receives stage updates during [Pipeline.Run].
type ProgressFunc func(stage, message string)

// Result is the outcome of a successful run.
type Result struct {
	VideoID  string
	Title    string
	URL      string
	Duration time.Duration
	Language language.Language
	Track    media.Track
	Segments []captions.Segment

	// Transcript is the rendered transcript document.
	Transcript string

	// Summary is the rendered summary document, or "" when no summary
	// was produced. SummaryErr explains a failed attempt.
	Summary         string
	SummaryProvider string
	SummaryErr      error
}

// Pipeline turns a video reference into rendered documents. A Pipeline
// holds no per-run state and may be shared between goroutines.
type Pipeline struct {
	fetcher    Fetcher
	summarizer summarize.Summarizer
	logger     *slog.Logger
}

// New creates a pipeline. summarizer may be nil, which disables summaries.
func New(fetcher Fetcher, summarizer summarize.Summarizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		fetcher:    fetcher,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Run extracts the transcript for input, a video ID or URL. Invalid input
// yields an error matching [media.ErrInvalidVideoRef]; other failures are
// [*Error] values. A summary failure is recorded in Result.SummaryErr and
// does not fail the run.
func (p *Pipeline) Run(ctx context.Context, input string, opts Options, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(string, string) {}
	}

	id, err := media.ParseVideoID(input)
	if err != nil {
		return nil, err
	}
	log := p.logger.With("video_id", id)

	progress(StageFetch, "reading video metadata")
	info, err := p.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, &Error{Kind: FetchFailure, VideoID: id, Err: err}
	}
	log.Info("video metadata",
		"title", info.Title,
		"channel", info.Channel,
		"duration", media.FormatDuration(info.Duration),
	)

	metaLang := language.Classify(info.Title, info.Description, "")
	candidates := info.Candidates(media.PreferredLanguages(metaLang == language.Japanese))
	if len(candidates) == 0 {
		return nil, &Error{Kind: NoCaptionsAvailable, VideoID: id}
	}

	track, cues, err := p.firstParseable(ctx, log, id, candidates, progress)
	if err != nil {
		return nil, err
	}

	progress(StageClean, "normalizing and cleaning captions")
	segs := captions.Normalize(cues)
	lang := language.Classify(info.Title, info.Description, sample(segs))
	for i := range segs {
		segs[i].Text = language.Clean(segs[i].Text, lang)
	}
	segs = captions.Compact(segs)
	log.Debug("segments ready", "raw_cues", len(cues), "segments", len(segs), "language", lang)

	res := &Result{
		VideoID:  id,
		Title:    info.Title,
		URL:      media.CanonicalURL(id),
		Duration: info.Duration,
		Language: lang,
		Track:    track,
		Segments: segs,
	}

	progress(StageRender, "rendering transcript")
	rendered := segs
	if opts.Paragraphs {
		rendered = captions.Paragraphs(segs, captions.DefaultParagraphChars)
	}
	res.Transcript = render.Transcript(render.TranscriptDocument{
		Title:             res.Title,
		VideoID:           id,
		URL:               res.URL,
		Segments:          rendered,
		IncludeTimestamps: opts.IncludeTimestamps,
	})

	if opts.NoSummary || p.summarizer == nil || len(segs) == 0 {
		return res, nil
	}

	progress(StageSummarize, "summarizing with "+p.summarizer.Name())
	summary, err := p.summarizer.Summarize(ctx, summarize.Request{
		Text:     summarize.Truncate(segs, opts.MaxSummaryChars),
		Language: summarize.ResolveLanguage(opts.SummaryLanguage, lang),
	})
	if err != nil {
		res.SummaryErr = &Error{Kind: SummaryFailure, VideoID: id, Err: err}
		log.Warn("summary failed", "provider", p.summarizer.Name(), "error", err)
		return res, nil
	}

	res.SummaryProvider = p.summarizer.Name()
	res.Summary = render.Summary(render.SummaryDocument{
		Title:    res.Title,
		VideoID:  id,
		URL:      res.URL,
		Duration: info.Duration,
		Summary:  summary,
		Provider: res.SummaryProvider,
	})
	return res, nil
}

// firstParseable downloads and parses candidates in order, returning the
// first that yields cues. When all fail, the returned ParseFailure names
// the last track tried and joins every per-track cause.
func (p *Pipeline) firstParseable(ctx context.Context, log *slog.Logger, id string, candidates []media.Track, progress ProgressFunc) (media.Track, []captions.RawCue, error) {
	var causes []error
	var last string
	for _, t := range candidates {
		if err := ctx.Err(); err != nil {
			causes = append(causes, err)
			break
		}
		last = t.String()

		progress(StageDownload, "downloading "+t.String())
		data, err := p.fetcher.Download(ctx, t)
		if err != nil {
			log.Warn("caption download failed", "track", t.String(), "error", err)
			causes = append(causes, fmt.Errorf("%s: %w", t, err))
			continue
		}

		progress(StageParse, "parsing "+t.String())
		cues, err := captions.Parse(t.Format, data)
		if err != nil {
			log.Warn("caption parse failed", "track", t.String(), "bytes", len(data), "error", err)
			causes = append(causes, fmt.Errorf("%s: %w", t, err))
			continue
		}

		log.Info("caption track selected", "track", t.String(), "cues", len(cues))
		return t, cues, nil
	}
	return media.Track{}, nil, &Error{Kind: ParseFailure, VideoID: id, Track: last, Err: errors.Join(causes...)}
}

// sample returns the leading transcript text used for classification.
func sample(segs []captions.Segment) string {
	var b strings.Builder
	n := 0
	for _, s := range segs {
		if n >= classifySampleRunes {
			break
		}
		b.WriteString(s.Text)
		b.WriteByte(' ')
		n += utf8.RuneCountInString(s.Text) + 1
	}
	return b.String()
}
