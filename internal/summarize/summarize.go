// Package summarize sends a transcript to an LLM provider and returns a
// Markdown summary. Providers are interchangeable behind [Summarizer];
// each makes a single non-streaming request with no retry.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/nugget/ytscribe/internal/captions"
	"github.com/nugget/ytscribe/internal/config"
	"github.com/nugget/ytscribe/internal/httpkit"
	"github.com/nugget/ytscribe/internal/language"
)

// TruncationNotice is appended once to text cut by [Truncate].
const TruncationNotice = "\n\n[transcript truncated for summarization]"

// ErrNoAPIKey is returned by [New] when the configured provider needs an
// API key and none is available. Callers treat it as "summaries disabled".
var ErrNoAPIKey = errors.New("no API key configured")

// Request is the input to a summary call.
type Request struct {
	// Text is the transcript body, already truncated.
	Text string

	// Language is the summary output language, "en" or "ja".
	Language string
}

// Summarizer produces a summary for a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)

	// Name identifies the provider and model for attribution,
	// e.g. "Gemini (gemini-2.0-flash)".
	Name() string
}

// New builds the summarizer selected by cfg.Provider.
func New(cfg config.SummaryConfig, logger *slog.Logger) (Summarizer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("provider", cfg.Provider)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	httpClient := httpkit.NewClient(httpkit.WithTimeout(timeout))

	switch cfg.Provider {
	case config.ProviderGemini, "":
		key := cfg.ResolveAPIKey()
		if key == "" {
			return nil, fmt.Errorf("gemini: %w (set %s)", ErrNoAPIKey, cfg.APIKeyEnv())
		}
		return newGemini(cfg.BaseURL, cfg.Model, key, httpClient, logger), nil
	case config.ProviderAnthropic:
		key := cfg.ResolveAPIKey()
		if key == "" {
			return nil, fmt.Errorf("anthropic: %w (set %s)", ErrNoAPIKey, cfg.APIKeyEnv())
		}
		return newAnthropic(cfg.BaseURL, cfg.Model, key, httpClient, logger), nil
	case config.ProviderOllama:
		return newOllama(cfg.BaseURL, cfg.Model, httpClient, logger), nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.Provider)
	}
}

// Truncate joins segment texts with newlines, limited to limit runes.
// Whole segments are kept while they fit; if the first segment alone is
// too long it is cut at the last whitespace before the limit (or at the
// limit when there is none). Cut text ends with [TruncationNotice].
func Truncate(segs []captions.Segment, limit int) string {
	if limit <= 0 {
		limit = config.DefaultMaxSummaryChars
	}

	var b strings.Builder
	n := 0
	for i, s := range segs {
		size := utf8.RuneCountInString(s.Text)
		if i > 0 {
			size++ // newline separator
		}
		if n+size > limit {
			if i == 0 {
				b.WriteString(cutAtSpace(s.Text, limit))
			}
			b.WriteString(TruncationNotice)
			return b.String()
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.Text)
		n += size
	}
	return b.String()
}

// cutAtSpace returns at most limit runes of s, ending before the last
// whitespace within that prefix when there is one.
func cutAtSpace(s string, limit int) string {
	end, count := len(s), 0
	for i := range s {
		if count == limit {
			end = i
			break
		}
		count++
	}
	prefix := s[:end]
	if i := strings.LastIndexFunc(prefix, unicode.IsSpace); i > 0 {
		return strings.TrimRightFunc(prefix[:i], unicode.IsSpace)
	}
	return prefix
}

// ResolveLanguage picks the summary language: an explicit "en" or "ja"
// wins, otherwise Japanese videos get "ja" and everything else "en".
func ResolveLanguage(requested string, detected language.Language) string {
	switch strings.ToLower(requested) {
	case "en", "ja":
		return strings.ToLower(requested)
	}
	if detected == language.Japanese {
		return "ja"
	}
	return "en"
}
