// Package media talks to YouTube: it normalizes video references, reads
// video metadata and caption track listings through yt-dlp, and downloads
// caption payloads.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"time"

	"github.com/nugget/ytscribe/internal/httpkit"
)

// DefaultMaxPayloadBytes caps a single caption download. A three-hour
// json3 track is a few megabytes.
const DefaultMaxPayloadBytes = 32 << 20

// downloadAttempts bounds tries per caption download. The timedtext
// endpoint answers 429 under load.
const downloadAttempts = 3

// ErrYtDlpNotFound is returned when no yt-dlp binary is configured or on
// PATH.
var ErrYtDlpNotFound = errors.New("yt-dlp not found (install yt-dlp or set fetcher.yt_dlp_path)")

// Config holds settings for the yt-dlp client.
type Config struct {
	// YtDlpPath is the path to the yt-dlp binary. If empty, the binary
	// is located via exec.LookPath.
	YtDlpPath string

	// CookiesFile is an optional Netscape-format cookie file for
	// age-restricted or members-only videos.
	CookiesFile string

	// CookiesFromBrowser names a browser profile yt-dlp should read
	// cookies from ("firefox", "chrome:Profile 1"). Ignored when
	// CookiesFile is set.
	CookiesFromBrowser string

	// Timeout bounds one yt-dlp invocation and one payload download.
	// Zero means no limit beyond the caller's context.
	Timeout time.Duration

	// MaxPayloadBytes caps a caption download. Default: DefaultMaxPayloadBytes.
	MaxPayloadBytes int64
}

// TrackFormat is one downloadable encoding of a caption track as listed
// by yt-dlp.
type TrackFormat struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// VideoInfo is the metadata needed to pick and render a transcript.
type VideoInfo struct {
	ID          string
	Title       string
	Description string
	Channel     string
	Duration    time.Duration

	// Subtitles are uploader-provided tracks; AutomaticCaptions are
	// speech-recognized tracks and their machine translations. Both are
	// keyed by language code.
	Subtitles         map[string][]TrackFormat
	AutomaticCaptions map[string][]TrackFormat
}

// ytdlpJSON is the subset of yt-dlp --dump-single-json output we parse.
type ytdlpJSON struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Description       string                   `json:"description"`
	Channel           string                   `json:"channel"`
	Uploader          string                   `json:"uploader"`
	Duration          float64                  `json:"duration"`
	Subtitles         map[string][]TrackFormat `json:"subtitles"`
	AutomaticCaptions map[string][]TrackFormat `json:"automatic_captions"`
}

// runFunc executes a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client reads video metadata with yt-dlp and downloads caption payloads.
type Client struct {
	cfg    Config
	logger *slog.Logger
	http   *http.Client
	run    runFunc
}

// New creates a yt-dlp client. The binary path is resolved via
// Config.YtDlpPath or exec.LookPath.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if cfg.YtDlpPath == "" {
		if p, err := exec.LookPath("yt-dlp"); err == nil {
			cfg.YtDlpPath = p
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		http:   httpkit.NewClient(httpkit.WithTimeout(timeout), httpkit.WithRetry(downloadAttempts, time.Second)),
		run:    runCommand,
	}
}

// Fetch returns metadata and the caption track listing for a video.
func (c *Client) Fetch(ctx context.Context, videoID string) (*VideoInfo, error) {
	if c.cfg.YtDlpPath == "" {
		return nil, ErrYtDlpNotFound
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	c.logger.Info("running yt-dlp", "video_id", videoID)
	start := time.Now()

	out, err := c.run(ctx, c.cfg.YtDlpPath, c.args(videoID)...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	var meta ytdlpJSON
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	info := &VideoInfo{
		ID:                meta.ID,
		Title:             meta.Title,
		Description:       meta.Description,
		Channel:           firstNonEmpty(meta.Channel, meta.Uploader),
		Duration:          time.Duration(meta.Duration * float64(time.Second)),
		Subtitles:         meta.Subtitles,
		AutomaticCaptions: meta.AutomaticCaptions,
	}
	if info.ID == "" {
		info.ID = videoID
	}

	c.logger.Debug("yt-dlp metadata",
		"video_id", info.ID,
		"title", info.Title,
		"manual_languages", len(info.Subtitles),
		"auto_languages", len(info.AutomaticCaptions),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return info, nil
}

// Download fetches the caption payload for a track.
func (c *Client) Download(ctx context.Context, t Track) ([]byte, error) {
	if t.URL == "" {
		return nil, fmt.Errorf("track %s has no URL", t)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", t, err)
	}

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("download %s: status %d: %s", t, resp.StatusCode, body)
	}

	data, err := httpkit.ReadLimited(resp.Body, c.cfg.MaxPayloadBytes)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", t, err)
	}
	return data, nil
}

// args builds the yt-dlp command line. The URL follows "--" so an ID
// beginning with "-" is never read as a flag.
func (c *Client) args(videoID string) []string {
	args := []string{
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
	}

	switch {
	case c.cfg.CookiesFile != "":
		args = append(args, "--cookies", c.cfg.CookiesFile)
	case c.cfg.CookiesFromBrowser != "":
		args = append(args, "--cookies-from-browser", c.cfg.CookiesFromBrowser)
	}

	return append(args, "--", CanonicalURL(videoID))
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errOutput := stderr.String()
		if len(errOutput) > 500 {
			errOutput = errOutput[:500]
		}
		return nil, fmt.Errorf("%w: %s", err, errOutput)
	}
	return stdout.Bytes(), nil
}

// FormatDuration renders a duration as "H:MM:SS" or "M:SS". Zero yields "".
func FormatDuration(d time.Duration) string {
	total := int(d / time.Second)
	if total <= 0 {
		return ""
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
