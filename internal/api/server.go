// Package api implements the HTTP front end: a transcript endpoint that
// answers in JSON, Markdown, or HTML, and a WebSocket variant that
// streams pipeline progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nugget/ytscribe/internal/buildinfo"
	"github.com/nugget/ytscribe/internal/language"
	"github.com/nugget/ytscribe/internal/media"
	"github.com/nugget/ytscribe/internal/render"
	"github.com/nugget/ytscribe/internal/transcript"
)

const (
	// maxRequestBytes bounds a transcript request body.
	maxRequestBytes = 64 << 10

	shutdownTimeout = 10 * time.Second
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Runner executes one transcript extraction. *transcript.Pipeline
// implements it.
type Runner interface {
	Run(ctx context.Context, input string, opts transcript.Options, progress transcript.ProgressFunc) (*transcript.Result, error)
}

// Config holds server settings.
type Config struct {
	Address string
	Port    int

	// RateLimit is requests per second across all transcript requests.
	// Zero disables limiting.
	RateLimit float64
	Burst     int

	// Defaults are the pipeline options a request starts from.
	Defaults transcript.Options
}

// Server is the HTTP API server.
type Server struct {
	cfg      Config
	runner   Runner
	limiter  *rate.Limiter
	validate *validator.Validate
	logger   *slog.Logger

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg Config, runner Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	if cfg.RateLimit > 0 {
		burst := max(cfg.Burst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return s
}

// Handler returns the routed handler, wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/transcript", s.withRateLimit(s.handleTranscript))
	mux.HandleFunc("GET /v1/transcript/stream", s.withRateLimit(s.handleStream))

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(mux)
}

// Start listens on the configured address and serves until ctx is
// cancelled or the server fails. Cancellation triggers a graceful
// shutdown, after which Start returns nil.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Summaries of long videos can take minutes.
		WriteTimeout: 10 * time.Minute,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("starting API server", "address", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", w.Header().Get("X-Request-Id"),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.RuntimeInfo(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

// TranscriptRequest is the body of POST /v1/transcript and the first
// message on the stream endpoint.
type TranscriptRequest struct {
	URL          string `json:"url" validate:"required,max=2048"`
	NoTimestamps bool   `json:"no_timestamps"`
	NoSummary    bool   `json:"no_summary"`
	SummaryLang  string `json:"summary_lang" validate:"omitempty,oneof=auto en ja"`
	Paragraphs   bool   `json:"paragraphs"`
}

// TranscriptResponse is the JSON result of a transcript request.
type TranscriptResponse struct {
	RequestID    string            `json:"request_id"`
	VideoID      string            `json:"video_id"`
	Title        string            `json:"title"`
	Language     language.Language `json:"language"`
	Track        media.Track       `json:"track"`
	Transcript   string            `json:"transcript"`
	Summary      string            `json:"summary,omitempty"`
	SummaryError string            `json:"summary_error,omitempty"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	var req TranscriptRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	log := s.logger.With("request_id", requestID)
	res, err := s.runner.Run(r.Context(), req.URL, s.options(req), nil)
	if err != nil {
		code := statusFor(err)
		log.Warn("transcript request failed", "status", code, "error", err)
		s.errorResponse(w, code, err.Error())
		return
	}

	switch negotiate(r.Header.Get("Accept")) {
	case formatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		if _, err := w.Write([]byte(combinedMarkdown(res))); err != nil {
			log.Debug("failed to write response", "error", err)
		}
	case formatHTML:
		page, err := render.HTML(res.Title, combinedMarkdown(res))
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(page)); err != nil {
			log.Debug("failed to write response", "error", err)
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, newResponse(requestID, res), s.logger)
	}
}

// options merges request flags over the server defaults.
func (s *Server) options(req TranscriptRequest) transcript.Options {
	opts := s.cfg.Defaults
	if req.NoTimestamps {
		opts.IncludeTimestamps = false
	}
	if req.NoSummary {
		opts.NoSummary = true
	}
	if req.Paragraphs {
		opts.Paragraphs = true
	}
	if req.SummaryLang != "" {
		opts.SummaryLanguage = req.SummaryLang
	}
	return opts
}

func newResponse(requestID string, res *transcript.Result) *TranscriptResponse {
	resp := &TranscriptResponse{
		RequestID:  requestID,
		VideoID:    res.VideoID,
		Title:      res.Title,
		Language:   res.Language,
		Track:      res.Track,
		Transcript: res.Transcript,
		Summary:    res.Summary,
	}
	if res.SummaryErr != nil {
		resp.SummaryError = res.SummaryErr.Error()
	}
	return resp
}

// combinedMarkdown is the transcript followed by the summary, if any.
func combinedMarkdown(res *transcript.Result) string {
	if res.Summary == "" {
		return res.Transcript
	}
	return res.Transcript + "\n---\n\n" + res.Summary
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, media.ErrInvalidVideoRef):
		return http.StatusBadRequest
	case errors.Is(err, transcript.ErrNoCaptions):
		return http.StatusNotFound
	case errors.Is(err, transcript.ErrFetch), errors.Is(err, transcript.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

type responseFormat int

const (
	formatJSON responseFormat = iota
	formatMarkdown
	formatHTML
)

// negotiate picks a response format from an Accept header. The first
// recognized media type wins; anything else gets JSON.
func negotiate(accept string) responseFormat {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case "application/json":
			return formatJSON
		case "text/markdown", "text/plain":
			return formatMarkdown
		case "text/html":
			return formatHTML
		}
	}
	return formatJSON
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}
