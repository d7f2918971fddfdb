package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nugget/ytscribe/internal/captions"
	"github.com/nugget/ytscribe/internal/language"
	"github.com/nugget/ytscribe/internal/media"
	"github.com/nugget/ytscribe/internal/transcript"
)

type fakeRunner struct {
	mu     sync.Mutex
	res    *transcript.Result
	err    error
	input  string
	opts   transcript.Options
	stages []string

	// block makes Run wait for cancellation, then close canceled.
	block    bool
	canceled chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, input string, opts transcript.Options, progress transcript.ProgressFunc) (*transcript.Result, error) {
	f.mu.Lock()
	f.input = input
	f.opts = opts
	f.mu.Unlock()

	if progress != nil {
		for _, st := range f.stages {
			progress(st, "working on "+st)
		}
	}
	if f.block {
		<-ctx.Done()
		close(f.canceled)
		return nil, ctx.Err()
	}
	return f.res, f.err
}

func (f *fakeRunner) seen() (string, transcript.Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input, f.opts
}

func sampleResult() *transcript.Result {
	return &transcript.Result{
		VideoID:    "dQw4w9WgXcQ",
		Title:      "Test Show",
		Language:   language.English,
		Track:      media.Track{Language: "en", Format: captions.FormatVTT},
		Transcript: "# Test Show\n\nHello\n",
		Summary:    "# Test Show - Summary\n\nShort.\n",
	}
}

func newTestServer(t *testing.T, runner Runner, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(cfg, runner, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, accept, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, url+"/v1/transcript", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, Config{})

	for _, path := range []string{"/health", "/v1/version"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		var body map[string]any
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d, err %v", path, resp.StatusCode, err)
		}
	}
}

func TestTranscript_JSON(t *testing.T) {
	runner := &fakeRunner{res: sampleResult()}
	srv := newTestServer(t, runner, Config{Defaults: transcript.Options{IncludeTimestamps: true, MaxSummaryChars: 100}})

	resp := post(t, srv.URL, "", `{"url":"https://youtu.be/dQw4w9WgXcQ","no_timestamps":true,"summary_lang":"ja"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body TranscriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.VideoID != "dQw4w9WgXcQ" || body.Transcript != "# Test Show\n\nHello\n" {
		t.Errorf("body = %+v", body)
	}
	if body.RequestID == "" || body.RequestID != resp.Header.Get("X-Request-Id") {
		t.Errorf("request id %q, header %q", body.RequestID, resp.Header.Get("X-Request-Id"))
	}

	input, opts := runner.seen()
	if input != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("input = %q", input)
	}
	want := transcript.Options{IncludeTimestamps: false, SummaryLanguage: "ja", MaxSummaryChars: 100}
	if opts != want {
		t.Errorf("opts = %+v, want %+v", opts, want)
	}
}

func TestTranscript_Formats(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{res: sampleResult()}, Config{})

	tests := []struct {
		accept   string
		wantType string
		wantBody string
	}{
		{"text/markdown", "text/markdown", "Hello\n\n---\n\n# Test Show - Summary"},
		{"text/plain;q=0.9", "text/markdown", "---"},
		{"text/html, application/json", "text/html", "<h1>Test Show</h1>"},
		{"image/png, */*", "application/json", `"video_id"`},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			resp := post(t, srv.URL, tt.accept, `{"url":"dQw4w9WgXcQ"}`)
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.wantType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.wantType)
			}
			data, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(data), tt.wantBody) {
				t.Errorf("body missing %q:\n%s", tt.wantBody, data)
			}
		})
	}
}

func TestTranscript_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed body", `{"url":`, nil, http.StatusBadRequest},
		{"missing url", `{}`, nil, http.StatusBadRequest},
		{"bad summary lang", `{"url":"x","summary_lang":"fr"}`, nil, http.StatusBadRequest},
		{"invalid reference", `{"url":"x"}`, media.ErrInvalidVideoRef, http.StatusBadRequest},
		{"no captions", `{"url":"x"}`, &transcript.Error{Kind: transcript.NoCaptionsAvailable}, http.StatusNotFound},
		{"fetch failure", `{"url":"x"}`, &transcript.Error{Kind: transcript.FetchFailure}, http.StatusBadGateway},
		{"parse failure", `{"url":"x"}`, &transcript.Error{Kind: transcript.ParseFailure}, http.StatusBadGateway},
		{"timeout during parse", `{"url":"x"}`, &transcript.Error{Kind: transcript.ParseFailure, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"other", `{"url":"x"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeRunner{err: tt.err}, Config{})
			resp := post(t, srv.URL, "", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			var body struct {
				Error struct {
					Message string `json:"message"`
					Code    int    `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.want || body.Error.Message == "" {
				t.Errorf("error body = %+v", body)
			}
		})
	}
}

func TestTranscript_ValidationMessage(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{}, Config{})
	resp := post(t, srv.URL, "", `{"summary_lang":"fr"}`)
	data, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"URL is required", "SummaryLang must be one of: auto en ja"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("response missing %q: %s", want, data)
		}
	}
}

func TestTranscript_RateLimit(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{res: sampleResult()}, Config{RateLimit: 0.001, Burst: 1})

	if resp := post(t, srv.URL, "", `{"url":"x"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d", resp.StatusCode)
	}
	resp := post(t, srv.URL, "", `{"url":"x"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		accept string
		want   responseFormat
	}{
		{"", formatJSON},
		{"application/json", formatJSON},
		{"text/markdown; charset=utf-8", formatMarkdown},
		{"text/html,application/xhtml+xml", formatHTML},
		{"application/json, text/html", formatJSON},
		{"bogus;;, text/plain", formatMarkdown},
	}
	for _, tt := range tests {
		if got := negotiate(tt.accept); got != tt.want {
			t.Errorf("negotiate(%q) = %v, want %v", tt.accept, got, tt.want)
		}
	}
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/transcript/stream"
	conn, resp, err := websocket.DefaultDialer.DialContext(t.Context(), url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("handshake missing X-Request-Id")
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvents(t *testing.T, conn *websocket.Conn) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("read: %v", err)
			}
			return events
		}
		events = append(events, ev)
	}
}

func TestStream(t *testing.T) {
	runner := &fakeRunner{
		res:    sampleResult(),
		stages: []string{transcript.StageFetch, transcript.StageDownload, transcript.StageRender},
	}
	srv := newTestServer(t, runner, Config{})
	conn := dialStream(t, srv)

	if err := conn.WriteJSON(TranscriptRequest{URL: "dQw4w9WgXcQ", Paragraphs: true}); err != nil {
		t.Fatal(err)
	}
	events := readEvents(t, conn)

	var stages []string
	for _, ev := range events {
		stages = append(stages, ev.Stage)
	}
	want := "fetch,download,render,done"
	if strings.Join(stages, ",") != want {
		t.Fatalf("stages = %v, want %s", stages, want)
	}
	last := events[len(events)-1]
	if last.Result == nil || last.Result.Title != "Test Show" {
		t.Errorf("done event = %+v", last)
	}
	if last.RequestID == "" || last.RequestID != events[0].RequestID {
		t.Errorf("request ids differ: %q vs %q", last.RequestID, events[0].RequestID)
	}
	if _, opts := runner.seen(); !opts.Paragraphs {
		t.Error("paragraphs option not passed through")
	}
}

func TestStream_Errors(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		conn := dialStream(t, newTestServer(t, &fakeRunner{}, Config{}))
		if err := conn.WriteJSON(map[string]string{"summary_lang": "auto"}); err != nil {
			t.Fatal(err)
		}
		events := readEvents(t, conn)
		if len(events) != 1 || events[0].Stage != StageError || events[0].Code != http.StatusBadRequest {
			t.Errorf("events = %+v", events)
		}
	})

	t.Run("pipeline failure", func(t *testing.T) {
		runner := &fakeRunner{
			err:    &transcript.Error{Kind: transcript.NoCaptionsAvailable, VideoID: "dQw4w9WgXcQ"},
			stages: []string{transcript.StageFetch},
		}
		conn := dialStream(t, newTestServer(t, runner, Config{}))
		if err := conn.WriteJSON(TranscriptRequest{URL: "dQw4w9WgXcQ"}); err != nil {
			t.Fatal(err)
		}
		events := readEvents(t, conn)
		if len(events) != 2 {
			t.Fatalf("events = %+v", events)
		}
		last := events[1]
		if last.Stage != StageError || last.Code != http.StatusNotFound || !strings.Contains(last.Error, "no captions") {
			t.Errorf("error event = %+v", last)
		}
	})
}

func TestStream_ClientCloseCancelsRun(t *testing.T) {
	runner := &fakeRunner{block: true, canceled: make(chan struct{})}
	conn := dialStream(t, newTestServer(t, runner, Config{}))

	if err := conn.WriteJSON(TranscriptRequest{URL: "dQw4w9WgXcQ"}); err != nil {
		t.Fatal(err)
	}

	// Wait for the request to reach the runner before hanging up.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if input, _ := runner.seen(); input != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("runner never started")
		}
		time.Sleep(10 * time.Millisecond)
	}
	conn.Close()

	select {
	case <-runner.canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("run was not canceled after the client closed")
	}
}
