package httpkit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nugget/ytscribe/internal/buildinfo"
)

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient()
	if c.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", c.Timeout)
	}
}

func TestNewClient_ZeroTimeout(t *testing.T) {
	c := NewClient(WithTimeout(0))
	if c.Timeout != 0 {
		t.Errorf("expected 0 timeout, got %v", c.Timeout)
	}
}

func TestNewClient_UserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	tests := []struct {
		name string
		opts []ClientOption
		set  string
		want string
	}{
		{name: "default", want: buildinfo.UserAgent()},
		{name: "override", opts: []ClientOption{WithUserAgent("TestBot/1.0")}, want: "TestBot/1.0"},
		{name: "request header wins", set: "Custom/2.0", want: "Custom/2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.opts...)
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
			if tt.set != "" {
				req.Header.Set("User-Agent", tt.set)
			}
			resp, err := c.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.want {
				t.Errorf("User-Agent = %q, want %q", body, tt.want)
			}
		})
	}
}

func TestReadErrorBody(t *testing.T) {
	rc := io.NopCloser(strings.NewReader("quota exceeded for project"))
	if got := ReadErrorBody(rc, 5); got != "quota" {
		t.Errorf("ReadErrorBody = %q, want %q", got, "quota")
	}
	if got := ReadErrorBody(nil, 5); got != "" {
		t.Errorf("ReadErrorBody(nil) = %q, want empty", got)
	}
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(io.NopCloser(strings.NewReader("WEBVTT")), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "WEBVTT" {
		t.Errorf("data = %q", data)
	}

	if _, err := ReadLimited(io.NopCloser(strings.NewReader("WEBVTT!")), 6); err == nil {
		t.Error("expected error for oversized body")
	}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		statuses []int
		want     int
		hits     int
	}{
		{name: "throttled then ok", method: http.MethodGet, statuses: []int{429, 200}, want: 200, hits: 2},
		{name: "gives up", method: http.MethodGet, statuses: []int{503, 503, 503, 503}, want: 503, hits: 3},
		{name: "client error not retried", method: http.MethodGet, statuses: []int{404, 200}, want: 404, hits: 1},
		{name: "post not retried", method: http.MethodPost, statuses: []int{503, 200}, want: 503, hits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(hits.Add(1)) - 1
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(tt.statuses[min(n, len(tt.statuses)-1)])
			}))
			defer srv.Close()

			c := NewClient(WithRetry(3, time.Millisecond))
			req, _ := http.NewRequestWithContext(t.Context(), tt.method, srv.URL, nil)
			resp, err := c.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if got := int(hits.Load()); got != tt.hits {
				t.Errorf("hits = %d, want %d", got, tt.hits)
			}
		})
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(WithRetry(5, 10*time.Second))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	start := time.Now()
	_, err := c.Do(req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("retry wait ignored cancellation")
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"", 0, false},
		{"7", 7 * time.Second, true},
		{"-1", 0, false},
		{"soon", 0, false},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second, true},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
	}
	for _, tt := range tests {
		got, ok := retryAfter(tt.in, now)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("retryAfter(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
