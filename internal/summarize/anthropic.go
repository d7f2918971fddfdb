package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nugget/ytscribe/internal/prompts"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultModel   = "claude-sonnet-4-20250514"
	anthropicAPIVersion     = "2023-06-01"
	anthropicMaxTokens      = 8192
)

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func newAnthropic(baseURL, model, apiKey string, httpClient *http.Client, logger *slog.Logger) *Anthropic {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	if model == "" {
		model = anthropicDefaultModel
	}
	return &Anthropic{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Name implements [Summarizer].
func (a *Anthropic) Name() string { return "Anthropic (" + a.model + ")" }

// Summarize implements [Summarizer].
func (a *Anthropic) Summarize(ctx context.Context, req Request) (string, error) {
	body := anthropicRequest{
		Model: a.model,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: prompts.TranscriptSummaryPrompt(req.Text, req.Language),
		}},
		MaxTokens: anthropicMaxTokens,
	}
	header := http.Header{
		"X-Api-Key":         {a.apiKey},
		"Anthropic-Version": {anthropicAPIVersion},
	}

	var resp anthropicResponse
	if err := postJSON(ctx, a.httpClient, a.logger, a.baseURL+"/v1/messages", header, body, &resp); err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("anthropic: empty response")
	}

	a.logger.Debug("summary received",
		"model", a.model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)
	return text, nil
}
