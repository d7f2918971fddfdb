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
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultModel   = "gemini-2.0-flash"
)

// Gemini calls the Google Generative Language generateContent API.
type Gemini struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func newGemini(baseURL, model, apiKey string, httpClient *http.Client, logger *slog.Logger) *Gemini {
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	if model == "" {
		model = geminiDefaultModel
	}
	return &Gemini{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Name implements [Summarizer].
func (g *Gemini) Name() string { return "Gemini (" + g.model + ")" }

// Summarize implements [Summarizer].
func (g *Gemini) Summarize(ctx context.Context, req Request) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompts.TranscriptSummaryPrompt(req.Text, req.Language)}},
		}},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	header := http.Header{"X-Goog-Api-Key": {g.apiKey}}

	var resp geminiResponse
	if err := postJSON(ctx, g.httpClient, g.logger, url, header, body, &resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response (finish reason %q)", resp.Candidates[0].FinishReason)
	}

	g.logger.Debug("summary received", "model", g.model, "chars", len(text))
	return text, nil
}
