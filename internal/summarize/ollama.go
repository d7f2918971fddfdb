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
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultModel   = "llama3.1"
)

// Ollama calls a local Ollama server's chat API.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func newOllama(baseURL, model string, httpClient *http.Client, logger *slog.Logger) *Ollama {
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	if model == "" {
		model = ollamaDefaultModel
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaResponse struct {
	Model     string        `json:"model"`
	Message   ollamaMessage `json:"message"`
	Done      bool          `json:"done"`
	EvalCount int           `json:"eval_count,omitempty"`
}

// Name implements [Summarizer].
func (o *Ollama) Name() string { return "Ollama (" + o.model + ")" }

// Summarize implements [Summarizer].
func (o *Ollama) Summarize(ctx context.Context, req Request) (string, error) {
	body := ollamaRequest{
		Model: o.model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: prompts.TranscriptSummaryPrompt(req.Text, req.Language),
		}},
		Stream: false,
	}

	var resp ollamaResponse
	if err := postJSON(ctx, o.httpClient, o.logger, o.baseURL+"/api/chat", nil, body, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return "", errors.New("ollama: empty response")
	}

	o.logger.Debug("summary received", "model", o.model, "eval_count", resp.EvalCount)
	return text, nil
}
