package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nugget/ytscribe/internal/config"
	"github.com/nugget/ytscribe/internal/httpkit"
)

// postJSON sends body as JSON and decodes a 200 response into out.
// Non-200 responses become errors carrying the provider's error body.
func postJSON(ctx context.Context, client *http.Client, logger *slog.Logger, url string, header http.Header, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	logger.Log(ctx, config.LevelTrace, "request payload", "url", url, "bytes", len(jsonData))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := httpkit.ReadErrorBody(resp.Body, 4096)
		logger.Error("API error", "status", resp.StatusCode, "body", errBody)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, errBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
