package analysis

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// StatusError represents an error response from the analysis backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPClient talks to a real analysis backend over HTTP.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Moments(ctx context.Context, videoID string) ([]Moment, error) {
	var payload struct {
		Moments []Moment `json:"moments"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/api/videos/%s/moments", c.baseURL, videoID), &payload); err != nil {
		return nil, err
	}

	c.logger.Info("fetched detected moments", "video_id", videoID, "count", len(payload.Moments))
	return payload.Moments, nil
}

func (c *HTTPClient) StageIndex(ctx context.Context, videoID string) (int, error) {
	var payload struct {
		Stage int `json:"stage"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/api/videos/%s/progress", c.baseURL, videoID), &payload); err != nil {
		return 0, err
	}
	return payload.Stage, nil
}

func (c *HTTPClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Pulsepoint-Request-Id", generateRequestID())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
