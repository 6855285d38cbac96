// Package adcopy talks to the external text-generation service that writes ad
// copy on demand. The call is fallible; the client retries a bounded number of
// times and fails the whole mutating request on exhaustion so a campaign is
// never committed without its requested text.
package adcopy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/models"
	"github.com/openadsim/openadsim/internal/observability"
)

// maxAttempts bounds the retry loop around the generation call.
const maxAttempts = 3

// Generator produces ad body text for a campaign title.
type Generator interface {
	Generate(ctx context.Context, title string) (string, error)
}

// HTTPGenerator calls a JSON-over-HTTP generation service.
type HTTPGenerator struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

// NewHTTPGenerator creates a generator client for the given base URL.
func NewHTTPGenerator(baseURL string, timeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

type generateRequest struct {
	Title string `json:"title"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate requests ad text for the title, retrying up to maxAttempts before
// giving up with ErrAdCopyFailed.
func (g *HTTPGenerator) Generate(ctx context.Context, title string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := g.call(ctx, title)
		if err == nil {
			g.metrics.IncrementAdCopyRequests("success")
			return text, nil
		}
		lastErr = err
		g.metrics.IncrementAdCopyRequests("failure")
		g.logger.Warn("ad copy generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return "", fmt.Errorf("%w: %v", models.ErrAdCopyFailed, lastErr)
}

// call performs one generation request.
func (g *HTTPGenerator) call(ctx context.Context, title string) (string, error) {
	start := time.Now()
	defer func() {
		g.metrics.RecordAdCopyLatency(time.Since(start))
	}()

	body, err := json.Marshal(generateRequest{Title: title})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("empty generation result")
	}
	return out.Text, nil
}
