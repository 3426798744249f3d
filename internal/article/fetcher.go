package article

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// TextFetcher fetches one raw article text by URL.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// SSRFValidator is the outbound-fetch safety interface the fetcher
// needs from the security package.
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// HTTPTextFetcher fetches article texts over HTTP through an
// SSRF-guarded client with a bounded timeout and response size.
type HTTPTextFetcher struct {
	guard   SSRFValidator
	logger  *slog.Logger
	timeout time.Duration
	maxSize int64
}

// NewHTTPTextFetcher returns an HTTPTextFetcher.
func NewHTTPTextFetcher(guard SSRFValidator, logger *slog.Logger, timeout time.Duration, maxSize int64) *HTTPTextFetcher {
	return &HTTPTextFetcher{
		guard:   guard,
		logger:  logger,
		timeout: timeout,
		maxSize: maxSize,
	}
}

// FetchText implements TextFetcher. Failures are returned to the
// caller, which treats them as a per-article drop, never a batch
// failure.
func (f *HTTPTextFetcher) FetchText(ctx context.Context, url string) (string, error) {
	if err := f.guard.ValidateURL(url); err != nil {
		return "", fmt.Errorf("URL validation failed: %w", err)
	}

	client := f.guard.NewSafeClient(f.timeout, f.maxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Gaceta/1.0 Content Reader")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("object store returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
