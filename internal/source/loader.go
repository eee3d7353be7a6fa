// Package source reads the content-definition source from disk or over HTTP.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"sitemapgen/internal/config"
	"sitemapgen/internal/logger"
)

// Source errors.
var (
	// ErrSourceRead wraps every failure to obtain the source content.
	ErrSourceRead           = errors.New("source read failed")
	ErrInvalidEncoding      = errors.New("source is not valid UTF-8")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrSourceTooLarge       = errors.New("source exceeds buffer limit")
)

// Loader fetches source content with config-driven retry logic for remote sources.
type Loader struct {
	client       *http.Client
	retryPolicy  config.RetryPolicy
	bufferSizeKb int
	logger       *logger.Logger
}

// NewLoader creates a loader from the source configuration.
func NewLoader(cfg config.SourceConfig, log *logger.Logger) *Loader {
	return &Loader{
		client: &http.Client{
			Timeout: cfg.Retry.GetTimeout(),
		},
		retryPolicy:  cfg.Retry,
		bufferSizeKb: cfg.BufferSizeKb,
		logger:       log,
	}
}

// Load returns the content of path, which is either a local file or an http(s) URL.
// Every failure wraps ErrSourceRead.
func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	src := config.SourceConfig{Path: path}

	var (
		content []byte
		err     error
	)

	if src.IsRemote() {
		content, err = l.Fetch(ctx, path)
	} else {
		content, err = l.ReadLocalFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, path, err)
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, path, ErrInvalidEncoding)
	}

	return content, nil
}

// ReadLocalFile reads a local file; the handle is released before returning.
func (l *Loader) ReadLocalFile(filePath string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	l.logger.Debug("read local source", "path", filePath, "bytes", len(content))

	return content, nil
}

// Fetch downloads url, retrying transport errors and temporary HTTP statuses.
func (l *Loader) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	attempts := max(l.retryPolicy.MaxAttempts, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := l.retryPolicy.GetRetryDelay(attempt)
			l.logger.Warn("retrying source fetch", "url", url, "attempt", attempt, "delay", delay, "error", lastErr)

			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, retry, err := l.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt, attempts, err)
		if !retry {
			break
		}
	}

	return nil, lastErr
}

// fetchOnce performs a single GET. The bool reports whether the failure is retryable.
func (l *Loader) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "sitemapgen/1.0")
	req.Header.Set("Accept", "text/plain, application/javascript, application/json, */*;q=0.8")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	limit := int64(l.bufferSizeKb) * 1024
	if limit <= 0 {
		limit = 4096 * 1024
	}

	// Read one byte past the limit to tell a full buffer from a truncated body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, false, fmt.Errorf("%w: %d KB", ErrSourceTooLarge, l.bufferSizeKb)
	}

	l.logger.Debug("fetched remote source", "url", url, "bytes", len(body), "duration", time.Since(startTime))

	return body, false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
