// Package footage fetches source video by URL into a job-owned local file.
package footage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const DefaultFetchTimeout = 30 * time.Second

// FetchError reports a non-2xx response from the footage source.
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("footage fetch failed: HTTP %d from %s", e.StatusCode, e.URL)
}

// Fetcher downloads source footage over HTTP.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. maxBytes caps the downloaded size; zero
// means unlimited.
func NewFetcher(timeout time.Duration, maxBytes int64, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Download streams the footage at url into destPath and returns the number
// of bytes written. A non-2xx status is a *FetchError.
func (f *Fetcher) Download(ctx context.Context, url, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &FetchError{StatusCode: resp.StatusCode, URL: url}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create footage file: %w", err)
	}
	defer out.Close()

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	n, err := io.Copy(out, body)
	if err != nil {
		return n, fmt.Errorf("write footage file: %w", err)
	}
	if f.maxBytes > 0 && n > f.maxBytes {
		return n, fmt.Errorf("footage exceeds size limit of %d bytes", f.maxBytes)
	}

	f.logger.Info("footage downloaded", "url", url, "bytes", n)
	return n, nil
}
