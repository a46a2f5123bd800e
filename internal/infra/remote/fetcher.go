// Package remote downloads manifest templates and sound bundles.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrTooLarge reports a body over the configured cap.
var ErrTooLarge = errors.New("response body too large")

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

type Config struct {
	Timeout time.Duration
	// MaxBytes caps Fetch bodies. Zero means 8 MiB.
	MaxBytes int64
	// MaxDownloadBytes caps Download bodies. Zero means 256 MiB.
	MaxDownloadBytes int64
}

type Fetcher struct {
	client           *http.Client
	maxBytes         int64
	maxDownloadBytes int64
}

func NewFetcher(cfg Config) *Fetcher {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 8 << 20
	}
	if cfg.MaxDownloadBytes <= 0 {
		cfg.MaxDownloadBytes = 256 << 20
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBytes:         cfg.MaxBytes,
		maxDownloadBytes: cfg.MaxDownloadBytes,
	}
}

// Fetch returns the body of url. Anything but 200 is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("read %s: %w (limit %d bytes)", url, ErrTooLarge, f.maxBytes)
	}
	return body, nil
}

// Download streams the body of url into dst and returns the bytes written.
// A body over the download cap fails with ErrTooLarge after writing at most
// one byte past the cap.
func (f *Fetcher) Download(ctx context.Context, url string, dst io.Writer) (int64, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > f.maxDownloadBytes {
		return 0, fmt.Errorf("download %s: %w (limit %d bytes)", url, ErrTooLarge, f.maxDownloadBytes)
	}

	n, err := io.Copy(dst, io.LimitReader(resp.Body, f.maxDownloadBytes+1))
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	if n > f.maxDownloadBytes {
		return n, fmt.Errorf("download %s: %w (limit %d bytes)", url, ErrTooLarge, f.maxDownloadBytes)
	}
	return n, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
