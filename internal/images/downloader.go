// Package images downloads product photos referenced by the supplier feed.
package images

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/agroland/agroland-sync/internal/httpclient"
)

// Downloader fetches the raw bytes behind a photo URL.
//
//go:generate mockgen -destination=mocks/mock_downloader.go -package=mocks -source=downloader.go Downloader
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// DownloadError reports a photo that could not be fetched.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download image %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// HTTPDownloader is the httpclient-backed Downloader. All downloads made through
// one instance share its rate limit.
type HTTPDownloader struct {
	client  httpclient.Client
	limiter *rate.Limiter
}

// NewHTTPDownloader creates a downloader allowing at most requestsPerSecond
// downloads per second. Zero or less disables throttling.
func NewHTTPDownloader(client httpclient.Client, requestsPerSecond float64) *HTTPDownloader {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &HTTPDownloader{client: client, limiter: limiter}
}

// Download implements Downloader.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("empty image url")}
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}

	data, err := d.client.Get(ctx, url)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}
	if len(data) == 0 {
		return nil, &DownloadError{URL: url, Err: fmt.Errorf("empty response body")}
	}

	slog.DebugContext(ctx, "Image downloaded", "url", url, "bytes", len(data))
	return data, nil
}
