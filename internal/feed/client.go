// Package feed fetches and decodes the supplier product feed.
package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/agroland/agroland-sync/internal/httpclient"
)

// feedPath is the supplier's export path: API version 1, catalog format 3, UTF-8 encoding.
const feedPath = "/1/3/utf8/"

// Fetcher retrieves the full supplier catalog.
//
//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=client.go Fetcher
type Fetcher interface {
	// Fetch issues one request to the feed endpoint and returns every product
	// in document order. Errors are *TransportError, *ProtocolError or *DecodeError.
	Fetch(ctx context.Context) ([]Product, error)
}

// Client is the HTTP implementation of Fetcher. It never retries.
type Client struct {
	httpClient httpclient.Client
	feedURL    string
}

// NewClient creates a feed client for the given base URL and access key.
func NewClient(httpClient httpclient.Client, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		feedURL:    BuildURL(baseURL, apiKey),
	}
}

// BuildURL returns <baseURL>/1/3/utf8/<apiKey>?stream=true.
func BuildURL(baseURL, apiKey string) string {
	return strings.TrimRight(baseURL, "/") + feedPath + url.PathEscape(apiKey) + "?stream=true"
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context) ([]Product, error) {
	// The access key is part of the path, keep it out of logs and errors
	redacted := c.redactedURL()

	slog.DebugContext(ctx, "Fetching supplier feed", "url", redacted)

	body, err := c.httpClient.Open(ctx, c.feedURL)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &ProtocolError{URL: redacted, StatusCode: httpErr.StatusCode, Err: err}
		}
		return nil, &TransportError{URL: redacted, Err: &redactedError{
			msg: strings.ReplaceAll(err.Error(), c.feedURL, redacted),
			err: err,
		}}
	}
	defer func() {
		_ = body.Close()
	}()

	products, err := Decode(body)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) && isTransportFailure(decodeErr.Err) {
			// The connection broke while streaming the body
			return nil, &TransportError{URL: redacted, Err: decodeErr.Err}
		}
		return nil, err
	}

	slog.DebugContext(ctx, "Supplier feed decoded", "product_count", len(products))
	return products, nil
}

func (c *Client) redactedURL() string {
	if i := strings.Index(c.feedURL, feedPath); i >= 0 {
		return c.feedURL[:i+len(feedPath)] + "***"
	}
	return c.feedURL
}

// isTransportFailure reports whether a body read failed for network reasons
// rather than because of the document itself.
func isTransportFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr)
}

// redactedError keeps the wrapped chain while hiding the access key from the message.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string {
	return e.msg
}

func (e *redactedError) Unwrap() error {
	return e.err
}
