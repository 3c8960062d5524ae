// Package fetch provides the shared HTTP client for all scrapers: request
// timeout, a mandatory minimum delay between calls, bounded retry, and
// charset detection on response bodies.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	defaultUserAgent = "PmdaPipeline/1.0"
	maxAttempts      = 3
)

// Client is a rate-limited, retrying HTTP getter. Safe for concurrent use;
// the minimum delay is enforced across all callers.
type Client struct {
	http      *http.Client
	userAgent string
	minDelay  time.Duration

	mu   sync.Mutex
	last time.Time
}

// Result is a fetched response body with its detected source encoding.
type Result struct {
	Body        []byte
	ContentType string
	Encoding    string
	FinalURL    string
}

// NewClient builds a client; zero values fall back to a 30s timeout and a 1s
// delay between requests.
func NewClient(timeout, minDelay time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if minDelay <= 0 {
		minDelay = time.Second
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		minDelay:  minDelay,
	}
}

// Get fetches the URL, honoring the minimum inter-request delay and retrying
// transient failures (network errors, 429, 5xx) with exponential backoff.
func (c *Client) Get(ctx context.Context, url string) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(1<<(attempt-2)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, retryable, err := c.getOnce(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) (*Result, bool, error) {
	c.waitTurn(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("server returned %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("server returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	_, encodingName, _ := charset.DetermineEncoding(peek(body), contentType)

	return &Result{
		Body:        body,
		ContentType: contentType,
		Encoding:    encodingName,
		FinalURL:    resp.Request.URL.String(),
	}, false, nil
}

// waitTurn blocks until the mandatory delay since the previous request has
// elapsed.
func (c *Client) waitTurn(ctx context.Context) {
	c.mu.Lock()
	now := time.Now()
	wait := c.minDelay - now.Sub(c.last)
	if wait < 0 {
		wait = 0
	}
	c.last = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// UTF8Reader wraps the body in a reader that transcodes from the detected
// charset to UTF-8, suitable for HTML parsing.
func (r *Result) UTF8Reader() (io.Reader, error) {
	reader, err := charset.NewReader(bytes.NewReader(r.Body), r.ContentType)
	if err != nil {
		return nil, fmt.Errorf("charset reader: %w", err)
	}
	return reader, nil
}

func peek(body []byte) []byte {
	if len(body) > 1024 {
		return body[:1024]
	}
	return body
}
