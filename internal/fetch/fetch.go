// Package fetch retrieves raw HTML with a layered strategy: a direct
// HTTP request with browser-like headers first, then an optional
// headless-browser rendering fallback for pages that refuse plain
// clients. Fetch failures are terminal per URL, never per run.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"livesearch/internal/config"
	"livesearch/internal/logger"
)

// userAgents is the pool of realistic browser user agents rotated
// across requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// RandomUserAgent picks one user agent from the rotation pool.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Renderer loads a page in a real browser engine and returns the
// serialized DOM after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Client fetches raw HTML for single URLs.
type Client struct {
	cfg      config.Fetch
	http     *http.Client
	renderer Renderer
	sleep    func(time.Duration)
}

// NewClient creates a fetch client. The headless fallback is wired in
// only when enabled in configuration.
func NewClient(cfg config.Fetch) *Client {
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.TimeoutDuration()},
		sleep: time.Sleep,
	}
	if cfg.HeadlessOn {
		c.renderer = newChromeRenderer(cfg)
	}
	return c
}

// Fetch returns the raw HTML for a URL, or the empty string when every
// strategy failed. Errors are logged, never propagated.
func (c *Client) Fetch(ctx context.Context, url string) string {
	logger.Debug("fetching URL", "url", url)

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		html, err := c.fetchDirect(ctx, url)
		if err == nil {
			return html
		}
		logger.Warn("direct fetch attempt failed", "url", url, "attempt", attempt+1, "error", err.Error())
		if attempt < c.cfg.MaxRetries-1 {
			c.sleep(time.Duration(c.cfg.BackoffSeconds) * time.Second * time.Duration(attempt+1))
		}
	}

	if c.renderer != nil {
		logger.Info("falling back to headless rendering", "url", url)
		html, err := c.renderer.Render(ctx, url)
		if err != nil {
			logger.Error("headless rendering failed", err, "url", url)
			return ""
		}
		logger.Debug("headless rendering succeeded", "url", url, "length", len(html))
		return html
	}

	logger.Error("failed to fetch HTML after all attempts", nil, "url", url)
	return ""
}

func (c *Client) fetchDirect(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s)", e.code, http.StatusText(e.code))
}
