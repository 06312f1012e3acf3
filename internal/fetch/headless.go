package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"livesearch/internal/config"
)

// chromeRenderer renders pages in headless Chrome via the DevTools
// protocol. A browser context is acquired per render and released on
// every exit path.
type chromeRenderer struct {
	execPath string
	timeout  time.Duration
	settle   time.Duration
}

func newChromeRenderer(cfg config.Fetch) *chromeRenderer {
	return &chromeRenderer{
		execPath: cfg.ExecPath,
		timeout:  cfg.HeadlessTimeoutDuration(),
		settle:   cfg.HeadlessSettleDuration(),
	}
}

// Render navigates to the URL, waits a fixed settle delay for scripts
// to populate the DOM, and returns the serialized document.
func (r *chromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(RandomUserAgent()),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Page-load cap plus the settle delay bounds the whole render.
	runCtx, cancelRun := context.WithTimeout(browserCtx, r.timeout+r.settle)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(r.settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
