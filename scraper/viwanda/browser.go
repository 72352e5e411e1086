package viwanda

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"cropprice-harvester/utils"
)

// BrowserLinkSource reads listing pages through headless Chrome, for when the
// listing is rendered client-side.
type BrowserLinkSource struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	logger   *utils.Logger
}

// NewBrowserLinkSource starts a headless browser allocator. chromeBin may be
// empty, in which case a Chrome or Chromium install is looked up.
func NewBrowserLinkSource(chromeBin string, timeout time.Duration, logger *utils.Logger) *BrowserLinkSource {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &BrowserLinkSource{allocCtx: allocCtx, cancel: cancel, timeout: timeout, logger: logger}
}

// Links navigates to pageURL and returns every anchor's href attribute as
// written in the markup.
func (b *BrowserLinkSource) Links(ctx context.Context, pageURL string) ([]string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var hrefs []string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('a[href]')).map(a => a.getAttribute('href'))`, &hrefs),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: render %s: %w", ErrFetch, pageURL, err)
	}
	b.logger.Debug("[browser] %s: %d links", pageURL, len(hrefs))
	return hrefs, nil
}

// Close shuts the browser down.
func (b *BrowserLinkSource) Close() {
	b.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
