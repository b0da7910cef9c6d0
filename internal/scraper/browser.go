package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome before returning their HTML.
// It is meant for schedule pages whose content is rendered client-side.
// Requires Chrome/Chromium to be installed on the system.
type BrowserFetcher struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
	settle        time.Duration
}

// NewBrowserFetcher starts a headless browser that lives until Close.
func NewBrowserFetcher(ctx context.Context, timeout time.Duration) (*BrowserFetcher, error) {
	if timeout <= 0 {
		timeout = Timeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(UserAgent),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions launches the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, &FetchError{URL: "about:blank", Message: "starting browser", Cause: err}
	}

	return &BrowserFetcher{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       timeout,
		settle:        time.Second,
	}, nil
}

// Fetch opens url in a new tab and returns the rendered HTML
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	// Stop the tab when the caller gives up
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering time to fill in the page
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &FetchError{URL: url, Message: "browser rendering failed", Cause: err}
	}

	return html, nil
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() error {
	f.browserCancel()
	f.allocCancel()
	return nil
}
