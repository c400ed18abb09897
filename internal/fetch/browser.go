// Package fetch downloads rendered pages with a headless Chrome.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserOptions configures a BrowserFetcher
type BrowserOptions struct {
	Headless bool
	// WaitSelector is a CSS selector that must be visible before the page is
	// captured; empty waits for the body only
	WaitSelector string
	// Settle is an extra delay after WaitSelector for late scripts
	Settle    time.Duration
	UserAgent string
}

// BrowserFetcher renders a page in Chrome and returns its final HTML. Each
// Fetch starts a fresh browser, so a fetcher is safe for concurrent use.
type BrowserFetcher struct {
	opts   BrowserOptions
	logger *slog.Logger
}

// NewBrowserFetcher creates a browser fetcher
func NewBrowserFetcher(opts BrowserOptions, logger *slog.Logger) *BrowserFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &BrowserFetcher{
		opts:   opts,
		logger: logger.With(slog.String("component", "browser_fetcher")),
	}
}

// ResultsTableSelector waits for the first results table of the page
func ResultsTableSelector(tableClass string) string {
	if tableClass == "" {
		return "table"
	}
	return "table." + tableClass
}

// allocatorOptions builds the Chrome flags of a fetch
func (f *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(f.opts.UserAgent),
		chromedp.WindowSize(1280, 900),
	)
}

// Fetch navigates to url and returns the outer HTML of the document. The
// deadline of ctx bounds the whole browser session.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("empty url")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	wait := f.opts.WaitSelector
	if wait == "" {
		wait = "body"
	}

	start := time.Now()
	var page string
	actions := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitVisible(wait, chromedp.ByQuery),
	}
	if f.opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(f.opts.Settle))
	}
	actions = append(actions, chromedp.OuterHTML("html", &page, chromedp.ByQuery))

	if err := chromedp.Run(browserCtx, actions); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	f.logger.InfoContext(ctx, "Fetched rendered page",
		slog.String("url", url),
		slog.String("wait_selector", wait),
		slog.Int("bytes", len(page)),
		slog.Duration("duration", time.Since(start)))
	return page, nil
}
