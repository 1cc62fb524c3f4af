package repository

import (
	"context"
	"time"
)

// BrowserSession defines the contract for the single headless browser tab the scraper drives.
type BrowserSession interface {
	// Navigate loads a URL in the tab.
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until document.readyState is "complete" or the timeout elapses (ErrWaitTimeout).
	WaitReady(ctx context.Context, timeout time.Duration) error
	// WaitPresent blocks until at least one element matches the selector or the timeout elapses (ErrWaitTimeout).
	WaitPresent(ctx context.Context, selector string, timeout time.Duration) error
	// Reveal scrolls every element matching the selector into view, pausing between elements.
	Reveal(ctx context.Context, selector string, pause time.Duration) error
	// CurrentURL returns the URL the tab is currently on.
	CurrentURL(ctx context.Context) (string, error)
	// PageSource returns the rendered markup of the whole document.
	PageSource(ctx context.Context) (string, error)
	// Close releases the browser. It is safe to call more than once.
	Close() error
}
