package scraper

import (
	"context"
	"time"
)

// PageSession is one isolated browser tab owned by a single scrape.
type PageSession interface {
	// Navigate loads url and waits for the network to settle.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitReady waits for the first element matching selector.
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	// Snapshot parses the current DOM.
	Snapshot(ctx context.Context) (*Page, error)
	// ClickAndSettle clicks the first element matching selector and waits
	// for the resulting navigation to settle.
	ClickAndSettle(ctx context.Context, selector string, timeout time.Duration) error
	Close() error
}

// PageOpener hands out page sessions, typically from a shared browser.
type PageOpener interface {
	OpenPage(ctx context.Context) (PageSession, error)
}
