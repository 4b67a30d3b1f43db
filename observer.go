package scraper

import "time"

// Observer receives scrape progress events, e.g. for metrics.
type Observer interface {
	CardFailed()
	PageScraped(pageNum, reviews int)
	PaginationStopped(reason string)
	ScrapeFinished(outcome string, elapsed time.Duration, reviews int)
}

type nopObserver struct{}

func (nopObserver) CardFailed() {}
func (nopObserver) PageScraped(int, int) {}
func (nopObserver) PaginationStopped(string) {}
func (nopObserver) ScrapeFinished(string, time.Duration, int) {}
