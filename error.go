package scraper

import (
	"errors"
	"fmt"
)

// ErrReviewsNotFound reports that the review listing never rendered a card.
var ErrReviewsNotFound = errors.New("reviews not found on page - page may not have loaded correctly")

// ValidationError rejects a target URL before any browser work is done.
type ValidationError struct {
	URL    string
	Reason string
}

func (err ValidationError) Error() string {
	if err.URL == "" {
		return err.Reason
	}
	return fmt.Sprintf("invalid Trustpilot URL %q: %v", err.URL, err.Reason)
}

// ScrapeError is a fatal failure of one scrape call.
type ScrapeError struct {
	Phase string // open, navigate, wait, snapshot, cancelled
	URL   string
	Err   error
}

func (err ScrapeError) Error() string {
	return fmt.Sprintf("scraping failed: %v: %v", err.Phase, err.Err)
}

func (err ScrapeError) Unwrap() error {
	return err.Err
}

// CardError drops a single review card; the rest of the page is kept.
type CardError struct {
	Index int
	Err   error
}

func (err CardError) Error() string {
	return fmt.Sprintf("review card #%d: %v", err.Index, err.Err)
}

func (err CardError) Unwrap() error {
	return err.Err
}

// ReplayMissingError is returned in replay mode when the next recorded page
// does not exist.
type ReplayMissingError struct {
	Filename string
}

func (err ReplayMissingError) Error() string {
	return fmt.Sprintf("record file '%v' is missing while replaying! Retry with record mode!", err.Filename)
}
