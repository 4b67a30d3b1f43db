package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// NavState is the outcome of a pagination decision.
type NavState int

const (
	// HasNext: a usable next control exists (or was clicked successfully).
	HasNext NavState = iota
	// Exhausted: no reviews, no next control, or a disabled one.
	Exhausted
	// Blocked: clicking the next control or settling afterwards failed.
	Blocked
)

func (s NavState) String() string {
	switch s {
	case HasNext:
		return "has_next"
	case Exhausted:
		return "exhausted"
	case Blocked:
		return "blocked"
	}
	return "unknown"
}

var nextControlSelectors = []string{
	`a[data-pagination-button-next-link="true"]`,
	`a[name="pagination-button-next"]`,
	`.pagination-container a[aria-label*="Next"]`,
}

// Decision says whether to advance and which control to click.
type Decision struct {
	State    NavState
	Selector string
	Reason   string
}

// PaginationState tracks one scrape's progress through the listing.
type PaginationState struct {
	Page      int
	Collected int
	MaxPages  int
}

// AtCeiling reports whether the current page is the last one allowed.
func (s PaginationState) AtCeiling() bool {
	return s.Page >= s.MaxPages
}

func isDisabled(control *goquery.Selection) bool {
	if v, ok := control.Attr("aria-disabled"); ok && v == "true" {
		return true
	}
	if _, ok := control.Attr("disabled"); ok {
		return true
	}
	return control.HasClass("disabled")
}

// Decide picks the next step after extracting extracted reviews from page.
// It only reads the snapshot.
func Decide(page *Page, extracted int) Decision {
	if extracted == 0 {
		return Decision{State: Exhausted, Reason: "no reviews on page"}
	}
	for _, sel := range nextControlSelectors {
		control := page.Find(sel).First()
		if control.Length() == 0 {
			continue
		}
		if isDisabled(control) {
			return Decision{State: Exhausted, Selector: sel, Reason: "next control disabled"}
		}
		return Decision{State: HasNext, Selector: sel}
	}
	return Decision{State: Exhausted, Reason: "next control not found"}
}

// Paginator moves a page session to the next listing page.
type Paginator struct {
	Timeout time.Duration
	Log     zerolog.Logger
}

// Advance executes a decision. Click and settle failures end pagination as
// Blocked; they are logged and never returned.
func (p Paginator) Advance(ctx context.Context, session PageSession, d Decision) NavState {
	if d.State != HasNext {
		p.Log.Info().Str("state", d.State.String()).Str("reason", d.Reason).Msg("no more pages")
		return d.State
	}
	p.Log.Debug().Str("selector", d.Selector).Msg("clicking next page control")
	if err := session.ClickAndSettle(ctx, d.Selector, p.Timeout); err != nil {
		p.Log.Warn().Err(err).Str("selector", d.Selector).Msg("navigation to next page failed")
		return Blocked
	}
	return HasNext
}

// Next decides and advances in one step.
func (p Paginator) Next(ctx context.Context, session PageSession, page *Page, extracted int) NavState {
	return p.Advance(ctx, session, Decide(page, extracted))
}
