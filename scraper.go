package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds the initial navigation.
	DefaultTimeout = 30 * time.Second
	// DefaultReadyTimeout bounds the wait for the first review card.
	DefaultReadyTimeout = 15 * time.Second
	// DefaultNavigationTimeout bounds a click on the next page control.
	DefaultNavigationTimeout = 15 * time.Second
	// DefaultPageDelay lets dynamic content settle after changing pages.
	DefaultPageDelay = 1 * time.Second
	// DefaultMaxPages is the page ceiling of one scrape.
	DefaultMaxPages = 5
)

// Options configures a Scraper. Zero durations and MaxPages fall back to
// the defaults above, except PageDelay where zero means no pause.
type Options struct {
	MaxPages          int
	Timeout           time.Duration
	ReadyTimeout      time.Duration
	NavigationTimeout time.Duration
	PageDelay         time.Duration
	Logger            zerolog.Logger
	Observer          Observer
	Now               func() time.Time
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxPages:          DefaultMaxPages,
		Timeout:           DefaultTimeout,
		ReadyTimeout:      DefaultReadyTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		PageDelay:         DefaultPageDelay,
		Logger:            zerolog.Nop(),
	}
}

func (opts Options) withDefaults() Options {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

// Scraper collects the reviews of one company listing per call.
type Scraper struct {
	opener PageOpener
	opts   Options
}

func New(opener PageOpener, opts Options) *Scraper {
	return &Scraper{opener: opener, opts: opts.withDefaults()}
}

// MaxPages returns the page ceiling in effect.
func (s *Scraper) MaxPages() int {
	return s.opts.MaxPages
}

// ValidateURL accepts only Trustpilot review listing URLs.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ValidationError{Reason: "URL is required"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ValidationError{rawURL, err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{rawURL, "scheme must be http or https"}
	}
	host := strings.ToLower(u.Hostname())
	if host != "trustpilot.com" && !strings.HasSuffix(host, ".trustpilot.com") {
		return ValidationError{rawURL, `URL must contain "trustpilot.com/review/"`}
	}
	if !strings.HasPrefix(u.Path, "/review/") || strings.Trim(strings.TrimPrefix(u.Path, "/review/"), "/") == "" {
		return ValidationError{rawURL, `URL must contain "trustpilot.com/review/<company>"`}
	}
	return nil
}

// Scrape collects the reviews of the listing at rawURL, following the
// pagination up to the page ceiling. Validation failures are returned as
// ValidationError, fatal load failures as ScrapeError. Pagination problems
// only end the scrape early.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*ScrapeResult, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	log := s.opts.Logger.With().Str("url", rawURL).Logger()
	start := time.Now()
	log.Info().Int("max_pages", s.opts.MaxPages).Msg("scraping started")

	result, err := s.scrape(ctx, rawURL, log)
	if err != nil {
		log.Error().Err(err).Msg("scraping failed")
		s.opts.Observer.ScrapeFinished("error", time.Since(start), 0)
		return nil, err
	}

	log.Info().
		Int("reviews", len(result.Reviews)).
		Int("pages", result.Pages).
		Dur("elapsed", time.Since(start)).
		Msg("scraping completed")
	s.opts.Observer.ScrapeFinished("ok", time.Since(start), len(result.Reviews))
	return result, nil
}

func (s *Scraper) scrape(ctx context.Context, rawURL string, log zerolog.Logger) (*ScrapeResult, error) {
	session, err := s.opener.OpenPage(ctx)
	if err != nil {
		return nil, ScrapeError{"open", rawURL, err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("closing page failed")
			return
		}
		log.Debug().Msg("page closed")
	}()

	log.Debug().Dur("timeout", s.opts.Timeout).Msg("navigating")
	if err := session.Navigate(ctx, rawURL, s.opts.Timeout); err != nil {
		return nil, ScrapeError{"navigate", rawURL, err}
	}
	if err := session.WaitReady(ctx, SelectorReviewCard, s.opts.ReadyTimeout); err != nil {
		return nil, ScrapeError{"wait", rawURL, fmt.Errorf("%w: %v", ErrReviewsNotFound, err)}
	}
	page, err := session.Snapshot(ctx)
	if err != nil {
		return nil, ScrapeError{"snapshot", rawURL, err}
	}

	meta := ReadMetadata(page)
	log.Info().Str("company", meta.Company).Int("total", meta.TotalReviews).Msg("company metadata read")

	result := &ScrapeResult{
		Company:      meta.Company,
		URL:          rawURL,
		TotalReviews: meta.TotalReviews,
		Reviews:      []Review{},
	}
	state := PaginationState{Page: 1, MaxPages: s.opts.MaxPages}
	paginator := Paginator{Timeout: s.opts.NavigationTimeout, Log: log}

	for {
		reviews := ExtractPage(page, state.Page, s.opts.Now(), log, s.opts.Observer)
		result.Reviews = append(result.Reviews, reviews...)
		result.Pages = state.Page
		state.Collected += len(reviews)
		s.opts.Observer.PageScraped(state.Page, len(reviews))
		log.Info().
			Int("page", state.Page).
			Int("reviews", len(reviews)).
			Int("collected", state.Collected).
			Msg("page scraped")

		if len(reviews) > 0 && state.AtCeiling() {
			log.Info().Int("max_pages", state.MaxPages).Msg("page limit reached")
			s.opts.Observer.PaginationStopped("ceiling")
			break
		}
		if next := paginator.Next(ctx, session, page, len(reviews)); next != HasNext {
			s.opts.Observer.PaginationStopped(next.String())
			break
		}
		state.Page++

		if err := sleep(ctx, s.opts.PageDelay); err != nil {
			return nil, ScrapeError{"cancelled", rawURL, err}
		}
		page, err = s.nextPage(ctx, session, log)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ScrapeError{"cancelled", rawURL, ctx.Err()}
			}
			log.Warn().Err(err).Int("page", state.Page).Msg("reading next page failed")
			s.opts.Observer.PaginationStopped(Blocked.String())
			break
		}
	}

	result.ScrapedAt = s.opts.Now()
	return result, nil
}

// nextPage waits for the cards of a page reached by pagination. A page that
// never shows a card is returned as is; it extracts to nothing and ends
// pagination.
func (s *Scraper) nextPage(ctx context.Context, session PageSession, log zerolog.Logger) (*Page, error) {
	if err := session.WaitReady(ctx, SelectorReviewCard, s.opts.ReadyTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Info().Err(err).Msg("no review cards after page change")
	}
	return session.Snapshot(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsValidationError reports whether err rejected the input rather than
// failing the scrape.
func IsValidationError(err error) bool {
	var verr ValidationError
	return errors.As(err, &verr)
}
