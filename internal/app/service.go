package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	scraper "github.com/rishabh-registerkaro/review-scrapper"
)

type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.ScrapeResult, error)
	MaxPages() int
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Store interface {
	SaveResult(ctx context.Context, res *scraper.ScrapeResult) (int64, error)
}

// ScrapeService puts an optional result cache and an optional store in
// front of a Scraper. Cache and store failures are logged, never returned.
type ScrapeService struct {
	scraper  Scraper
	cache    Cache
	store    Store
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewScrapeService builds the service; c and st may be nil.
func NewScrapeService(s Scraper, c Cache, st Store, ttl time.Duration, log zerolog.Logger) *ScrapeService {
	return &ScrapeService{scraper: s, cache: c, store: st, cacheTTL: ttl, log: log}
}

func cacheKey(url string, maxPages int) string {
	return fmt.Sprintf("scrape:%d:%s", maxPages, strings.TrimSpace(url))
}

// Scrape returns the reviews of url, from the cache when they are fresh.
func (s *ScrapeService) Scrape(ctx context.Context, url string) (*scraper.ScrapeResult, error) {
	url = strings.TrimSpace(url)
	if err := scraper.ValidateURL(url); err != nil {
		return nil, err
	}
	log := s.log.With().Str("url", url).Logger()
	key := cacheKey(url, s.scraper.MaxPages())

	if s.cache != nil {
		var cached scraper.ScrapeResult
		ok, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("cache lookup failed")
		}
		if ok {
			log.Info().Int("reviews", len(cached.Reviews)).Msg("served from cache")
			return &cached, nil
		}
	}

	res, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if id, err := s.store.SaveResult(ctx, res); err != nil {
			log.Error().Err(err).Msg("storing scrape failed")
		} else {
			log.Debug().Int64("scrape_id", id).Msg("scrape stored")
		}
	}
	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, res, s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("cache store failed")
		}
	}
	return res, nil
}
