package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "review_scrapper"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	Scrapes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "scrapes_total", Help: "Finished scrapes."},
		[]string{"outcome"}, // ok|error
	)
	ScrapeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "scrape_duration_seconds",
			Help:    "Scrape duration seconds.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)
	Pages = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "pages_scraped_total", Help: "Listing pages extracted."},
	)
	Reviews = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "reviews_scraped_total", Help: "Reviews extracted."},
	)
	CardFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "review_card_failures_total", Help: "Review cards skipped."},
	)
	PaginationStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "pagination_stops_total", Help: "Why pagination ended."},
		[]string{"reason"}, // ceiling|exhausted|blocked
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets."},
		[]string{"cache", "event"}, // event: hit|miss|set|error
	)
)

// Serve exposes reg on addr in the background. An empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, Scrapes, ScrapeLatency, Pages, Reviews,
		CardFailures, PaginationStops, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|error
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// ScrapeObserver feeds scrape progress into the collectors above.
type ScrapeObserver struct{}

func (ScrapeObserver) CardFailed() { CardFailures.Inc() }

func (ScrapeObserver) PageScraped(pageNum, reviews int) {
	Pages.Inc()
	Reviews.Add(float64(reviews))
}

func (ScrapeObserver) PaginationStopped(reason string) {
	PaginationStops.WithLabelValues(reason).Inc()
}

func (ScrapeObserver) ScrapeFinished(outcome string, elapsed time.Duration, reviews int) {
	Scrapes.WithLabelValues(outcome).Inc()
	ScrapeLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
