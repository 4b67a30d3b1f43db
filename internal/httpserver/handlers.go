package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	scraper "github.com/rishabh-registerkaro/review-scrapper"
	"github.com/rishabh-registerkaro/review-scrapper/internal/config"
)

const (
	serviceName = "Trustpilot Scraper API"
	version     = "1.0.0"

	// DemoURL is scraped by GET /api/scrape-test.
	DemoURL = "https://www.trustpilot.com/review/safeledger.ae"

	maxBodyBytes = 10 << 20
	isoMillis    = "2006-01-02T15:04:05.000Z"
)

type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.ScrapeResult, error)
}

type Handlers struct {
	Svc     Scraper
	Env     string
	Started time.Time
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	*scraper.ScrapeResult
}

type scrapeRequest struct {
	URL string `json:"url"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/", h.index)
	s.mux.Get("/api/health", h.health)
	s.mux.Get("/api/status", h.status)
	s.mux.Post("/api/scrape", h.scrape)
	s.mux.Get("/api/scrape-test", h.scrapeTest)
}

func timestamp() string {
	return time.Now().UTC().Format(isoMillis)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": serviceName,
		"version": version,
		"endpoints": map[string]string{
			"status":     "GET /api/status",
			"health":     "GET /api/health",
			"scrape":     "POST /api/scrape",
			"testScrape": "GET /api/scrape-test",
		},
		"usage": map[string]any{
			"scrape": map[string]any{
				"method": "POST",
				"url":    "/api/scrape",
				"body":   scrapeRequest{URL: "https://www.trustpilot.com/review/company-name"},
			},
		},
	})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"status":      "healthy",
		"timestamp":   timestamp(),
		"uptime":      time.Since(h.Started).Seconds(),
		"environment": h.Env,
	})
}

func (h *Handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"service":     serviceName,
		"version":     version,
		"environment": h.Env,
		"timestamp":   timestamp(),
	})
}

// requestURL reads the target from a JSON or form body.
func requestURL(r *http.Request) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return strings.TrimSpace(r.PostFormValue("url"))
	}
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.URL)
}

func (h *Handlers) scrape(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	h.run(w, r, requestURL(r))
}

func (h *Handlers) scrapeTest(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, DemoURL)
}

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, url string) {
	if url == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "URL is required"})
		return
	}
	if err := scraper.ValidateURL(url); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: `Invalid Trustpilot URL. URL must contain "trustpilot.com/review/"`,
		})
		return
	}

	log.Info().Str("url", url).Msg("scrape requested")
	res, err := h.Svc.Scrape(r.Context(), url)
	if err != nil {
		var verr scraper.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error()})
			return
		}
		log.Error().Err(err).Str("url", url).Msg("scrape failed")
		msg := err.Error()
		if config.IsProduction(h.Env) {
			msg = "Internal server error"
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg, Timestamp: timestamp()})
		return
	}
	log.Info().Str("url", url).Int("reviews", len(res.Reviews)).Msg("scrape served")
	writeJSON(w, http.StatusOK, scrapeResponse{Success: true, ScrapeResult: res})
}
