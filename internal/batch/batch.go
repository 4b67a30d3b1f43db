// Package batch scrapes a list of listings read from CSV and writes one JSON
// file per listing.
package batch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dimchansky/utfbom"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	scraper "github.com/rishabh-registerkaro/review-scrapper"
)

type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.ScrapeResult, error)
}

// Outcome is the result of one listing; Err is set when it failed.
type Outcome struct {
	URL      string
	File     string
	Reviews  int
	Err      error
	Duration time.Duration
}

// Runner scrapes listings with at most Workers scrapes in flight.
type Runner struct {
	Scraper Scraper
	OutDir  string
	Workers int
	Log     zerolog.Logger
}

func looksLikeURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ReadURLs returns the first column of every non-empty CSV row. A leading
// byte order mark is skipped, as is a first row that is not a URL (a header).
func ReadURLs(r io.Reader) ([]string, error) {
	reader := csv.NewReader(utfbom.SkipOnly(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var urls []string
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		v := strings.TrimSpace(record[0])
		if v == "" || (line == 0 && !looksLikeURL(v)) {
			continue
		}
		urls = append(urls, v)
	}
	return urls, nil
}

var reUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug names the output file of a listing URL after its company segment.
func Slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return reUnsafe.ReplaceAllString(rawURL, "_")
	}
	name := strings.Trim(strings.TrimPrefix(u.Path, "/review/"), "/")
	if name == "" {
		name = u.Host
	}
	return strings.Trim(reUnsafe.ReplaceAllString(name, "_"), "_")
}

// Run scrapes urls and writes <OutDir>/<slug>.json for each success.
// Failures of single listings are reported in the outcomes; the error is
// only set when the run itself could not proceed.
func (b Runner) Run(ctx context.Context, urls []string) ([]Outcome, error) {
	if err := os.MkdirAll(b.OutDir, 0777); err != nil {
		return nil, fmt.Errorf("couldn't create directory: %v", b.OutDir)
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]Outcome, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			outcomes[i] = b.one(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (b Runner) one(ctx context.Context, rawURL string) Outcome {
	start := time.Now()
	out := Outcome{URL: rawURL}
	log := b.Log.With().Str("url", rawURL).Logger()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	res, err := b.Scraper.Scrape(ctx, rawURL)
	out.Duration = time.Since(start)
	if err != nil {
		log.Warn().Err(err).Msg("listing failed")
		out.Err = err
		return out
	}

	out.File = filepath.Join(b.OutDir, Slug(rawURL)+".json")
	if err := WriteJSON(out.File, res); err != nil {
		out.Err = err
		return out
	}
	out.Reviews = len(res.Reviews)
	log.Info().Int("reviews", out.Reviews).Str("file", out.File).Msg("listing written")
	return out
}

// WriteJSON writes v indented to filename.
func WriteJSON(filename string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, append(b, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// Failed counts the outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// ErrSomeFailed is returned by callers that treat any failed listing as a
// failed run.
var ErrSomeFailed = errors.New("some listings failed")
