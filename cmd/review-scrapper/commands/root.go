package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	scraper "github.com/rishabh-registerkaro/review-scrapper"
	"github.com/rishabh-registerkaro/review-scrapper/internal/config"
	"github.com/rishabh-registerkaro/review-scrapper/internal/observability"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "review-scrapper",
	Short:         "review-scrapper collects Trustpilot reviews with headless Chrome.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		log.Logger = observability.NewLogger(cfg.AppEnv)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// browserFlags are shared by the commands that drive Chrome.
type browserFlags struct {
	maxPages int
	record   string
	replay   string
}

func (f *browserFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxPages, "pages", 0, "maximum listing pages per scrape (default MAX_PAGES)")
	cmd.Flags().StringVar(&f.record, "record", "", "save every visited page under this directory")
	cmd.Flags().StringVar(&f.replay, "replay", "", "serve pages recorded under this directory instead of Chrome")
	cmd.MarkFlagsMutuallyExclusive("record", "replay")
}

// newScraper wires a Scraper to Chrome, or to a recording. The returned
// close function shuts Chrome down.
func newScraper(f browserFlags) (*scraper.Scraper, func(), error) {
	var opener scraper.PageOpener
	closeFn := func() {}

	if f.replay != "" {
		opener = scraper.ReplayOpener{Dir: f.replay}
	} else {
		chrome := scraper.DefaultChromeOptions()
		chrome.Headless = cfg.Headless
		chrome.ExecPath = cfg.ChromePath
		chrome.MaxConcurrentPages = cfg.MaxConcurrentPages
		chrome.NoSandbox = config.IsProduction(cfg.AppEnv)
		chrome.LowMemory = cfg.Render
		chrome.Logger = log.Logger
		if cfg.CookieFile != "" {
			cookies, err := scraper.NewCookieStore(cfg.CookieFile)
			if err != nil {
				return nil, nil, fmt.Errorf("open cookie file: %w", err)
			}
			chrome.Cookies = cookies
		}
		pool := scraper.NewBrowserPool(chrome)
		opener = pool
		closeFn = func() {
			if err := pool.Close(); err != nil {
				log.Warn().Err(err).Msg("closing browser failed")
			}
		}
		if f.record != "" {
			opener = scraper.RecordingOpener{Opener: pool, Dir: f.record, Logger: log.Logger}
		}
	}

	opts := scraper.DefaultOptions()
	opts.MaxPages = cfg.MaxPages
	if f.maxPages > 0 {
		opts.MaxPages = f.maxPages
	}
	opts.Timeout = cfg.Timeout
	opts.PageDelay = cfg.PageDelay
	opts.Logger = log.Logger
	opts.Observer = observability.ScrapeObserver{}
	if f.replay != "" {
		opts.PageDelay = 0
	}
	return scraper.New(opener, opts), closeFn, nil
}
