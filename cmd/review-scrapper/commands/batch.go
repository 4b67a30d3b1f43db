package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rishabh-registerkaro/review-scrapper/internal/batch"
)

var batchFlags struct {
	browserFlags
	input   string
	out     string
	workers int
}

func init() {
	batchFlags.register(batchCmd)
	batchCmd.Flags().StringVarP(&batchFlags.input, "input", "i", "", "CSV file with one listing URL per row")
	batchCmd.Flags().StringVarP(&batchFlags.out, "out", "o", "results", "directory for the <company>.json files")
	batchCmd.Flags().IntVarP(&batchFlags.workers, "workers", "w", 0, "listings scraped at once (default MAX_CONCURRENT_PAGES)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch --input urls.csv [--out dir] [--workers n]",
	Short: "Scrapes every listing of a CSV file into one JSON file each.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(batchFlags.input)
		if err != nil {
			return err
		}
		urls, err := batch.ReadURLs(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("read %v: %w", batchFlags.input, err)
		}
		log.Info().Int("listings", len(urls)).Msg("batch started")

		s, closeFn, err := newScraper(batchFlags.browserFlags)
		if err != nil {
			return err
		}
		defer closeFn()

		workers := batchFlags.workers
		if workers <= 0 {
			workers = cfg.MaxConcurrentPages
		}
		runner := batch.Runner{Scraper: s, OutDir: batchFlags.out, Workers: workers, Log: log.Logger}
		outcomes, err := runner.Run(cmd.Context(), urls)
		for _, o := range outcomes {
			if o.Err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %v: %v\n", o.URL, o.Err)
				continue
			}
			fmt.Printf("ok   %v: %d reviews -> %v\n", o.URL, o.Reviews, o.File)
		}
		if err != nil {
			return err
		}
		if n := batch.Failed(outcomes); n > 0 {
			return fmt.Errorf("%w: %d of %d", batch.ErrSomeFailed, n, len(outcomes))
		}
		return nil
	},
}
