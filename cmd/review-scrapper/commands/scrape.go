package commands

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rishabh-registerkaro/review-scrapper/internal/batch"
)

var scrapeFlags struct {
	browserFlags
	out string
}

func init() {
	scrapeFlags.register(scrapeCmd)
	scrapeCmd.Flags().StringVarP(&scrapeFlags.out, "out", "o", "", "write the result to this file instead of stdout")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url> [--pages n] [--out file] [--record dir | --replay dir]",
	Short: "Scrapes one Trustpilot listing and prints the reviews as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := newScraper(scrapeFlags.browserFlags)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := s.Scrape(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		log.Info().Int("reviews", len(res.Reviews)).Int("pages", res.Pages).Msg("scrape finished")

		if scrapeFlags.out != "" {
			return batch.WriteJSON(scrapeFlags.out, res)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}
