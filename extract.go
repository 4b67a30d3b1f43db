package scraper

import (
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// extractCard is ExtractReview; tests replace it to make single cards fail.
var extractCard = ExtractReview

// ExtractPage extracts every review card of page in document order. Cards
// that fail are logged, reported to obs and skipped. No cards is a valid,
// empty result.
func ExtractPage(page *Page, pageNum int, now time.Time, log zerolog.Logger, obs Observer) []Review {
	if obs == nil {
		obs = nopObserver{}
	}
	cards := page.Find(SelectorReviewCard)
	log.Debug().Int("page", pageNum).Int("cards", cards.Length()).Msg("review cards found")

	reviews := make([]Review, 0, cards.Length())
	cards.Each(func(index int, card *goquery.Selection) {
		review, err := extractCard(card, page.BaseURL, pageNum, index, now)
		if err != nil {
			log.Warn().Err(err).Int("page", pageNum).Int("index", index).Msg("review card skipped")
			obs.CardFailed()
			return
		}
		log.Trace().
			Int("page", pageNum).
			Int("index", index).
			Int("rating", review.Rating).
			Str("reviewer", review.ReviewerName).
			Msg("review extracted")
		reviews = append(reviews, review)
	})
	return reviews
}
