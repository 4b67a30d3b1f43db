package scraper

import (
	"github.com/PuerkitoBio/goquery"
)

const defaultCompanyName = "Unknown Company"

var companyNameSelectors = []string{
	`h1[data-company-name-typography="true"]`,
	".title-section h1",
	"h1",
}

var reviewCountSelectors = []string{
	`p[class*="typography_body-l__KUYFJ typography_appearance-default__AAY17"]`,
	`[data-reviews-count-typography="true"]`,
	`p[data-rating-typography="true"] + p`,
	".summary-section p",
}

// Metadata is read once from the first page, outside the review cards.
type Metadata struct {
	Company string
	// TotalReviews is the count the page advertises, or the number of cards
	// on the first page when it advertises none. It never bounds pagination.
	TotalReviews int
}

func companyName() Extractor[string] {
	chain := make([]Extractor[string], 0, len(companyNameSelectors))
	for _, sel := range companyNameSelectors {
		chain = append(chain, NonEmpty(Text(sel)))
	}
	return FirstOf(chain...)
}

// reviewCount checks every element matching selector, not only the first.
func reviewCount(selector string) Extractor[int] {
	return func(s *goquery.Selection) (int, bool) {
		var (
			count int
			found bool
		)
		s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			count, found = parseReviewCount(cleanText(el.Text()))
			return !found
		})
		return count, found
	}
}

func totalReviews() Extractor[int] {
	chain := make([]Extractor[int], 0, len(reviewCountSelectors)+1)
	for _, sel := range reviewCountSelectors {
		chain = append(chain, reviewCount(sel))
	}
	chain = append(chain, func(s *goquery.Selection) (int, bool) {
		return s.Find(SelectorReviewCard).Length(), true
	})
	return FirstOf(chain...)
}

var (
	companyNameChain  = companyName()
	totalReviewsChain = totalReviews()
)

// ReadMetadata reads the company display name and the advertised review count.
func ReadMetadata(page *Page) Metadata {
	root := page.Selection
	return Metadata{
		Company:      companyNameChain.Or(root, defaultCompanyName),
		TotalReviews: totalReviewsChain.Or(root, 0),
	}
}
