package scraper

import (
	"fmt"
	"time"
)

// PageSize is the number of reviews the listing shows per page. Review IDs
// are derived from it rather than from the observed card count.
const PageSize = 20

// Review is one review card, normalized.
type Review struct {
	ReviewerName         string    `json:"reviewerName"`
	ReviewerImage        string    `json:"reviewerImage"`
	Rating               int       `json:"rating"`
	Title                string    `json:"title"`
	Content              string    `json:"content"`
	ReviewDate           string    `json:"reviewDate"`
	ReviewDateFormatted  string    `json:"reviewDateFormatted"`
	DateOfExperience     string    `json:"dateOfExperience"`
	ReviewImages         []string  `json:"reviewImages"`
	IsVerified           bool      `json:"isVerified"`
	CompanyReply         string    `json:"companyReply"`
	ReviewID             string    `json:"reviewId"`
	ReviewerLocation     string    `json:"reviewerLocation"`
	ReviewerTotalReviews string    `json:"reviewerTotalReviews"`
	HelpfulVotes         int       `json:"helpfulVotes"`
	ScrapedAt            time.Time `json:"scrapedAt"`
}

// ScrapeResult is everything collected by one Scrape call.
type ScrapeResult struct {
	Company      string    `json:"company"`
	URL          string    `json:"url"`
	ScrapedAt    time.Time `json:"scrapedAt"`
	TotalReviews int       `json:"totalReviews"`
	Pages        int       `json:"pages"`
	Reviews      []Review  `json:"reviews"`
}

// ReviewID returns the identifier of the index-th card (0-based) on page
// pageNum (1-based).
func ReviewID(pageNum, index int) string {
	return fmt.Sprintf("review-%d", (pageNum-1)*PageSize+index)
}
