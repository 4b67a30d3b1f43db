package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SelectorReviewCard matches one review card of the listing.
const SelectorReviewCard = "[data-service-review-card-paper]"

const (
	attrRating    = "data-service-review-rating"
	attrAltRating = "data-rating"

	defaultReviewerName  = "Anonymous"
	defaultReviewerTotal = "1 review"

	// isoMillis is UTC RFC 3339 with millisecond precision.
	isoMillis = "2006-01-02T15:04:05.000Z"
)

// altRatingSelectors are tried in order once neither the rating element nor
// the card itself carries a usable rating attribute.
var altRatingSelectors = []string{
	"div[data-service-review-rating]",
	"[data-rating]",
	".star-rating",
	`img[alt*="Rated"]`,
}

var reExperienceLabel = regexp.MustCompile(`(?i)^date of experience:?\s*`)

func parseRating(v string) (int, bool) {
	n, ok := leadingInt(v)
	if !ok || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

func imgAlt(s *goquery.Selection) (string, bool) {
	if goquery.NodeName(s) != "img" {
		return "", false
	}
	return s.Attr("alt")
}

// ratingAttrs reads data-service-review-rating, else data-rating, of the
// element itself. The second attribute is only consulted when the first is
// empty.
var ratingAttrs = FirstOf(
	NonEmpty(Attr("", attrRating)),
	NonEmpty(Attr("", attrAltRating)),
)

func altRating(selector string) Extractor[int] {
	return Within(selector, FirstOf(
		Map(ratingAttrs, parseRating),
		Map(Extractor[string](imgAlt), func(alt string) (int, bool) {
			n, ok := firstDigits(alt)
			if !ok || n < 1 || n > 5 {
				return 0, false
			}
			return n, true
		}),
	))
}

func ratingChain() Extractor[int] {
	chain := []Extractor[int]{
		Map(NonEmpty(Attr("["+attrRating+"]", attrRating)), parseRating),
		Map(NonEmpty(Attr("", attrRating)), parseRating),
	}
	for _, sel := range altRatingSelectors {
		chain = append(chain, altRating(sel))
	}
	return FirstOf(chain...)
}

// isoDate converts a machine readable datetime to ISO-8601 in UTC.
func isoDate(v string) (string, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Format(isoMillis), true
		}
	}
	return "", false
}

var (
	rating = ratingChain()

	reviewerName = FirstOf(
		NonEmpty(Text(`[data-consumer-name-typography="true"]`)),
		NonEmpty(Text(`span[data-consumer-name-typography]`)),
	)
	reviewerImage = Attr(`img[data-consumer-avatar-image="true"]`, "src")
	title         = FirstOf(
		Text(`h2[data-service-review-title-typography="true"]`),
		Text(`[data-service-review-title-typography]`),
	)
	content = FirstOf(
		Text(`p[data-service-review-text-typography="true"]`),
		Text(`[data-service-review-text-typography]`),
	)
	reviewDate          = Map(Attr("time[datetime]", "datetime"), isoDate)
	reviewDateFormatted = Text("time[datetime]")
	dateOfExperience    = FirstOf(
		Text("[data-service-review-date-of-experience] time"),
		Map(Text("[data-service-review-date-of-experience-typography]"), func(v string) (string, bool) {
			return cleanText(reExperienceLabel.ReplaceAllString(v, "")), true
		}),
	)
	reviewerLocation     = Text(`[data-consumer-country-typography="true"]`)
	reviewerTotalReviews = Text(`[data-consumer-reviews-count-typography="true"]`)
	companyReply         = FirstOf(
		Text("[data-service-review-business-reply-content]"),
		Text("[data-service-review-business-reply-text-typography]"),
	)
	helpfulVotes = Map(Text("[data-service-review-helpful-count]"), firstDigits)
	isVerified   = Exists("[data-service-review-verification-badge]")
)

// reviewImages has one entry per image, in document order. An image
// without a source gives "".
func reviewImages(card *goquery.Selection, base *url.URL) []string {
	images := []string{}
	card.Find("[data-service-review-image] img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		images = append(images, resolveLink(base, src))
	})
	return images
}

// ExtractReview normalizes the index-th card of page pageNum. Missing fields
// take their defaults; only a card that cannot be walked at all is an error.
func ExtractReview(card *goquery.Selection, base *url.URL, pageNum, index int, now time.Time) (review Review, err error) {
	defer func() {
		if r := recover(); r != nil {
			review = Review{}
			err = CardError{index, fmt.Errorf("panic: %v", r)}
		}
	}()

	if card == nil || card.Length() == 0 {
		return Review{}, CardError{index, errors.New("empty selection")}
	}
	card = card.First()

	avatar, _ := reviewerImage(card)

	return Review{
		ReviewerName:         reviewerName.Or(card, defaultReviewerName),
		ReviewerImage:        resolveLink(base, avatar),
		Rating:               rating.Or(card, 0),
		Title:                title.Or(card, ""),
		Content:              content.Or(card, ""),
		ReviewDate:           reviewDate.Or(card, ""),
		ReviewDateFormatted:  reviewDateFormatted.Or(card, ""),
		DateOfExperience:     dateOfExperience.Or(card, ""),
		ReviewImages:         reviewImages(card, base),
		IsVerified:           isVerified.Or(card, false),
		CompanyReply:         companyReply.Or(card, ""),
		ReviewID:             ReviewID(pageNum, index),
		ReviewerLocation:     reviewerLocation.Or(card, ""),
		ReviewerTotalReviews: reviewerTotalReviews.Or(card, defaultReviewerTotal),
		HelpfulVotes:         helpfulVotes.Or(card, 0),
		ScrapedAt:            now,
	}, nil
}
