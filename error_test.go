package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestErrorMessages(t *testing.T) {
	got := []string{
		ValidationError{Reason: "URL is required"}.Error(),
		ValidationError{"https://example.com", "not a listing"}.Error(),
		ScrapeError{"navigate", testListingURL, errors.New("net::ERR_ABORTED")}.Error(),
		CardError{3, errors.New("empty selection")}.Error(),
		ReplayMissingError{"rec/1.html"}.Error(),
	}
	shouldBe := []string{
		"URL is required",
		`invalid Trustpilot URL "https://example.com": not a listing`,
		"scraping failed: navigate: net::ERR_ABORTED",
		"review card #3: empty selection",
		"record file 'rec/1.html' is missing while replaying! Retry with record mode!",
	}
	if diff := cmp.Diff(shouldBe, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}

func TestScrapeError_Unwrap(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ScrapeError{"wait", testListingURL, fmt.Errorf("%w: timeout", ErrReviewsNotFound)})
	if !errors.Is(err, ErrReviewsNotFound) {
		t.Errorf("errors.Is(ErrReviewsNotFound) = false")
	}
	err = ScrapeError{"cancelled", testListingURL, context.Canceled}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is(context.Canceled) = false")
	}
	if IsValidationError(err) {
		t.Errorf("IsValidationError(ScrapeError) = true")
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://www.trustpilot.com/review/example.com",
		"https://trustpilot.com/review/example.com?page=2",
		"http://uk.trustpilot.com/review/www.example.co.uk/",
	}
	for _, rawURL := range valid {
		if err := ValidateURL(rawURL); err != nil {
			t.Errorf("ValidateURL(%q) = %v", rawURL, err)
		}
	}
	invalid := []string{
		"   ",
		"not a url",
		"https://www.trustpilot.com/",
		"https://www.trustpilot.org/review/example.com",
		"mailto:review@trustpilot.com",
	}
	for _, rawURL := range invalid {
		if err := ValidateURL(rawURL); !IsValidationError(err) {
			t.Errorf("ValidateURL(%q) = %v, want ValidationError", rawURL, err)
		}
	}
}
