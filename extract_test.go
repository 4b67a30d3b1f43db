package scraper

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestExtractPage(t *testing.T) {
	t.Run("document order", func(t *testing.T) {
		page := mustHtmlPage(t, listingHtml("Example", 3, ""))
		obs := &countingObserver{}
		reviews := ExtractPage(page, 2, testNow, zerolog.Nop(), obs)

		type values struct {
			ID     string
			Name   string
			Rating int
		}
		got := []values{}
		for _, r := range reviews {
			got = append(got, values{r.ReviewID, r.ReviewerName, r.Rating})
		}
		shouldBe := []values{
			{"review-20", "Reviewer 0", 1},
			{"review-21", "Reviewer 1", 2},
			{"review-22", "Reviewer 2", 3},
		}
		if diff := cmp.Diff(shouldBe, got); diff != "" {
			t.Errorf("(-shouldBe +got)\n%v", diff)
		}
		if obs.cardsFailed != 0 {
			t.Errorf("cardsFailed = %v", obs.cardsFailed)
		}
	})

	t.Run("no cards", func(t *testing.T) {
		page := mustHtmlPage(t, `<html><body><p>We could not find any reviews.</p></body></html>`)
		reviews := ExtractPage(page, 1, testNow, zerolog.Nop(), nil)
		if reviews == nil || len(reviews) != 0 {
			t.Errorf("ExtractPage() = %#v, want empty slice", reviews)
		}
	})
}

func TestExtractPage_FailedCardSkipped(t *testing.T) {
	extractCard = func(card *goquery.Selection, base *url.URL, pageNum, index int, now time.Time) (Review, error) {
		if index == 1 {
			return Review{}, CardError{index, errors.New("broken card")}
		}
		return ExtractReview(card, base, pageNum, index, now)
	}
	t.Cleanup(func() { extractCard = ExtractReview })

	var logs bytes.Buffer
	page := mustHtmlPage(t, listingHtml("Example", 4, ""))
	obs := &countingObserver{}
	reviews := ExtractPage(page, 1, testNow, zerolog.New(&logs), obs)

	type values struct {
		ID   string
		Name string
	}
	got := []values{}
	for _, r := range reviews {
		got = append(got, values{r.ReviewID, r.ReviewerName})
	}
	shouldBe := []values{
		{"review-0", "Reviewer 0"},
		{"review-2", "Reviewer 2"},
		{"review-3", "Reviewer 3"},
	}
	if diff := cmp.Diff(shouldBe, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
	if obs.cardsFailed != 1 {
		t.Errorf("cardsFailed = %v, want 1", obs.cardsFailed)
	}
	if !strings.Contains(logs.String(), "review card skipped") || !strings.Contains(logs.String(), "broken card") {
		t.Errorf("failed card not logged: %v", logs.String())
	}
}
