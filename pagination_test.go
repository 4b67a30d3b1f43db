package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestDecide(t *testing.T) {
	const nextLink = `a[data-pagination-button-next-link="true"]`
	tests := []struct {
		name      string
		body      string
		extracted int
		shouldBe  Decision
	}{
		{
			name:      "next link",
			body:      `<a data-pagination-button-next-link="true" href="?page=2">Next</a>`,
			extracted: 20,
			shouldBe:  Decision{State: HasNext, Selector: nextLink},
		},
		{
			name:      "named button",
			body:      `<a name="pagination-button-next" href="?page=3">Next</a>`,
			extracted: 20,
			shouldBe:  Decision{State: HasNext, Selector: `a[name="pagination-button-next"]`},
		},
		{
			name:      "aria label in container",
			body:      `<div class="pagination-container"><a aria-label="Next page" href="?page=2">&gt;</a></div>`,
			extracted: 20,
			shouldBe:  Decision{State: HasNext, Selector: `.pagination-container a[aria-label*="Next"]`},
		},
		{
			name:      "aria-disabled",
			body:      `<a data-pagination-button-next-link="true" aria-disabled="true">Next</a>`,
			extracted: 20,
			shouldBe:  Decision{State: Exhausted, Selector: nextLink, Reason: "next control disabled"},
		},
		{
			name:      "aria-disabled false",
			body:      `<a data-pagination-button-next-link="true" aria-disabled="false" href="?page=2">Next</a>`,
			extracted: 20,
			shouldBe:  Decision{State: HasNext, Selector: nextLink},
		},
		{
			name:      "disabled attribute",
			body:      `<a data-pagination-button-next-link="true" disabled>Next</a>`,
			extracted: 20,
			shouldBe:  Decision{State: Exhausted, Selector: nextLink, Reason: "next control disabled"},
		},
		{
			name:      "disabled class",
			body:      `<a data-pagination-button-next-link="true" class="link disabled">Next</a>`,
			extracted: 20,
			shouldBe:  Decision{State: Exhausted, Selector: nextLink, Reason: "next control disabled"},
		},
		{
			name:      "no control",
			body:      `<p>last page</p>`,
			extracted: 7,
			shouldBe:  Decision{State: Exhausted, Reason: "next control not found"},
		},
		{
			name:      "no reviews",
			body:      `<a data-pagination-button-next-link="true" href="?page=2">Next</a>`,
			extracted: 0,
			shouldBe:  Decision{State: Exhausted, Reason: "no reviews on page"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := mustHtmlPage(t, "<html><body>"+tt.body+"</body></html>")
			if diff := cmp.Diff(tt.shouldBe, Decide(page, tt.extracted)); diff != "" {
				t.Errorf("(-shouldBe +got)\n%v", diff)
			}
		})
	}
}

func TestPaginator_Advance(t *testing.T) {
	paginator := Paginator{Timeout: time.Second, Log: zerolog.Nop()}

	t.Run("click", func(t *testing.T) {
		session := newFakeSession(listingHtml("A", 20, "enabled"), listingHtml("A", 5, ""))
		if err := session.Navigate(context.Background(), testListingURL, time.Second); err != nil {
			t.Fatal(err)
		}
		state := paginator.Advance(context.Background(), session, Decision{State: HasNext, Selector: "a"})
		if diff := cmp.Diff(HasNext, state); diff != "" {
			t.Errorf("(-shouldBe +got)\n%v", diff)
		}
		if diff := cmp.Diff([]string{"a"}, session.clicks); diff != "" {
			t.Errorf("clicks (-shouldBe +got)\n%v", diff)
		}
	})

	t.Run("click failure", func(t *testing.T) {
		session := newFakeSession(listingHtml("A", 20, "enabled"))
		session.clickErr = errors.New("node not visible")
		state := paginator.Advance(context.Background(), session, Decision{State: HasNext, Selector: "a"})
		if diff := cmp.Diff(Blocked, state); diff != "" {
			t.Errorf("(-shouldBe +got)\n%v", diff)
		}
	})

	t.Run("exhausted does not click", func(t *testing.T) {
		session := newFakeSession(listingHtml("A", 20, "disabled"))
		state := paginator.Advance(context.Background(), session, Decision{State: Exhausted, Reason: "next control disabled"})
		if state != Exhausted || len(session.clicks) != 0 {
			t.Errorf("state = %v, clicks = %v", state, session.clicks)
		}
	})
}

func TestNavState_String(t *testing.T) {
	got := []string{HasNext.String(), Exhausted.String(), Blocked.String(), NavState(9).String()}
	shouldBe := []string{"has_next", "exhausted", "blocked", "unknown"}
	if diff := cmp.Diff(shouldBe, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}

func TestPaginationState_AtCeiling(t *testing.T) {
	got := []bool{
		PaginationState{Page: 1, MaxPages: 5}.AtCeiling(),
		PaginationState{Page: 5, MaxPages: 5}.AtCeiling(),
		PaginationState{Page: 1, MaxPages: 1}.AtCeiling(),
	}
	if diff := cmp.Diff([]bool{false, true, true}, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}
