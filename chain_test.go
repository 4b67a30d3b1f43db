package scraper

import (
	"strconv"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func TestExtractorChain(t *testing.T) {
	page := mustHtmlPage(t, `<html><body><div id="card" data-x="7">
		<span class="a"></span>
		<span class="b">  second  </span>
		<em class="n">12 votes</em>
	</div></body></html>`)
	card := page.Find("#card")

	atoi := func(v string) (int, bool) {
		n, err := strconv.Atoi(v)
		return n, err == nil
	}

	type values struct {
		FirstText    string
		NonEmptyText string
		Missing      string
		AttrSelf     string
		AttrMissing  bool
		Mapped       int
		MapRejected  int
		WithinText   string
		Exists       bool
		NotExists    bool
	}
	_, attrFound := Attr(".b", "data-x")(card)
	got := values{
		FirstText:    FirstOf(Text(".a"), Text(".b")).Or(card, "default"),
		NonEmptyText: FirstOf(NonEmpty(Text(".a")), Text(".b")).Or(card, "default"),
		Missing:      FirstOf(Text(".none"), Text(".nothing")).Or(card, "default"),
		AttrSelf:     Attr("", "data-x").Or(card, ""),
		AttrMissing:  attrFound,
		Mapped:       Map(Attr("", "data-x"), atoi).Or(card, -1),
		MapRejected:  FirstOf(Map(Text(".b"), atoi), Map(Text(".n"), firstDigits)).Or(card, -1),
		WithinText:   Within(".b", Text("")).Or(card, ""),
		Exists:       Exists(".n").Or(card, false),
		NotExists:    Exists(".none").Or(card, false),
	}
	shouldBe := values{
		FirstText:    "",
		NonEmptyText: "second",
		Missing:      "default",
		AttrSelf:     "7",
		AttrMissing:  false,
		Mapped:       7,
		MapRejected:  12,
		WithinText:   "second",
		Exists:       true,
		NotExists:    false,
	}
	if diff := cmp.Diff(shouldBe, got); diff != "" {
		t.Errorf("(-shouldBe +got)\n%v", diff)
	}
}

func TestWithin_NoMatch(t *testing.T) {
	page := mustHtmlPage(t, `<html><body><p>x</p></body></html>`)
	called := false
	e := Within(".none", Extractor[string](func(s *goquery.Selection) (string, bool) {
		called = true
		return "x", true
	}))
	if v, ok := e(page.Selection); ok || v != "" || called {
		t.Errorf("Within() = %q, %v, called=%v", v, ok, called)
	}
}
