package scraper

import (
	"github.com/PuerkitoBio/goquery"
)

// Extractor reads one optional value out of a selection, usually a review
// card. ok is false when the value could not be resolved.
type Extractor[T any] func(s *goquery.Selection) (value T, ok bool)

// FirstOf tries each extractor in order; the first resolved value wins.
func FirstOf[T any](chain ...Extractor[T]) Extractor[T] {
	return func(s *goquery.Selection) (T, bool) {
		for _, e := range chain {
			if v, ok := e(s); ok {
				return v, true
			}
		}
		var zero T
		return zero, false
	}
}

// Or resolves e against s, falling back to def.
func (e Extractor[T]) Or(s *goquery.Selection, def T) T {
	if v, ok := e(s); ok {
		return v
	}
	return def
}

// Map converts a resolved value; f may reject it, which leaves the value
// unresolved so the next strategy of a chain is tried.
func Map[T, U any](e Extractor[T], f func(T) (U, bool)) Extractor[U] {
	return func(s *goquery.Selection) (U, bool) {
		v, ok := e(s)
		if !ok {
			var zero U
			return zero, false
		}
		return f(v)
	}
}

// first returns the first element matching selector below s, like
// querySelector. An empty selector means s itself.
func first(s *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return s.First()
	}
	return s.Find(selector).First()
}

// Text resolves to the cleaned text of the first match of selector.
func Text(selector string) Extractor[string] {
	return func(s *goquery.Selection) (string, bool) {
		el := first(s, selector)
		if el.Length() == 0 {
			return "", false
		}
		return cleanText(el.Text()), true
	}
}

// NonEmpty treats an empty string as unresolved.
func NonEmpty(e Extractor[string]) Extractor[string] {
	return Map(e, func(v string) (string, bool) {
		return v, v != ""
	})
}

// Attr resolves to the attribute attr of the first match of selector.
func Attr(selector, attr string) Extractor[string] {
	return func(s *goquery.Selection) (string, bool) {
		return first(s, selector).Attr(attr)
	}
}

// Exists resolves to true when selector matches anything below s.
func Exists(selector string) Extractor[bool] {
	return func(s *goquery.Selection) (bool, bool) {
		found := s.Find(selector).Length() > 0
		return found, found
	}
}

// Within applies e to the first match of selector below s.
func Within[T any](selector string, e Extractor[T]) Extractor[T] {
	return func(s *goquery.Selection) (T, bool) {
		el := first(s, selector)
		if el.Length() == 0 {
			var zero T
			return zero, false
		}
		return e(el)
	}
}
