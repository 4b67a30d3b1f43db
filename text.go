package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reDigits      = regexp.MustCompile(`\d+`)
	reReviewCount = regexp.MustCompile(`(?i)(\d+(?:,\d+)*)\s*reviews?`)
)

// cleanText trims surrounding whitespace and puts s in NFC.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// numericText folds compatibility characters (no-break spaces, full-width
// digits) so that number patterns match.
func numericText(s string) string {
	return norm.NFKC.String(s)
}

func stripchars(str, chr string) string {
	return strings.Map(func(r rune) rune {
		if !strings.ContainsRune(chr, r) {
			return r
		}
		return -1
	}, str)
}

// leadingInt parses an integer prefix of s. Leading spaces and trailing
// garbage are ignored.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := 1
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return sign * n, true
}

// firstDigits returns the first run of ASCII digits in s.
func firstDigits(s string) (int, bool) {
	m := reDigits.FindString(numericText(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseReviewCount finds "<n> reviews" in s, n may use comma separators.
func parseReviewCount(s string) (int, bool) {
	m := reReviewCount.FindStringSubmatch(numericText(s))
	if len(m) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(stripchars(m[1], ","))
	if err != nil {
		return 0, false
	}
	return n, true
}
