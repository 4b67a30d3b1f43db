package scraper

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed snapshot of the DOM of a browser tab.
type Page struct {
	*goquery.Document
	BaseURL *url.URL
	HTML    string
}

// NewPage parses html as the document found at pageURL.
func NewPage(pageURL string, html string) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(html))
	if err != nil {
		return nil, err
	}
	doc.Url = base

	// a <base href> overrides the document URL for relative links
	if href, ok := doc.Find("head base").First().Attr("href"); ok {
		if b, err := base.Parse(href); err == nil {
			base = b
		}
	}

	return &Page{Document: doc, BaseURL: base, HTML: html}, nil
}

// Title returns the trimmed document title.
func (page *Page) Title() string {
	return strings.TrimSpace(page.Find("title").First().Text())
}

// ResolveLink makes a link found in the page absolute, as the DOM's src and
// href properties do. Unparsable links are returned unchanged.
func (page *Page) ResolveLink(link string) string {
	return resolveLink(page.BaseURL, link)
}

func resolveLink(base *url.URL, link string) string {
	if link == "" || base == nil {
		return link
	}
	u, err := base.Parse(link)
	if err != nil {
		return link
	}
	return u.String()
}
