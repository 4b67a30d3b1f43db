package scraper

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	cookiejar "github.com/orirawlings/persistent-cookiejar"
)

// CookieStore keeps browser cookies (consent banners, locale) across page
// sessions and process restarts.
type CookieStore struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

// NewCookieStore opens the cookie file filename, creating it on first save.
func NewCookieStore(filename string) (*CookieStore, error) {
	jar, err := cookiejar.New(&cookiejar.Options{
		Filename:              filename,
		PersistSessionCookies: true,
	})
	if err != nil {
		return nil, err
	}
	return &CookieStore{jar: jar}, nil
}

// Cookies returns the stored cookies that would be sent to u.
func (store *CookieStore) Cookies(u *url.URL) []*http.Cookie {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.jar.Cookies(u)
}

// SetCookies stores cookies received from u and writes the jar to disk.
func (store *CookieStore) SetCookies(u *url.URL, cookies []*http.Cookie) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.jar.SetCookies(u, cookies)
	return store.jar.Save()
}

// Restore returns an action that installs the stored cookies for rawURL
// into the browser tab.
func (store *CookieStore) Restore(rawURL string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		stored := store.Cookies(u)
		if len(stored) == 0 {
			return nil
		}
		params := make([]*network.CookieParam, 0, len(stored))
		for _, c := range stored {
			params = append(params, &network.CookieParam{
				Name:  c.Name,
				Value: c.Value,
				URL:   rawURL,
			})
		}
		return network.SetCookies(params).Do(ctx)
	})
}

// Capture returns an action that copies the tab's cookies for rawURL into
// the store.
func (store *CookieStore) Capture(rawURL string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		cookies, err := network.GetCookies().WithUrls([]string{rawURL}).Do(ctx)
		if err != nil {
			return err
		}
		return store.SetCookies(u, browserCookies(cookies))
	})
}

func browserCookies(cookies []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		// session cookies report -1
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}
