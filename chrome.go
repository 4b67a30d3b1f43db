package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	UserAgent_chrome120 = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	UserAgent_default   = UserAgent_chrome120

	defaultAcceptLanguage = "en-US,en;q=0.9"
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

	// DefaultSnapshotTimeout bounds reading the DOM of a tab.
	DefaultSnapshotTimeout = 15 * time.Second
	// DefaultMaxConcurrentPages bounds the tabs open at once.
	DefaultMaxConcurrentPages = 2
)

// DefaultBlockedResources are never loaded; the scraper reads markup only.
var DefaultBlockedResources = []network.ResourceType{
	network.ResourceTypeStylesheet,
	network.ResourceTypeFont,
	network.ResourceTypeImage,
}

// ChromeOptions configures the shared browser and its tabs.
type ChromeOptions struct {
	Headless       bool
	ExecPath       string // empty: let chromedp find Chrome
	UserDataDir    string
	UserAgent      string
	AcceptLanguage string
	WindowWidth    int
	WindowHeight   int
	// NoSandbox adds the flags needed to run inside containers.
	NoSandbox bool
	// LowMemory adds the flags for small hosts (single process, no
	// background throttling).
	LowMemory          bool
	BlockedResources   []network.ResourceType
	MaxConcurrentPages int
	Cookies            *CookieStore
	Logger             zerolog.Logger
}

// DefaultChromeOptions returns a headless configuration.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Headless:           true,
		UserAgent:          UserAgent_default,
		AcceptLanguage:     defaultAcceptLanguage,
		WindowWidth:        1920,
		WindowHeight:       1080,
		BlockedResources:   DefaultBlockedResources,
		MaxConcurrentPages: DefaultMaxConcurrentPages,
		Logger:             zerolog.Nop(),
	}
}

// BrowserPool shares one lazily started Chrome between scrapes and hands
// out isolated tabs, at most MaxConcurrentPages at a time.
type BrowserPool struct {
	opts ChromeOptions
	sem  *semaphore.Weighted

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func NewBrowserPool(opts ChromeOptions) *BrowserPool {
	if opts.MaxConcurrentPages <= 0 {
		opts.MaxConcurrentPages = DefaultMaxConcurrentPages
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent_default
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = defaultAcceptLanguage
	}
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = 1920, 1080
	}
	return &BrowserPool{
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.MaxConcurrentPages)),
	}
}

func (pool *BrowserPool) allocatorOptions() []chromedp.ExecAllocatorOption {
	options := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.WindowSize(pool.opts.WindowWidth, pool.opts.WindowHeight),
		chromedp.UserAgent(pool.opts.UserAgent),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
	}
	if pool.opts.Headless {
		options = append(options,
			chromedp.Headless,
			chromedp.DisableGPU,
		)
	}
	if pool.opts.ExecPath != "" {
		options = append(options, chromedp.ExecPath(pool.opts.ExecPath))
	}
	if pool.opts.UserDataDir != "" {
		options = append(options, chromedp.UserDataDir(pool.opts.UserDataDir))
	}
	if pool.opts.NoSandbox {
		options = append(options,
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-accelerated-2d-canvas", true),
			chromedp.Flag("no-zygote", true),
		)
	}
	if pool.opts.LowMemory {
		options = append(options,
			chromedp.Flag("single-process", true),
			chromedp.Flag("disable-background-timer-throttling", true),
			chromedp.Flag("disable-backgrounding-occluded-windows", true),
			chromedp.Flag("disable-renderer-backgrounding", true),
		)
	}
	return options
}

// browser returns the browser context, launching Chrome on first use or
// after it died.
func (pool *BrowserPool) browser() (context.Context, error) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.browserCtx != nil {
		if pool.browserCtx.Err() == nil {
			return pool.browserCtx, nil
		}
		pool.release()
	}

	log := pool.opts.Logger
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), pool.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logf(log, zerolog.DebugLevel)),
		chromedp.WithErrorf(logf(log, zerolog.WarnLevel)),
	)
	// the first Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	log.Info().Bool("headless", pool.opts.Headless).Msg("browser launched")

	pool.browserCtx = browserCtx
	pool.browserCancel = browserCancel
	pool.allocCancel = allocCancel
	return browserCtx, nil
}

// OpenPage opens a configured tab. It blocks while MaxConcurrentPages tabs
// are open. Cancelling ctx closes the tab.
func (pool *BrowserPool) OpenPage(ctx context.Context) (PageSession, error) {
	if err := pool.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	browserCtx, err := pool.browser()
	if err != nil {
		pool.sem.Release(1)
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	tab := &chromePage{
		ctx:     tabCtx,
		cancel:  cancel,
		stop:    context.AfterFunc(ctx, cancel),
		release: func() { pool.sem.Release(1) },
		opts:    pool.opts,
		log:     pool.opts.Logger,
	}
	if err := tab.configure(); err != nil {
		_ = tab.Close()
		return nil, fmt.Errorf("configure page: %w", err)
	}
	return tab, nil
}

// Close shuts Chrome down. A later OpenPage starts a new one.
func (pool *BrowserPool) Close() error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.browserCtx == nil {
		return nil
	}
	err := chromedp.Cancel(pool.browserCtx)
	pool.release()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	pool.opts.Logger.Info().Msg("browser closed")
	return err
}

// release cancels the browser and allocator contexts. pool.mu must be held.
func (pool *BrowserPool) release() {
	pool.browserCancel()
	pool.allocCancel()
	pool.browserCtx, pool.browserCancel, pool.allocCancel = nil, nil, nil
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stop    func() bool
	release func()
	once    sync.Once
	opts    ChromeOptions
	log     zerolog.Logger
	lastURL string
}

func (tab *chromePage) configure() error {
	tab.blockResources()

	actions := chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": tab.opts.AcceptLanguage,
			"Accept":          defaultAccept,
		}),
		emulation.SetUserAgentOverride(tab.opts.UserAgent).WithAcceptLanguage(tab.opts.AcceptLanguage),
		chromedp.EmulateViewport(int64(tab.opts.WindowWidth), int64(tab.opts.WindowHeight)),
		page.SetLifecycleEventsEnabled(true),
	}
	if len(tab.opts.BlockedResources) > 0 {
		patterns := make([]*fetch.RequestPattern, 0, len(tab.opts.BlockedResources))
		for _, rt := range tab.opts.BlockedResources {
			patterns = append(patterns, &fetch.RequestPattern{
				URLPattern:   "*",
				ResourceType: rt,
				RequestStage: fetch.RequestStageRequest,
			})
		}
		actions = append(actions, fetch.Enable().WithPatterns(patterns))
	}
	return chromedp.Run(tab.ctx, actions)
}

// blockResources fails every request paused by the fetch patterns; only
// blocked resource types are paused.
func (tab *chromePage) blockResources() {
	if len(tab.opts.BlockedResources) == 0 {
		return
	}
	chromedp.ListenTarget(tab.ctx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tab.ctx)
			ctx := cdp.WithExecutor(tab.ctx, c.Target)
			if err := fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(ctx); err != nil {
				tab.log.Trace().Err(err).Str("url", paused.Request.URL).Msg("blocking request failed")
			}
		}()
	})
}

// bound derives a context for one operation: limited by timeout, ended by
// the tab closing or by the caller's ctx.
func (tab *chromePage) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(tab.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (tab *chromePage) mainFrameID() string {
	if c := chromedp.FromContext(tab.ctx); c != nil && c.Target != nil {
		return string(c.Target.TargetID)
	}
	return ""
}

// settle runs action and waits until the main frame has either committed
// a new document that reached network-almost-idle, or navigated within
// the same document.
func (tab *chromePage) settle(ctx context.Context, action chromedp.Action) error {
	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frameID := tab.mainFrameID()
	settled := make(chan struct{})
	var (
		once      sync.Once
		committed atomic.Bool
	)
	done := func() { once.Do(func() { close(settled) }) }

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventLifecycleEvent:
			if string(e.FrameID) != frameID {
				return
			}
			switch e.Name {
			case "init":
				committed.Store(true)
			case "networkAlmostIdle":
				if committed.Load() {
					done()
				}
			}
		case *page.EventNavigatedWithinDocument:
			if string(e.FrameID) == frameID {
				done()
			}
		}
	})

	if err := chromedp.Run(ctx, action); err != nil {
		return err
	}
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (tab *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	runCtx, cancel := tab.bound(ctx, timeout)
	defer cancel()

	if tab.opts.Cookies != nil {
		if err := chromedp.Run(runCtx, tab.opts.Cookies.Restore(url)); err != nil {
			tab.log.Warn().Err(err).Msg("restoring cookies failed")
		}
	}
	tab.lastURL = url
	return tab.settle(runCtx, chromedp.Navigate(url))
}

func (tab *chromePage) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := tab.bound(ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (tab *chromePage) Snapshot(ctx context.Context) (*Page, error) {
	runCtx, cancel := tab.bound(ctx, DefaultSnapshotTimeout)
	defer cancel()

	var location, html string
	err := chromedp.Run(runCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	return NewPage(location, html)
}

func (tab *chromePage) ClickAndSettle(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := tab.bound(ctx, timeout)
	defer cancel()
	return tab.settle(runCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Close saves cookies, closes the tab and frees its slot. It is safe to
// call more than once.
func (tab *chromePage) Close() error {
	var err error
	tab.once.Do(func() {
		tab.stop()
		if tab.opts.Cookies != nil && tab.lastURL != "" && tab.ctx.Err() == nil {
			ctx, cancel := context.WithTimeout(tab.ctx, 5*time.Second)
			if cerr := chromedp.Run(ctx, tab.opts.Cookies.Capture(tab.lastURL)); cerr != nil {
				tab.log.Warn().Err(cerr).Msg("saving cookies failed")
			}
			cancel()
		}
		err = chromedp.Cancel(tab.ctx)
		tab.cancel()
		tab.release()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	})
	return err
}
