package downloader

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

const (
	viewportWidth  = 1920
	viewportHeight = 1080

	// Marker used to detect that the listing re-rendered after a page switch.
	referenceAttr = "data-toonzip-ref"
)

// SessionOptions configures a BrowserSession.
type SessionOptions struct {
	Label             string // Log prefix, e.g. "listing" or an episode title
	UserAgent         string
	Headless          bool
	NavigationTimeout time.Duration
}

// BrowserSession manages one chromedp browser with a fixed desktop identity.
type BrowserSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	label   string
	navWait time.Duration
}

// NewBrowserSession launches a headless Chrome and applies the 1920x1080
// viewport. ctx only scopes the browser process lifetime; callers pass a
// context that is not cancelled by a user stop so in-flight calls finish.
func NewBrowserSession(ctx context.Context, opts SessionOptions) (*BrowserSession, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(viewportWidth, viewportHeight),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-logging", true),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("disable-in-process-stack-traces", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)

	// Chrome's own chatter is noise for the user; drop it
	quiet := func(string, ...any) {}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(quiet),
		chromedp.WithErrorf(quiet),
	)

	session := &BrowserSession{
		ctx:     browserCtx,
		cancel:  func() { cancelBrowser(); cancelAlloc() },
		label:   opts.Label,
		navWait: opts.NavigationTimeout,
	}
	if session.navWait <= 0 {
		session.navWait = 60 * time.Second
	}

	// The first Run starts the browser process
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(viewportWidth, viewportHeight, 1, false).Do(ctx)
	}))
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Printf("[Browser:%s] Session started", session.label)
	return session, nil
}

// NewBrowserFactory returns a BrowserFactory producing chromedp sessions.
func NewBrowserFactory(opts SessionOptions) BrowserFactory {
	return func(ctx context.Context) (Browser, error) {
		return NewBrowserSession(ctx, opts)
	}
}

// Navigate navigates to a URL and waits for the document body
func (bs *BrowserSession) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(bs.ctx, bs.navWait)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	return nil
}

// HTML returns the page HTML
func (bs *BrowserSession) HTML() (string, error) {
	ctx, cancel := context.WithTimeout(bs.ctx, 10*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (bs *BrowserSession) ScrollToBottom() error {
	ctx, cancel := context.WithTimeout(bs.ctx, 10*time.Second)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil)); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

func (bs *BrowserSession) ScrollHeight() (int64, error) {
	ctx, cancel := context.WithTimeout(bs.ctx, 10*time.Second)
	defer cancel()

	var height float64
	if err := chromedp.Run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return 0, fmt.Errorf("failed to read page height: %w", err)
	}
	return int64(height), nil
}

func (bs *BrowserSession) WaitPresent(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(bs.ctx, timeout)
	defer cancel()

	return chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// ClickPage waits for the pagination button and clicks it from script, which
// also works when the button is covered by a sticky footer.
func (bs *BrowserSession) ClickPage(attr, token string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(bs.ctx, timeout)
	defer cancel()

	xpath := fmt.Sprintf("//button[@%s='%s']", attr, token)
	js := fmt.Sprintf(`(() => {
		const b = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!b) return false;
		b.click();
		return true;
	})()`, xpath)

	var clicked bool
	err := chromedp.Run(ctx,
		chromedp.WaitVisible(xpath, chromedp.BySearch),
		chromedp.Evaluate(js, &clicked),
	)
	if err != nil {
		return fmt.Errorf("page %s button: %w", token, err)
	}
	if !clicked {
		return fmt.Errorf("page %s button disappeared before click", token)
	}
	return nil
}

func (bs *BrowserSession) MarkReference(selector string) (bool, error) {
	ctx, cancel := context.WithTimeout(bs.ctx, 10*time.Second)
	defer cancel()

	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		window.__toonzipRef = el;
		if (!el) return false;
		el.setAttribute(%q, "1");
		return true;
	})()`, selector, referenceAttr)

	var found bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &found)); err != nil {
		return false, fmt.Errorf("failed to mark reference: %w", err)
	}
	return found, nil
}

// WaitReferenceStale polls until the marked element is gone from the
// document or lost its marker.
func (bs *BrowserSession) WaitReferenceStale(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(bs.ctx, timeout+time.Second)
	defer cancel()

	expr := fmt.Sprintf(`!window.__toonzipRef || !window.__toonzipRef.isConnected || !window.__toonzipRef.hasAttribute(%q)`, referenceAttr)

	var stale bool
	err := chromedp.Run(ctx, chromedp.Poll(expr, &stale,
		chromedp.WithPollingInterval(100*time.Millisecond),
		chromedp.WithPollingTimeout(timeout),
	))
	if err != nil {
		return fmt.Errorf("listing did not refresh: %w", err)
	}
	return nil
}

// Close closes the browser session
func (bs *BrowserSession) Close() {
	if bs.cancel != nil {
		bs.cancel()
		log.Printf("[Browser:%s] Session closed", bs.label)
		bs.cancel = nil
	}
}
