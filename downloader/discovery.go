package downloader

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"toonzip/models"
	"toonzip/parser"
)

// Listing is the result of episode discovery. Title and Author are the raw
// values shown on the page, or models.UnknownValue when they could not be
// found. Episodes are in discovery order and have no Name yet.
type Listing struct {
	URL      string
	Title    string
	Author   string
	Episodes []models.Episode
}

// Discover opens the listing page in its own browser session and collects
// every episode, walking the pagination controls when the listing has them.
// Only a browser start or listing load failure is returned as an error;
// problems with single pages or entries are logged and skipped.
func (m *Manager) Discover(ctx context.Context, listingURL string) (*Listing, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL: %w", err)
	}

	m.logf("[Discovery] Starting browser...")
	browser, err := m.newBrowser(context.WithoutCancel(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer browser.Close()

	m.logf("[Discovery] Loading listing page: %s", listingURL)
	if err := browser.Navigate(listingURL); err != nil {
		return nil, fmt.Errorf("failed to load listing page: %w", err)
	}
	if err := parser.Sleep(ctx, m.cfg.Timings.ListingSettle); err != nil {
		return nil, err
	}

	doc, err := m.snapshot(browser)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}

	listing := &Listing{
		URL:    listingURL,
		Title:  m.lookup(doc, "comic title", m.cfg.Selectors.ComicTitle),
		Author: m.lookup(doc, "author", m.cfg.Selectors.Author),
	}

	d := &discovery{
		manager: m,
		browser: browser,
		base:    base,
		listing: listing,
		seen:    make(map[string]bool),
	}

	tokens := PageTokens(doc, m.cfg.Selectors)
	if len(tokens) == 0 {
		d.collect(doc)
	} else {
		m.logf("[Discovery] Pagination found: %d pages", len(tokens))
		if err := d.walk(ctx, tokens); err != nil {
			return nil, err
		}
	}

	m.logf("[Discovery] Found %d episodes in total", len(listing.Episodes))
	return listing, nil
}

// lookup runs the selector strategies for one listing field, logging which
// strategy matched. Nothing found yields models.UnknownValue.
func (m *Manager) lookup(doc *goquery.Document, field string, selectors []string) string {
	value, idx, ok := FirstMatch(doc.Selection, TextStrategies(selectors))
	if !ok {
		m.logf("[Discovery] Could not find the %s", field)
		return models.UnknownValue
	}
	if idx > 0 {
		m.logf("[Discovery] Found %s via fallback selector %q", field, selectors[idx])
	}
	m.logf("[Discovery] %s: %s", field, value)
	return value
}

func (m *Manager) snapshot(browser Browser) (*goquery.Document, error) {
	html, err := browser.HTML()
	if err != nil {
		return nil, err
	}
	return ParseHTML(html)
}

// discovery holds the per-run state of a listing walk.
type discovery struct {
	manager *Manager
	browser Browser
	base    *url.URL
	listing *Listing
	seen    map[string]bool // display titles already collected
}

// walk visits every page token breadth first. The queue grows as pages
// reveal further tokens (windowed pagination controls).
func (d *discovery) walk(ctx context.Context, tokens []string) error {
	m := d.manager
	profile := m.cfg.Selectors

	queue := append([]string(nil), tokens...)
	queued := make(map[string]bool)
	for _, t := range queue {
		queued[t] = true
	}
	visited := make(map[string]bool)
	failed := make(map[string]bool) // never re-queued

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		token := queue[0]
		queue = queue[1:]
		delete(queued, token)

		if visited[token] {
			continue
		}

		doc, err := m.snapshot(d.browser)
		if err != nil {
			m.logf("[Discovery] Failed to read page %s: %v", token, err)
			continue
		}

		if ActivePage(doc, profile) != token {
			if err := d.switchPage(ctx, token); err != nil {
				m.logf("[Discovery] Failed to open page %s: %v", token, err)
				failed[token] = true
				continue
			}
			if doc, err = m.snapshot(d.browser); err != nil {
				m.logf("[Discovery] Failed to read page %s: %v", token, err)
				continue
			}
		}

		d.collect(doc)
		visited[token] = true

		for _, t := range PageTokens(doc, profile) {
			if !visited[t] && !queued[t] && !failed[t] {
				queue = append(queue, t)
				queued[t] = true
			}
		}
	}

	return nil
}

// switchPage clicks the button for token and waits for the listing to
// re-render.
func (d *discovery) switchPage(ctx context.Context, token string) error {
	m := d.manager
	profile := m.cfg.Selectors
	timings := m.cfg.Timings

	hasReference, err := d.browser.MarkReference(profile.EpisodeLink)
	if err != nil {
		return err
	}

	if err := d.browser.ClickPage(profile.PageAttr, token, timings.WaitTimeout); err != nil {
		return err
	}

	if hasReference {
		if err := d.browser.WaitReferenceStale(timings.WaitTimeout); err != nil {
			return err
		}
	}

	return parser.Sleep(ctx, timings.PageSettle)
}

// collect appends the episodes of the current page, dropping titles seen
// earlier in the run.
func (d *discovery) collect(doc *goquery.Document) {
	m := d.manager

	links, problems := EpisodeLinks(doc, d.base, m.cfg.Selectors)
	for _, p := range problems {
		m.logf("[Discovery] Skipped entry: %s", p)
	}

	for _, link := range links {
		if d.seen[link.Title] {
			continue
		}
		d.seen[link.Title] = true

		m.logf("[Discovery] Found: %s", link.Title)
		d.listing.Episodes = append(d.listing.Episodes, models.Episode{
			Link:       link.Link,
			ComicTitle: d.listing.Title,
			Title:      link.Title,
		})
	}
}
