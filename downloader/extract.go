package downloader

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"toonzip/sites"
)

// Strategy extracts one value from a selection, reporting whether it found
// something usable.
type Strategy func(s *goquery.Selection) (string, bool)

// EpisodeLink is an episode entry as read from a listing page snapshot.
type EpisodeLink struct {
	Link  string
	Title string
}

// ParseHTML parses a document snapshot.
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// TextStrategies builds one strategy per selector. Each takes the first
// match and returns its text, falling back to its title or content
// attribute.
func TextStrategies(selectors []string) []Strategy {
	strategies := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		strategies = append(strategies, func(s *goquery.Selection) (string, bool) {
			el := s.Find(sel).First()
			if el.Length() == 0 {
				return "", false
			}
			return elementText(el)
		})
	}
	return strategies
}

// FirstMatch runs strategies in order and returns the first usable value
// together with the index of the strategy that produced it.
func FirstMatch(s *goquery.Selection, strategies []Strategy) (string, int, bool) {
	for i, strategy := range strategies {
		if value, ok := strategy(s); ok {
			return value, i, true
		}
	}
	return "", -1, false
}

// elementText returns the normalized text of el, then its title attribute,
// then its content attribute (for <meta> tags).
func elementText(el *goquery.Selection) (string, bool) {
	if text := normalizeSpace(el.Text()); text != "" {
		return text, true
	}
	for _, attr := range []string{"title", "content"} {
		if v := normalizeSpace(el.AttrOr(attr, "")); v != "" {
			return v, true
		}
	}
	return "", false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PageTokens returns the all-digit page tokens of every pagination button in
// document order, without duplicates.
func PageTokens(doc *goquery.Document, profile sites.Profile) []string {
	var tokens []string
	seen := make(map[string]bool)

	for _, sel := range profile.Pagination {
		doc.Find(sel).Each(func(_ int, button *goquery.Selection) {
			token := strings.TrimSpace(button.AttrOr(profile.PageAttr, ""))
			if !isDigits(token) || seen[token] {
				return
			}
			seen[token] = true
			tokens = append(tokens, token)
		})
	}

	return tokens
}

// ActivePage returns the token of the currently selected page button, or ""
// when none is marked active.
func ActivePage(doc *goquery.Document, profile sites.Profile) string {
	if len(profile.ActivePage) == 0 {
		return ""
	}
	active := doc.Find(strings.Join(profile.ActivePage, ", ")).First()
	return strings.TrimSpace(active.AttrOr(profile.PageAttr, ""))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// EpisodeLinks reads every episode entry on a listing snapshot. Hrefs are
// resolved against base. Entries without a title element or title text are
// reported in problems and left out.
func EpisodeLinks(doc *goquery.Document, base *url.URL, profile sites.Profile) (links []EpisodeLink, problems []string) {
	doc.Find(profile.EpisodeLink).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}

		link, err := base.Parse(href)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid episode link %q: %v", href, err))
			return
		}

		var titleEl *goquery.Selection
		for _, sel := range profile.EpisodeTitle {
			if found := a.Find(sel).First(); found.Length() > 0 {
				titleEl = found
				break
			}
		}
		if titleEl == nil {
			problems = append(problems, fmt.Sprintf("episode title element not found: %s", link))
			return
		}

		title, ok := elementText(titleEl)
		if !ok {
			problems = append(problems, fmt.Sprintf("episode title is empty: %s", link))
			return
		}

		links = append(links, EpisodeLink{Link: link.String(), Title: title})
	})

	return links, problems
}

// ImageURLs returns the resolved image URL of every lazy image wrapper on an
// episode snapshot, along with the number of wrappers found. Wrappers
// without a usable URL are skipped.
func ImageURLs(doc *goquery.Document, pageURL *url.URL, profile sites.Profile) ([]string, int) {
	wraps := doc.Find(strings.Join(profile.ImageWrap, ", "))

	var urls []string
	wraps.Each(func(_ int, wrap *goquery.Selection) {
		raw := firstAttr(wrap.Find("img").First(), profile.ImageAttributes)
		if raw == "" {
			raw = firstAttr(wrap, profile.WrapAttributes)
		}
		if raw == "" {
			return
		}

		u, err := pageURL.Parse(raw)
		if err != nil {
			return
		}
		urls = append(urls, u.String())
	})

	return urls, wraps.Length()
}

// firstAttr returns the first non-empty attribute value of s. Inline data:
// URIs are lazy-load placeholders, not images.
func firstAttr(s *goquery.Selection, attrs []string) string {
	if s.Length() == 0 {
		return ""
	}
	for _, attr := range attrs {
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}
