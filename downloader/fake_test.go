package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"toonzip/models"
)

// fakeSite serves canned listing and episode pages to fakeBrowsers.
type fakeSite struct {
	listingURL string
	firstPage  string            // token of the page shown after loading the listing
	pages      map[string]string // token → listing HTML
	episodes   map[string]string // episode URL → HTML

	startErr   error
	clickErr   map[string]error
	onNavigate func(url string)

	mu       sync.Mutex
	launches int
	open     int
	clicks   []string
}

func (s *fakeSite) factory(ctx context.Context) (Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.startErr != nil {
		return nil, s.startErr
	}
	s.launches++
	s.open++
	return &fakeBrowser{site: s}, nil
}

func (s *fakeSite) stats() (launches, open int, clicks []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches, s.open, append([]string(nil), s.clicks...)
}

type fakeBrowser struct {
	site   *fakeSite
	url    string
	page   string
	closed bool
}

func (b *fakeBrowser) Navigate(url string) error {
	if b.site.onNavigate != nil {
		b.site.onNavigate(url)
	}
	if url == b.site.listingURL {
		b.page = b.site.firstPage
	} else if _, ok := b.site.episodes[url]; !ok {
		return fmt.Errorf("navigation failed: 404 %s", url)
	}
	b.url = url
	return nil
}

func (b *fakeBrowser) HTML() (string, error) {
	if b.url == b.site.listingURL {
		return b.site.pages[b.page], nil
	}
	return b.site.episodes[b.url], nil
}

func (b *fakeBrowser) ScrollToBottom() error { return nil }

func (b *fakeBrowser) ScrollHeight() (int64, error) { return 4000, nil }

func (b *fakeBrowser) WaitPresent(selector string, timeout time.Duration) error {
	html, _ := b.HTML()
	if !strings.Contains(html, "lazy-img-wrap") {
		return errors.New("timeout")
	}
	return nil
}

func (b *fakeBrowser) ClickPage(attr, token string, timeout time.Duration) error {
	b.site.mu.Lock()
	b.site.clicks = append(b.site.clicks, token)
	err := b.site.clickErr[token]
	b.site.mu.Unlock()

	if err != nil {
		return err
	}
	if _, ok := b.site.pages[token]; !ok {
		return fmt.Errorf("no button for page %s", token)
	}
	b.page = token
	return nil
}

func (b *fakeBrowser) MarkReference(selector string) (bool, error) { return true, nil }

func (b *fakeBrowser) WaitReferenceStale(timeout time.Duration) error { return nil }

func (b *fakeBrowser) Close() {
	if b.closed {
		return
	}
	b.closed = true
	b.site.mu.Lock()
	b.site.open--
	b.site.mu.Unlock()
}

type listingEntry struct {
	href  string
	title string
}

// listingHTML renders a listing page. tokens are the visible pagination
// buttons and active is the selected one.
func listingHTML(title, author, active string, tokens []string, entries []listingEntry) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	fmt.Fprintf(&sb, `<div class="dt-left-tt"><h1>%s</h1></div>`, title)
	if author != "" {
		fmt.Fprintf(&sb, `<div class="detail-title1"><a class="m-episode-link" href="/author/1">%s</a></div>`, author)
	}

	sb.WriteString("<ul>")
	for _, e := range entries {
		fmt.Fprintf(&sb, `<li><a href="%s"><div class="dt-le-c"><h1 class="m-episode-list-item-title">%s</h1></div></a></li>`, e.href, e.title)
	}
	sb.WriteString("</ul>")

	if len(tokens) > 0 {
		sb.WriteString(`<div class="mPagination">`)
		for _, t := range tokens {
			class := ""
			if t == active {
				class = ` class="active"`
			}
			fmt.Fprintf(&sb, `<button data-page="%s"%s>%s</button>`, t, class, t)
		}
		sb.WriteString("</div>")
	}

	sb.WriteString("</body></html>")
	return sb.String()
}

// episodeHTML renders an episode page with one lazy wrapper per image URL.
func episodeHTML(imageURLs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><div class=\"viewer\">")
	for _, u := range imageURLs {
		fmt.Fprintf(&sb, `<div class="lazy-img-wrap"><img src="data:image/gif;base64,R0lGOD" data-src="%s"></div>`, u)
	}
	sb.WriteString("</div></body></html>")
	return sb.String()
}

// recorder is a goroutine-safe Reporter capturing every event.
type recorder struct {
	mu       sync.Mutex
	logs     []string
	progress [][2]int
	title    string
	done     []models.RunSummary
}

func (r *recorder) Log(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, msg)
}

func (r *recorder) Progress(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, [2]int{done, total})
}

func (r *recorder) Title(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
}

func (r *recorder) Done(summary models.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, summary)
}

func (r *recorder) logged(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
