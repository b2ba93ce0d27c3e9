package downloader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"toonzip/config"
	"toonzip/models"
	"toonzip/parser"
)

// Maximum scroll steps per episode, for pages that keep growing forever.
const maxScrollSteps = 200

// Manager orchestrates the entire download process for one comic at a time.
type Manager struct {
	cfg        *config.Config
	newBrowser BrowserFactory
	fetcher    ImageFetcher
	reporter   Reporter
}

// NewManager creates a manager from explicit collaborators.
func NewManager(cfg *config.Config, newBrowser BrowserFactory, fetcher ImageFetcher, reporter Reporter) *Manager {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Manager{
		cfg:        cfg,
		newBrowser: newBrowser,
		fetcher:    fetcher,
		reporter:   reporter,
	}
}

// NewDefaultManager wires chromedp browsers and the colly image fetcher.
func NewDefaultManager(cfg *config.Config, reporter Reporter) (*Manager, error) {
	fetcher, err := NewImageFetcher(cfg.UserAgent, cfg.Timings.ImageTimeout)
	if err != nil {
		return nil, err
	}

	browsers := NewBrowserFactory(SessionOptions{
		Label:             "toonzip",
		UserAgent:         cfg.UserAgent,
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.Timings.NavigationTimeout,
	})

	return NewManager(cfg, browsers, fetcher, reporter), nil
}

// logf writes to the application log and to the reporter.
func (m *Manager) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	m.reporter.Log(msg)
}

// Run downloads every episode of the comic at listingURL and archives the
// comic folder. Cancelling ctx stops new pages, groups, episodes and images
// from starting; work already in flight finishes. The comic folder is
// archived even after a cancel, but only removed when the run completed.
//
// The returned error is non-nil for run-fatal conditions (browser start,
// no episodes, filesystem errors) and wraps context.Canceled after a cancel.
// Done is reported in every case.
func (m *Manager) Run(ctx context.Context, listingURL string) (summary models.RunSummary, err error) {
	start := time.Now()
	summary.Comic.ListingURL = listingURL

	defer func() {
		summary.Cancelled = errors.Is(err, context.Canceled)
		summary.Elapsed = time.Since(start)
		m.logf("[Downloader] Finished in %v: %d/%d episodes, %d skipped, %d images",
			summary.Elapsed.Round(time.Second), summary.Completed, summary.Episodes, summary.Skipped, summary.Images)
		m.reporter.Done(summary)
	}()

	listing, err := m.Discover(ctx, listingURL)
	if err != nil {
		m.logf("[Downloader] Discovery failed: %v", err)
		return summary, err
	}
	if len(listing.Episodes) == 0 {
		m.logf("[Downloader] No episodes found")
		return summary, errors.New("no episodes found")
	}

	episodes := Order(listing.Episodes)
	comic := models.Comic{
		ListingURL: listingURL,
		Title:      parser.SanitizePathComponent(listing.Title),
		Author:     parser.SanitizePathComponent(listing.Author),
	}
	summary.Comic = comic
	summary.Episodes = len(episodes)
	m.reporter.Title(listing.Title)

	outDir, err := m.cfg.OutputDir()
	if err != nil {
		return summary, err
	}
	root := filepath.Join(outDir, comic.DirName())

	if m.cfg.Fresh {
		m.logf("[Downloader] Removing previous download at %s", root)
		if err := os.RemoveAll(root); err != nil {
			return summary, fmt.Errorf("failed to clear %s: %w", root, err)
		}
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return summary, fmt.Errorf("failed to create %s: %w", root, err)
	}

	m.logf("[Downloader] Downloading %d episodes into %s", len(episodes), root)
	m.downloadAll(ctx, root, episodes, &summary)

	cancelErr := ctx.Err()

	archivePath, err := parser.ArchiveDir(root)
	if err != nil {
		m.logf("[Downloader] Failed to create archive: %v", err)
		return summary, fmt.Errorf("failed to archive %s: %w", root, err)
	}
	summary.ArchivePath = archivePath

	if cancelErr != nil {
		m.logf("[Downloader] Cancelled; archive written to %s, folder kept for resume", archivePath)
		return summary, fmt.Errorf("download cancelled: %w", cancelErr)
	}

	if err := os.RemoveAll(root); err != nil {
		m.logf("[Downloader] Failed to remove %s: %v", root, err)
	}

	m.logf("[Downloader] All done! Archive saved to %s", archivePath)
	return summary, nil
}

// Order sorts episodes by their numeric title key and assigns each a unique
// sanitized folder name.
func Order(episodes []models.Episode) []models.Episode {
	sorted := append([]models.Episode(nil), episodes...)
	parser.SortEpisodes(sorted)

	used := make(map[string]bool)
	for i := range sorted {
		base := parser.SanitizePathComponent(sorted[i].Title)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		used[name] = true
		sorted[i].Name = name
	}

	return sorted
}

// downloadAll runs episodes in consecutive groups of GroupSize. Every episode
// of a group runs concurrently and the next group starts only after the
// whole group has finished.
func (m *Manager) downloadAll(ctx context.Context, root string, episodes []models.Episode, summary *models.RunSummary) {
	total := len(episodes)
	done := 0
	var mu sync.Mutex

	m.reporter.Progress(0, total)

	groups := parser.Batches(episodes, m.cfg.GroupSize)
	for i, group := range groups {
		if ctx.Err() != nil {
			m.logf("[Downloader] Cancelled before group %d/%d", i+1, len(groups))
			return
		}

		var g errgroup.Group
		for _, ep := range group {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}

				result := m.downloadEpisode(ctx, root, ep)

				mu.Lock()
				defer mu.Unlock()
				done++
				summary.Images += int64(result.images)
				summary.Bytes += result.bytes
				if result.skipped {
					summary.Skipped++
				} else if result.err == nil {
					summary.Completed++
				}
				m.reporter.Progress(done, total)
				return nil
			})
		}
		g.Wait()
	}
}

type episodeResult struct {
	skipped bool
	images  int
	bytes   int64
	err     error
}

// downloadEpisode fetches one episode into root/<Name> with its own browser
// session. Failures are logged and reported in the result; a partial folder
// stays on disk.
func (m *Manager) downloadEpisode(ctx context.Context, root string, ep models.Episode) (result episodeResult) {
	timings := m.cfg.Timings
	profile := m.cfg.Selectors
	dir := filepath.Join(root, ep.Name)
	tag := fmt.Sprintf("[Episode:%s]", ep.Title)

	if !m.cfg.Fresh {
		if complete, err := parser.EpisodeComplete(dir); err == nil && complete {
			m.logf("%s Already downloaded (%d images), skipping", tag, parser.CountImages(dir))
			result.skipped = true
			return result
		}
	}

	defer func() {
		if result.err != nil {
			m.logf("%s Failed: %v", tag, result.err)
		}
	}()

	if err := os.MkdirAll(dir, 0755); err != nil {
		result.err = fmt.Errorf("failed to create folder: %w", err)
		return result
	}

	// images from an interrupted attempt are numbered again from zero
	if err := clearEpisodeDir(dir); err != nil {
		result.err = fmt.Errorf("failed to reset folder: %w", err)
		return result
	}
	if err := parser.MarkIncomplete(dir); err != nil {
		result.err = fmt.Errorf("failed to mark folder: %w", err)
		return result
	}
	defer func() {
		if result.err != nil {
			return
		}
		if err := parser.ClearIncomplete(dir); err != nil {
			result.err = fmt.Errorf("failed to mark folder complete: %w", err)
		}
	}()

	m.logf("%s Processing %s", tag, ep.Link)

	pageURL, err := url.Parse(ep.Link)
	if err != nil {
		result.err = fmt.Errorf("invalid episode link: %w", err)
		return result
	}

	browser, err := m.newBrowser(context.WithoutCancel(ctx))
	if err != nil {
		result.err = fmt.Errorf("failed to start browser: %w", err)
		return result
	}
	defer browser.Close()

	if err := browser.Navigate(ep.Link); err != nil {
		result.err = err
		return result
	}
	if err := parser.Sleep(ctx, timings.EpisodeSettle); err != nil {
		result.err = err
		return result
	}

	if err := m.scrollUntilStable(ctx, browser); err != nil {
		result.err = err
		return result
	}

	wrapSelector := strings.Join(profile.ImageWrap, ", ")
	if err := browser.WaitPresent(wrapSelector, timings.WaitTimeout); err != nil {
		m.logf("%s Image wraps did not appear, using current page", tag)
	}

	doc, err := m.snapshot(browser)
	if err != nil {
		result.err = fmt.Errorf("failed to read episode page: %w", err)
		return result
	}

	imageURLs, wraps := ImageURLs(doc, pageURL, profile)
	m.logf("%s Found %d image wraps, %d with a usable URL", tag, wraps, len(imageURLs))

	limiter := parser.NewRateLimiter(timings.ImageDelay)
	defer limiter.Stop()

	for i, imageURL := range imageURLs {
		if ctx.Err() != nil {
			result.err = ctx.Err()
			return result
		}

		size, err := m.saveImage(ctx, dir, result.images, imageURL, ep.Link)
		if err != nil {
			m.logf("%s Image download failed: %s - %v", tag, imageURL, err)
		} else {
			result.images++
			result.bytes += size
			config.Debugf("%s Saved image %d (%d bytes)", tag, result.images, size)
		}

		if i < len(imageURLs)-1 {
			if err := limiter.Wait(ctx); err != nil {
				result.err = err
				return result
			}
		}
	}

	m.logf("%s Done: %d images saved", tag, result.images)
	return result
}

// clearEpisodeDir removes the files of a previous, unfinished attempt.
func clearEpisodeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// scrollUntilStable scrolls to the bottom until the page height stays the
// same for three consecutive checks.
func (m *Manager) scrollUntilStable(ctx context.Context, browser Browser) error {
	var previous int64
	stable := 0

	for step := 0; stable < 3; step++ {
		if step >= maxScrollSteps {
			log.Printf("[Downloader] Page still growing after %d scrolls, continuing", step)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := browser.ScrollToBottom(); err != nil {
			return err
		}
		if err := parser.Sleep(ctx, m.cfg.Timings.ScrollDelay); err != nil {
			return err
		}

		height, err := browser.ScrollHeight()
		if err != nil {
			return err
		}

		if height == previous {
			stable++
		} else {
			stable = 0
			previous = height
		}
	}

	return nil
}

// saveImage downloads one image and writes it as img_<index><ext>.
func (m *Manager) saveImage(ctx context.Context, dir string, index int, imageURL, referer string) (int64, error) {
	img, err := m.fetcher.Fetch(context.WithoutCancel(ctx), imageURL, referer)
	if err != nil {
		return 0, err
	}

	body := img.Body
	ext := parser.ResolveExtension(imageURL, img.ContentType, body)

	if m.cfg.ConvertJPEG {
		converted, err := parser.ConvertImageToJPEG(body)
		if err != nil {
			log.Printf("[Downloader] Keeping original format for %s: %v", imageURL, err)
		} else {
			body = converted
			ext = ".jpg"
		}
	}

	if _, err := parser.SaveImage(dir, parser.ImageFileName(index, ext), body); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}
