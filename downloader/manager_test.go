package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toonzip/config"
	"toonzip/models"
	"toonzip/parser"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// imageServer serves /img/<name>. Names ending in .png are PNG, "noext"
// declares image/webp, anything under /img/missing is a 404.
type imageServer struct {
	*httptest.Server

	mu       sync.Mutex
	referers map[string]string
	agents   map[string]bool
}

func newImageServer(t *testing.T) *imageServer {
	body := pngBytes(t)
	s := &imageServer{referers: make(map[string]string), agents: make(map[string]bool)}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.referers[r.URL.Path] = r.Header.Get("Referer")
		s.agents[r.Header.Get("User-Agent")] = true
		s.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/img/missing"):
			http.NotFound(w, r)
		case strings.HasSuffix(r.URL.Path, "/noext"):
			w.Header().Set("Content-Type", "image/webp")
			w.Write(body)
		default:
			w.Header().Set("Content-Type", "image/png")
			w.Write(body)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// comicSite builds a two-page listing whose episodes each have a PNG, an
// extension-less image and a missing image.
func comicSite(imgBase string) *fakeSite {
	site := &fakeSite{
		listingURL: testListingURL,
		firstPage:  "1",
		pages: map[string]string{
			"1": listingHTML("My: Comic", "Some Author", "1", []string{"1", "2"}, []listingEntry{
				{"/detail/10", "Episode 10"},
				{"/detail/2", "Episode 2"},
			}),
			"2": listingHTML("My: Comic", "Some Author", "2", []string{"1", "2"}, []listingEntry{
				{"/detail/1", "Episode 1"},
				{"/detail/2", "Episode 2"},
				{"/detail/extra", "Extra?"},
			}),
		},
		episodes: map[string]string{},
	}

	for _, id := range []string{"10", "2", "1", "extra"} {
		site.episodes["https://comics.example/detail/"+id] = episodeHTML(
			imgBase+"/img/"+id+"/a.png",
			imgBase+"/img/"+id+"/noext",
			imgBase+"/img/missing/"+id+".jpg",
		)
	}
	return site
}

func newTestManager(t *testing.T, cfg *config.Config, site *fakeSite, rec Reporter) *Manager {
	fetcher, err := NewImageFetcher(cfg.UserAgent, 5*time.Second)
	require.NoError(t, err)
	return NewManager(cfg, site.factory, fetcher, rec)
}

func zipNames(t *testing.T, path string) []string {
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, "/") {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names
}

func TestRunEndToEnd(t *testing.T) {
	images := newImageServer(t)
	site := comicSite(images.URL)
	cfg := testConfig(t)
	rec := &recorder{}
	m := newTestManager(t, cfg, site, rec)

	summary, err := m.Run(context.Background(), testListingURL)
	require.NoError(t, err)

	root := filepath.Join(cfg.Output, "My_ Comic by Some Author")
	assert.Equal(t, root+".zip", summary.ArchivePath)
	assert.NoDirExists(t, root, "folder is removed after archiving")
	assert.FileExists(t, summary.ArchivePath)

	assert.Equal(t, []string{
		"My_ Comic by Some Author/Episode 1/img_0000.png",
		"My_ Comic by Some Author/Episode 1/img_0001.webp",
		"My_ Comic by Some Author/Episode 10/img_0000.png",
		"My_ Comic by Some Author/Episode 10/img_0001.webp",
		"My_ Comic by Some Author/Episode 2/img_0000.png",
		"My_ Comic by Some Author/Episode 2/img_0001.webp",
		"My_ Comic by Some Author/Extra_/img_0000.png",
		"My_ Comic by Some Author/Extra_/img_0001.webp",
	}, zipNames(t, summary.ArchivePath))

	assert.Equal(t, 4, summary.Episodes)
	assert.Equal(t, 4, summary.Completed)
	assert.Zero(t, summary.Skipped)
	assert.EqualValues(t, 8, summary.Images)
	assert.False(t, summary.Cancelled)
	assert.Equal(t, "Some Author", summary.Comic.Author)

	// one browser for discovery plus one per episode, all closed
	launches, open, _ := site.stats()
	assert.Equal(t, 5, launches)
	assert.Zero(t, open)

	rec.mu.Lock()
	assert.Equal(t, "My: Comic", rec.title)
	assert.Equal(t, [2]int{0, 4}, rec.progress[0])
	assert.Equal(t, [2]int{4, 4}, rec.progress[len(rec.progress)-1])
	require.Len(t, rec.done, 1)
	assert.Equal(t, summary, rec.done[0])
	rec.mu.Unlock()

	assert.True(t, rec.logged("Image download failed"))

	images.mu.Lock()
	assert.Equal(t, "https://comics.example/detail/10", images.referers["/img/10/a.png"])
	assert.Equal(t, map[string]bool{config.DefaultUserAgent: true}, images.agents)
	images.mu.Unlock()
}

func TestRunGroupsEpisodes(t *testing.T) {
	images := newImageServer(t)
	site := comicSite(images.URL)
	cfg := testConfig(t)
	cfg.GroupSize = 3

	var mu sync.Mutex
	var order []string
	active, peak := 0, 0
	release := make(chan struct{})
	site.onNavigate = func(url string) {
		if url == testListingURL {
			return
		}
		mu.Lock()
		order = append(order, url)
		active++
		if active > peak {
			peak = active
		}
		n := len(order)
		mu.Unlock()

		// hold the first group until all three of its workers are running
		if n <= 3 {
			if n == 3 {
				close(release)
			}
			<-release
		}

		mu.Lock()
		active--
		mu.Unlock()
	}

	m := newTestManager(t, cfg, site, nil)
	_, err := m.Run(context.Background(), testListingURL)
	require.NoError(t, err)

	assert.Equal(t, 3, peak)
	require.Len(t, order, 4)
	assert.ElementsMatch(t, []string{
		"https://comics.example/detail/1",
		"https://comics.example/detail/2",
		"https://comics.example/detail/10",
	}, order[:3])
	assert.Equal(t, "https://comics.example/detail/extra", order[3], "the second group waits for the first")
}

func TestRunResumesPopulatedEpisodes(t *testing.T) {
	images := newImageServer(t)
	site := comicSite(images.URL)
	cfg := testConfig(t)

	done := filepath.Join(cfg.Output, "My_ Comic by Some Author", "Episode 2")
	require.NoError(t, os.MkdirAll(done, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(done, "img_0000.jpg"), []byte("old"), 0644))

	m := newTestManager(t, cfg, site, nil)
	summary, err := m.Run(context.Background(), testListingURL)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 3, summary.Completed)
	assert.Contains(t, zipNames(t, summary.ArchivePath), "My_ Comic by Some Author/Episode 2/img_0000.jpg")

	launches, _, _ := site.stats()
	assert.Equal(t, 4, launches, "skipped episodes do not start a browser")
}

func TestRunFreshPurgesPreviousDownload(t *testing.T) {
	images := newImageServer(t)
	site := comicSite(images.URL)
	cfg := testConfig(t)
	cfg.Fresh = true

	stale := filepath.Join(cfg.Output, "My_ Comic by Some Author", "Episode 2", "img_0000.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	m := newTestManager(t, cfg, site, nil)
	summary, err := m.Run(context.Background(), testListingURL)
	require.NoError(t, err)

	assert.Zero(t, summary.Skipped)
	assert.NotContains(t, zipNames(t, summary.ArchivePath), "My_ Comic by Some Author/Episode 2/img_0000.jpg")
}

func TestRunCancelled(t *testing.T) {
	images := newImageServer(t)
	site := comicSite(images.URL)
	cfg := testConfig(t)
	cfg.GroupSize = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// stop while the second episode is loading
	navigations := 0
	site.onNavigate = func(url string) {
		if url == testListingURL {
			return
		}
		navigations++
		if navigations == 2 {
			cancel()
		}
	}

	rec := &recorder{}
	m := newTestManager(t, cfg, site, rec)
	summary, err := m.Run(ctx, testListingURL)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 2, navigations, "no episode starts after the stop")

	root := filepath.Join(cfg.Output, "My_ Comic by Some Author")
	assert.DirExists(t, root, "folder is kept after a cancelled run")
	assert.FileExists(t, root+".zip")
	assert.NoDirExists(t, filepath.Join(root, "Extra_"))

	// the episode finished before the stop is intact
	data, err := os.ReadFile(filepath.Join(root, "Episode 1", "img_0000.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), data)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "Episode 1", "img_0001.webp"))
	assert.NoFileExists(t, filepath.Join(root, "Episode 1", parser.IncompleteMarker))
	assert.FileExists(t, filepath.Join(root, "Episode 2", parser.IncompleteMarker), "the interrupted episode stays flagged")

	_, open, _ := site.stats()
	assert.Zero(t, open)

	rec.mu.Lock()
	require.Len(t, rec.done, 1)
	assert.True(t, rec.done[0].Cancelled)
	rec.mu.Unlock()
}

// afterFetch calls hook after every image download.
type afterFetch struct {
	ImageFetcher
	hook func(imageURL string)
}

func (f afterFetch) Fetch(ctx context.Context, imageURL, referer string) (*Image, error) {
	img, err := f.ImageFetcher.Fetch(ctx, imageURL, referer)
	f.hook(imageURL)
	return img, err
}

func TestRunResumesInterruptedEpisode(t *testing.T) {
	images := newImageServer(t)
	site := comicSite(images.URL)
	cfg := testConfig(t)
	cfg.GroupSize = 1

	fetcher, err := NewImageFetcher(cfg.UserAgent, 5*time.Second)
	require.NoError(t, err)

	// stop right after the first image of the first episode
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopping := afterFetch{ImageFetcher: fetcher, hook: func(imageURL string) {
		if strings.HasSuffix(imageURL, "/img/1/a.png") {
			cancel()
		}
	}}

	summary, err := NewManager(cfg, site.factory, stopping, nil).Run(ctx, testListingURL)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Completed)

	root := filepath.Join(cfg.Output, "My_ Comic by Some Author")
	assert.FileExists(t, filepath.Join(root, "Episode 1", "img_0000.png"))
	assert.NoFileExists(t, filepath.Join(root, "Episode 1", "img_0001.webp"))

	summary, err = NewManager(cfg, site.factory, fetcher, nil).Run(context.Background(), testListingURL)
	require.NoError(t, err)

	assert.Zero(t, summary.Skipped, "an interrupted episode is downloaded again")
	assert.Equal(t, 4, summary.Completed)
	assert.NoDirExists(t, root)

	names := zipNames(t, summary.ArchivePath)
	assert.Contains(t, names, "My_ Comic by Some Author/Episode 1/img_0000.png")
	assert.Contains(t, names, "My_ Comic by Some Author/Episode 1/img_0001.webp")
	for _, name := range names {
		assert.NotContains(t, name, parser.IncompleteMarker)
	}
}

func TestRunNoEpisodes(t *testing.T) {
	site := &fakeSite{
		listingURL: testListingURL,
		pages:      map[string]string{"": listingHTML("Empty", "", "", nil, nil)},
	}
	rec := &recorder{}
	m := NewManager(testConfig(t), site.factory, nil, rec)

	_, err := m.Run(context.Background(), testListingURL)
	assert.ErrorContains(t, err, "no episodes")
	assert.Len(t, rec.done, 1)
}

func TestRunBrowserStartFailure(t *testing.T) {
	site := &fakeSite{listingURL: testListingURL, startErr: errors.New("chrome not found")}
	cfg := testConfig(t)
	m := NewManager(cfg, site.factory, nil, nil)

	_, err := m.Run(context.Background(), testListingURL)
	assert.Error(t, err)

	entries, _ := os.ReadDir(cfg.Output)
	assert.Empty(t, entries, "nothing is written when discovery fails")
}

func TestOrder(t *testing.T) {
	episodes := []models.Episode{
		{Title: "Side story"},
		{Title: "Ep 10"},
		{Title: "Ep 2: A/B"},
		{Title: "Ep 2: A?B"},
		{Title: "Ep 1"},
	}

	ordered := Order(episodes)

	assert.Equal(t, []string{"Ep 1", "Ep 2: A/B", "Ep 2: A?B", "Ep 10", "Side story"}, titles(ordered))
	assert.Equal(t, []string{"Ep 1", "Ep 2_ A_B", "Ep 2_ A_B (2)", "Ep 10", "Side story"}, names(ordered))
	assert.Empty(t, episodes[0].Name, "input is not modified")
}

func TestOrderSuffixDoesNotCollide(t *testing.T) {
	ordered := Order([]models.Episode{
		{Title: "A_"},
		{Title: "A?"},
		{Title: "A_ (2)"},
	})

	seen := make(map[string]string)
	for _, ep := range ordered {
		other, dup := seen[ep.Name]
		assert.False(t, dup, "folder %q used by %q and %q", ep.Name, other, ep.Title)
		seen[ep.Name] = ep.Title
	}
	assert.Equal(t, []string{"A_ (2)", "A_", "A_ (3)"}, names(ordered))
}

func names(episodes []models.Episode) []string {
	var out []string
	for _, ep := range episodes {
		out = append(out, ep.Name)
	}
	return out
}
