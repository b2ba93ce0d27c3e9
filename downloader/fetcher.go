package downloader

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/gocolly/colly"
	"golang.org/x/net/publicsuffix"

	"toonzip/parser"
)

// CollyFetcher downloads images through a shared colly collector. Each Fetch
// runs on a clone so concurrent workers get their own callbacks while
// sharing the HTTP backend and cookie jar.
type CollyFetcher struct {
	collector *colly.Collector
}

// NewImageFetcher creates a fetcher that identifies as userAgent and gives
// up on a single image after timeout.
func NewImageFetcher(userAgent string, timeout time.Duration) (*CollyFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
	)

	// Long webtoon strips easily exceed colly's 10MB default
	collector.MaxBodySize = 0
	if timeout > 0 {
		collector.SetRequestTimeout(timeout)
	}
	collector.SetCookieJar(jar)

	return &CollyFetcher{collector: collector}, nil
}

// Fetch downloads imageURL, sending referer the way a browser viewing the
// episode page would.
func (f *CollyFetcher) Fetch(ctx context.Context, imageURL, referer string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := f.collector.Clone()

	var img *Image
	var decodeErr error
	var status int

	c.OnResponse(func(r *colly.Response) {
		contentEncoding := r.Headers.Get("Content-Encoding")
		body, decompressed, err := parser.DecompressBody(r.Body, contentEncoding)
		if err != nil {
			decodeErr = fmt.Errorf("failed to decompress %s body: %w", contentEncoding, err)
			return
		}
		if decompressed {
			log.Printf("[Fetcher] Decompressed %s response: %d → %d bytes", contentEncoding, len(r.Body), len(body))
		}

		img = &Image{
			URL:         r.Request.URL.String(),
			ContentType: r.Headers.Get("Content-Type"),
			Body:        body,
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
	})

	// colly only fills in its User-Agent when no headers are passed
	hdr := http.Header{}
	hdr.Set("User-Agent", c.UserAgent)
	hdr.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	if referer != "" {
		hdr.Set("Referer", referer)
	}

	if err := c.Request(http.MethodGet, imageURL, nil, nil, hdr); err != nil {
		if status != 0 {
			return nil, fmt.Errorf("GET %s: status %d: %w", imageURL, status, err)
		}
		return nil, fmt.Errorf("GET %s: %w", imageURL, err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	if img == nil || len(img.Body) == 0 {
		return nil, fmt.Errorf("GET %s: empty response", imageURL)
	}

	return img, nil
}
