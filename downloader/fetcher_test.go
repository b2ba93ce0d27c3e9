package downloader

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherSendsHeaders(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	}))
	defer srv.Close()

	f, err := NewImageFetcher("toonzip-test/1.0", 5*time.Second)
	require.NoError(t, err)

	img, err := f.Fetch(context.Background(), srv.URL+"/a.jpg", "https://comics.example/detail/1")
	require.NoError(t, err)

	assert.Equal(t, "toonzip-test/1.0", gotUA)
	assert.Equal(t, "https://comics.example/detail/1", gotReferer)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xE0}, img.Body)
}

func TestFetcherDecodesCompressedBodies(t *testing.T) {
	payload := []byte("GIF89a pretend image data")

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write(payload)
	bw.Close()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(payload)
	gw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		switch r.URL.Path {
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			w.Write(br.Bytes())
		case "/gz":
			w.Header().Set("Content-Encoding", "gzip")
			w.Write(gz.Bytes())
		}
	}))
	defer srv.Close()

	f, err := NewImageFetcher("toonzip-test/1.0", 5*time.Second)
	require.NoError(t, err)

	for _, path := range []string{"/br", "/gz"} {
		img, err := f.Fetch(context.Background(), srv.URL+path, "")
		require.NoError(t, err, path)
		assert.Equal(t, payload, img.Body, path)
	}
}

func TestFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			time.Sleep(500 * time.Millisecond)
			w.Write([]byte("late"))
		case "/empty":
			w.Header().Set("Content-Type", "image/png")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := NewImageFetcher("toonzip-test/1.0", 100*time.Millisecond)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png", "")
	assert.ErrorContains(t, err, "404")

	_, err = f.Fetch(context.Background(), srv.URL+"/empty", "")
	assert.ErrorContains(t, err, "empty response")

	_, err = f.Fetch(context.Background(), srv.URL+"/slow", "")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, srv.URL+"/a.png", "")
	assert.ErrorIs(t, err, context.Canceled)
}
