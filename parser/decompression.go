package parser

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// DecompressBody undoes a Content-Encoding applied by the server. Only the
// declared encoding is trusted: image bytes routinely start with values that
// look like compression headers, so there is no magic-byte guessing here.
// A gzip body without the gzip magic was already decoded by the transport
// and is passed through.
//
// Returns the (possibly) decompressed body and whether anything was done.
func DecompressBody(body []byte, contentEncoding string) ([]byte, bool, error) {
	if len(body) == 0 {
		return body, false, nil
	}

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, false, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, false, fmt.Errorf("gzip: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, false, fmt.Errorf("gzip: %w", err)
		}
		return decompressed, true, nil

	case "br":
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, false, fmt.Errorf("brotli: %w", err)
		}
		return decompressed, true, nil

	default:
		return body, false, nil
	}
}
