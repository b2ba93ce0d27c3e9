package parser

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

// DefaultExtension is used when neither the URL, the declared content type
// nor the image bytes reveal the format.
const DefaultExtension = ".jpg"

// allowedExtensions are the URL path suffixes that are trusted as-is.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".avif": true,
}

var contentTypeExtensions = map[string]string{
	"image/jpeg":     ".jpg",
	"image/jpg":      ".jpg",
	"image/pjpeg":    ".jpg",
	"image/png":      ".png",
	"image/gif":      ".gif",
	"image/webp":     ".webp",
	"image/bmp":      ".bmp",
	"image/x-ms-bmp": ".bmp",
	"image/avif":     ".avif",
}

var formatExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
	"bmp":  ".bmp",
}

// ExtensionFromURL returns the lower-cased extension of the URL path when it
// is one of the allow-listed image extensions, or "" otherwise. Query
// strings and fragments are ignored.
func ExtensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if allowedExtensions[ext] {
		return ext
	}
	return ""
}

// ExtensionFromContentType maps a declared Content-Type header to an image
// extension, or "" when the type is missing or not an image type we know.
func ExtensionFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return contentTypeExtensions[strings.ToLower(mediaType)]
}

// ResolveExtension picks the file extension for a downloaded image:
// the URL path if allow-listed, then the declared content type, then the
// magic bytes of the body, then DefaultExtension.
func ResolveExtension(rawURL, contentType string, body []byte) string {
	if ext := ExtensionFromURL(rawURL); ext != "" {
		return ext
	}
	if ext := ExtensionFromContentType(contentType); ext != "" {
		return ext
	}
	if format, err := DetectImageFormat(body); err == nil {
		if ext, ok := formatExtensions[format]; ok {
			return ext
		}
	}
	return DefaultExtension
}

// ImageFileName returns the zero-padded sequential name of the index-th
// image of an episode, e.g. ImageFileName(7, ".png") = "img_0007.png".
func ImageFileName(index int, ext string) string {
	return fmt.Sprintf("img_%04d%s", index, ext)
}
