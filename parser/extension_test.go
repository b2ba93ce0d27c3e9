package parser

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0, 1}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}
	webpMagic = []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'E', 'B', 'P'}
)

func TestExtensionFromURL(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionFromURL("https://cdn.example.com/a/b/001.jpg"))
	assert.Equal(t, ".jpeg", ExtensionFromURL("https://cdn.example.com/001.JPEG?token=abc"))
	assert.Equal(t, ".webp", ExtensionFromURL("https://cdn.example.com/001.webp#frag"))
	assert.Equal(t, "", ExtensionFromURL("https://cdn.example.com/image?id=1.jpg"))
	assert.Equal(t, "", ExtensionFromURL("https://cdn.example.com/001.php"))
	assert.Equal(t, "", ExtensionFromURL("https://cdn.example.com/001"))
}

func TestExtensionFromContentType(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionFromContentType("image/jpeg"))
	assert.Equal(t, ".png", ExtensionFromContentType("image/png; charset=binary"))
	assert.Equal(t, ".webp", ExtensionFromContentType("IMAGE/WEBP"))
	assert.Equal(t, "", ExtensionFromContentType("application/octet-stream"))
	assert.Equal(t, "", ExtensionFromContentType(""))
	assert.Equal(t, "", ExtensionFromContentType(";;;"))
}

func TestResolveExtension(t *testing.T) {
	t.Run("allow-listed url wins", func(t *testing.T) {
		assert.Equal(t, ".png", ResolveExtension("https://x/1.png", "image/jpeg", jpegMagic))
	})
	t.Run("content type when url has no usable extension", func(t *testing.T) {
		assert.Equal(t, ".webp", ResolveExtension("https://x/img.php?id=1", "image/webp", nil))
		assert.Equal(t, ".gif", ResolveExtension("https://x/img", "image/gif", nil))
	})
	t.Run("magic bytes when content type is generic", func(t *testing.T) {
		assert.Equal(t, ".png", ResolveExtension("https://x/img", "application/octet-stream", pngMagic))
		assert.Equal(t, ".webp", ResolveExtension("https://x/img", "", webpMagic))
	})
	t.Run("default when nothing resolves", func(t *testing.T) {
		assert.Equal(t, DefaultExtension, ResolveExtension("https://x/img.bin", "text/html", []byte("<html></html>")))
		assert.Equal(t, DefaultExtension, ResolveExtension("::bad url::", "", nil))
	})
}

func TestImageFileName(t *testing.T) {
	assert.Equal(t, "img_0000.jpg", ImageFileName(0, ".jpg"))
	assert.Equal(t, "img_0042.png", ImageFileName(42, ".png"))
	assert.Equal(t, "img_12345.webp", ImageFileName(12345, ".webp"))
}

func TestDetectImageFormat(t *testing.T) {
	format, err := DetectImageFormat(jpegMagic)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	format, err = DetectImageFormat([]byte("GIF89a......"))
	require.NoError(t, err)
	assert.Equal(t, "gif", format)

	_, err = DetectImageFormat([]byte("short"))
	assert.Error(t, err)

	_, err = DetectImageFormat([]byte("not an image at all"))
	assert.Error(t, err)
}

func TestConvertImageToJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := ConvertImageToJPEG(buf.Bytes())
	require.NoError(t, err)

	format, err := DetectImageFormat(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	same, err := ConvertImageToJPEG(out)
	require.NoError(t, err)
	assert.Equal(t, out, same, "jpeg input is passed through")

	_, err = ConvertImageToJPEG(nil)
	assert.Error(t, err)
}
