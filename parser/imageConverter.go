package parser

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

// DetectImageFormat reads the magic bytes and returns the image format name
// ("jpeg", "png", "gif", "webp" or "bmp").
func DetectImageFormat(data []byte) (string, error) {
	if len(data) < 12 {
		return "", errors.New("data too short to determine format")
	}

	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg", nil
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "png", nil
	}
	if string(data[0:6]) == "GIF87a" || string(data[0:6]) == "GIF89a" {
		return "gif", nil
	}
	if string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "webp", nil
	}
	if data[0] == 'B' && data[1] == 'M' {
		return "bmp", nil
	}

	return "", errors.New("unknown image format")
}

// ConvertImageToJPEG re-encodes PNG, GIF and WebP bytes as JPEG (quality 90).
// JPEG input is returned unchanged.
func ConvertImageToJPEG(imgBytes []byte) ([]byte, error) {
	if len(imgBytes) == 0 {
		return nil, errors.New("empty image data")
	}

	format, err := DetectImageFormat(imgBytes)
	if err != nil {
		return nil, err
	}

	if format == "jpeg" {
		return imgBytes, nil
	}

	var img image.Image
	reader := bytes.NewReader(imgBytes)

	switch format {
	case "png":
		img, err = png.Decode(reader)
	case "gif":
		img, err = gif.Decode(reader)
	case "webp":
		img, err = webp.Decode(reader)
	default:
		return nil, errors.New("unsupported image format: " + format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveImage writes data to dir/name atomically: the bytes go to a ".part"
// file first which is renamed into place once fully written, so a file
// named img_NNNN.ext is always complete.
func SaveImage(dir, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image data")
	}

	target := filepath.Join(dir, name)
	partial := target + ".part"

	if err := os.WriteFile(partial, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", partial, err)
	}
	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("failed to move %s into place: %w", target, err)
	}
	return target, nil
}
