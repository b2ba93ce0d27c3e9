package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidateListingURL checks that raw is an absolute http(s) URL and returns
// it trimmed. It only works with raw values, no Fyne types, so both the
// console and the GUI can share it.
func ValidateListingURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must start with http:// or https://, got %q", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL has no host: %q", raw)
	}

	return raw, nil
}
