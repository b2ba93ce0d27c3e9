package parser

import (
	"strings"
	"unicode"

	"toonzip/models"
)

// reservedChars are the characters that are not allowed in a path component
// on at least one of the supported platforms.
const reservedChars = `<>:"/\|?*`

// SanitizePathComponent makes a title or author name safe to use as a single
// directory name. Reserved characters become underscores, surrounding
// whitespace and dots are trimmed and an empty (or all-reserved) value
// falls back to models.UnknownValue.
func SanitizePathComponent(value string) string {
	if strings.Trim(value, reservedChars+" \t\r\n.") == "" {
		return models.UnknownValue
	}

	sanitized := strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) {
			return '_'
		}
		return r
	}, value)

	sanitized = strings.TrimFunc(sanitized, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.'
	})
	if sanitized == "" {
		return models.UnknownValue
	}
	return sanitized
}
