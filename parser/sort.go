package parser

import (
	"regexp"
	"sort"
	"strings"

	"toonzip/models"
)

var digitsRe = regexp.MustCompile(`\d+`)

// SortKey is the ordering key of an episode title: every run of digits in
// the title, in order, without leading zeros. Runs are kept as text so
// numbers of any length compare exactly. Titles without digits have an
// empty key and sort last.
type SortKey []string

// EpisodeSortKey extracts the sort key from a display title.
// "Episode 10-2" -> [10 2], "Episode 007" -> [7], "Prologue" -> [].
func EpisodeSortKey(title string) SortKey {
	matches := digitsRe.FindAllString(title, -1)
	if len(matches) == 0 {
		return nil
	}

	key := make(SortKey, 0, len(matches))
	for _, m := range matches {
		n := strings.TrimLeft(m, "0")
		if n == "" {
			n = "0"
		}
		key = append(key, n)
	}
	return key
}

// compareNumbers compares two digit runs without leading zeros.
func compareNumbers(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Less reports whether k orders before other. Keys compare element by
// element like tuples, a shorter prefix orders first, and an empty key
// orders after every non-empty one.
func (k SortKey) Less(other SortKey) bool {
	if len(k) == 0 || len(other) == 0 {
		return len(k) != 0 && len(other) == 0
	}

	for i := 0; i < len(k) && i < len(other); i++ {
		if c := compareNumbers(k[i], other[i]); c != 0 {
			return c < 0
		}
	}
	return len(k) < len(other)
}

// SortEpisodes orders episodes in place by the numeric key of their display
// title. Ties keep discovery order.
func SortEpisodes(episodes []models.Episode) {
	keys := make(map[string]SortKey, len(episodes))
	for _, ep := range episodes {
		keys[ep.Title] = EpisodeSortKey(ep.Title)
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return keys[episodes[i].Title].Less(keys[episodes[j].Title])
	})
}
