package models

import "time"

// Episode is one installment of a comic discovered on the listing page.
// Episodes are created during discovery and never modified afterwards;
// the downloader consumes each one exactly once.
type Episode struct {
	Link       string `json:"link"`        // Absolute URL of the episode page
	ComicTitle string `json:"comic_title"` // Title of the comic this episode belongs to
	Title      string `json:"title"`       // Display title as shown on the listing page
	Name       string `json:"name"`        // Sanitized title, used as the episode folder name
}

// Comic holds the listing-level metadata for a run.
type Comic struct {
	ListingURL string `json:"listing_url"`
	Title      string `json:"title"`  // Sanitized comic title ("Unknown" if not found)
	Author     string `json:"author"` // Sanitized author name ("Unknown" if not found)
}

// UnknownValue is the placeholder used whenever a title, author or path
// component cannot be resolved.
const UnknownValue = "Unknown"

// DirName returns the comic's root folder name, "<Title> by <Author>".
// The author suffix is dropped when the author is unknown.
func (c Comic) DirName() string {
	if c.Author == "" || c.Author == UnknownValue {
		return c.Title
	}
	return c.Title + " by " + c.Author
}

// RunSummary is reported once a run finishes (successfully or not).
type RunSummary struct {
	Comic       Comic  `json:"comic"`
	Episodes    int    `json:"episodes"`     // Episodes discovered
	Completed   int    `json:"completed"`    // Episodes that ran to the end
	Skipped     int    `json:"skipped"`      // Episodes skipped because their folder was already populated
	Images      int64  `json:"images"`       // Images written
	Bytes       int64  `json:"bytes"`        // Bytes written
	ArchivePath string `json:"archive_path"` // Empty if no archive was produced
	Cancelled   bool   `json:"cancelled"`

	Elapsed time.Duration `json:"elapsed"`
}
