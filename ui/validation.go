package ui

import (
	"errors"
	"strings"

	"toonzip/validation"

	"fyne.io/fyne/v2/dialog"
)

// ValidateRunInput checks the URL field before a run starts and returns the
// normalized listing URL.
func ValidateRunInput(v *RunView) (string, error) {
	if v.urlEntry == nil || strings.TrimSpace(v.urlEntry.Text) == "" {
		return "", errors.New("please enter the comic listing URL")
	}
	return validation.ValidateListingURL(v.urlEntry.Text)
}

// ValidateRunInputWithDialog shows validation errors in a dialog.
func ValidateRunInputWithDialog(v *RunView) (string, bool) {
	listingURL, err := ValidateRunInput(v)
	if err != nil {
		if v.state != nil && v.state.Window != nil {
			dialog.ShowError(err, v.state.Window)
		}
		return "", false
	}
	return listingURL, true
}
