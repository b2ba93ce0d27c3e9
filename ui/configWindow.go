package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ShowConfigWindow shows the effective settings as YAML and lets the user
// save them to the config file the session was started with.
func ShowConfigWindow(state *AppState) {
	configWindow := state.App.NewWindow("toonzip configuration")
	configWindow.Resize(fyne.NewSize(700, 600))

	configLabel := widget.NewLabel("")
	configLabel.Wrapping = fyne.TextWrapWord

	var allLines []string

	load := func() {
		cfg := state.Config()
		data, err := cfg.YAML()
		if err != nil {
			configLabel.SetText(fmt.Sprintf("Failed to encode configuration: %v", err))
			return
		}
		allLines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		configLabel.SetText(strings.Join(allLines, "\n"))
	}

	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("Search configuration...")

	performSearch := func() {
		query := strings.ToLower(strings.TrimSpace(searchEntry.Text))
		if query == "" {
			configLabel.SetText(strings.Join(allLines, "\n"))
			return
		}

		var filtered []string
		for _, line := range allLines {
			if strings.Contains(strings.ToLower(line), query) {
				filtered = append(filtered, line)
			}
		}

		if len(filtered) == 0 {
			configLabel.SetText(fmt.Sprintf("No results found for: %s", searchEntry.Text))
			return
		}
		configLabel.SetText(strings.Join(filtered, "\n") + fmt.Sprintf("\n\n[Found %d matches]", len(filtered)))
	}

	searchEntry.OnSubmitted = func(string) {
		performSearch()
	}

	searchButton := widget.NewButton("Search", performSearch)
	clearButton := widget.NewButton("Clear", func() {
		searchEntry.SetText("")
		configLabel.SetText(strings.Join(allLines, "\n"))
	})

	saveButton := widget.NewButton("Save as Default", func() {
		path, err := state.SaveConfig()
		if err != nil {
			dialog.ShowError(err, configWindow)
			return
		}
		dialog.ShowInformation("Saved", "Configuration saved to\n"+path, configWindow)
	})

	searchBox := container.NewBorder(nil, nil, nil,
		container.NewHBox(searchButton, clearButton, saveButton),
		searchEntry)

	content := container.NewBorder(searchBox, nil, nil, nil, container.NewScroll(configLabel))
	configWindow.SetContent(content)
	load()
	configWindow.Show()
}
