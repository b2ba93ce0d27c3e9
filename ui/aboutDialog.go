package ui

import (
	"toonzip/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

func ShowAboutDialog(toonApp fyne.App) {
	title := widget.NewLabel("toonzip")
	title.TextStyle = fyne.TextStyle{Bold: true}

	version := widget.NewLabel(
		"Version: " + config.Version +
			"\nCommit: " + config.GitCommit +
			"\nBuilt: " + config.BuildTime,
	)
	version.Alignment = fyne.TextAlignCenter

	description := widget.NewLabel(
		"Downloads every episode of a comic from its listing page and packs them into a single zip.",
	)
	description.Wrapping = fyne.TextWrapWord

	features := widget.NewLabel(
		"Features:\n" +
			"• Follows the listing pagination\n" +
			"• Episodes sorted by their number\n" +
			"• Three episodes downloaded at a time\n" +
			"• Already downloaded episodes are skipped\n" +
			"• One '<title> by <author>.zip' per comic",
	)
	features.Wrapping = fyne.TextWrapWord

	var aboutWin fyne.Window
	closeBtn := widget.NewButton("Close", func() {
		aboutWin.Close()
	})

	mainContent := container.NewVBox(
		container.NewCenter(title),
		container.NewCenter(version),
		widget.NewSeparator(),
		description,
		widget.NewSeparator(),
		features,
	)

	bottom := container.NewVBox(
		widget.NewSeparator(),
		container.NewCenter(closeBtn),
	)

	content := container.NewBorder(nil, bottom, nil, nil, container.NewScroll(mainContent))

	aboutWin = toonApp.NewWindow("About toonzip")
	aboutWin.SetContent(content)
	aboutWin.Resize(fyne.NewSize(400, 400))
	aboutWin.SetFixedSize(true)
	aboutWin.Show()
}
