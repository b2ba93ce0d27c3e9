package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
)

// NewHeader creates the application title and subtitle.
func NewHeader() fyne.CanvasObject {
	titleText := canvas.NewText("toonzip", TextColorLight)
	titleText.TextSize = TitleTextSize
	titleText.TextStyle = fyne.TextStyle{Bold: true}
	titleText.Alignment = fyne.TextAlignCenter

	subtitleText := canvas.NewText(
		"Paste a listing URL, get one zip with every episode",
		TextColorLight,
	)
	subtitleText.TextSize = SubtitleTextSize
	subtitleText.Alignment = fyne.TextAlignCenter

	return container.NewVBox(
		titleText,
		subtitleText,
		layout.NewSpacer(),
	)
}
