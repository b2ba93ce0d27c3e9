package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"toonzip/config"
)

// NewFooter shows the build version and the log shortcut.
func NewFooter() fyne.CanvasObject {
	footerText := canvas.NewText("toonzip "+config.Version+"  ·  Ctrl+L shows the log", TextColorLight)
	footerText.TextSize = FooterTextSize
	footerText.Alignment = fyne.TextAlignCenter

	return footerText
}
