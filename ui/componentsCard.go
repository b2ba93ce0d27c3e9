package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

// NewCard wraps content in a white, padded card that stands out against the
// gradient background.
func NewCard(content fyne.CanvasObject) fyne.CanvasObject {
	bg := canvas.NewRectangle(CardBackgroundColor)
	bg.SetMinSize(fyne.NewSize(CardMinWidth, CardMinHeight))

	return container.NewStack(bg, container.NewPadded(content))
}

// NewCardWithHeader creates a card with a bold title and a separator above
// content. Content fills the remaining space.
func NewCardWithHeader(title string, content fyne.CanvasObject) fyne.CanvasObject {
	header := container.NewVBox(
		NewBoldLabel(title),
		NewSeparator(),
	)

	cardContent := container.NewBorder(header, nil, nil, nil, content)
	return NewCard(cardContent)
}
