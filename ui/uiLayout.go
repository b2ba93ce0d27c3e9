package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

// BuildMainLayout assembles the main window: gradient background, header,
// the download card on the left, the run log on the right and the footer.
func BuildMainLayout(state *AppState) fyne.CanvasObject {
	gradient := canvas.NewLinearGradient(
		GradientStartColor,
		GradientEndColor,
		GradientAngle,
	)

	header := NewHeader()
	runView := NewRunView(state)

	contentArea := container.NewGridWithColumns(2,
		container.NewPadded(runView.Card),
		container.NewPadded(runView.LogCard),
	)

	footer := NewFooter()

	mainContent := container.NewBorder(
		container.NewPadded(header),
		container.NewPadded(footer),
		nil,
		nil,
		contentArea,
	)

	return container.NewStack(gradient, mainContent)
}
