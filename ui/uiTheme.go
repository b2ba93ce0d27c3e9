package ui

import (
	"image/color"
)

// Theme constants shared by every view so the window looks the same
// everywhere.

// Color palette
var (
	// GradientStartColor is the teal at the top-left of the background gradient
	GradientStartColor = color.RGBA{R: 38, G: 166, B: 154, A: 255}

	// GradientEndColor is the dark blue at the bottom-right of the gradient
	GradientEndColor = color.RGBA{R: 40, G: 53, B: 147, A: 255}

	// CardBackgroundColor is the white behind each card
	CardBackgroundColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

	// TextColorLight is used for text drawn directly on the gradient
	TextColorLight = color.White
)

// Text sizes
const (
	TitleTextSize    = 40
	SubtitleTextSize = 15
	FooterTextSize   = 12
)

// Layout constants
const (
	// GradientAngle is the angle of the background gradient in degrees
	GradientAngle = 45

	CardMinWidth  = 100
	CardMinHeight = 100

	// DefaultWindowWidth is the initial width of the main window
	DefaultWindowWidth = 1000

	// DefaultWindowHeight is the initial height of the main window
	DefaultWindowHeight = 720

	// maxLogLines caps the run log panel; older lines are dropped.
	maxLogLines = 500
)
