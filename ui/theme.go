package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Accent is the primary color of the prompt and alert dialogs.
var Accent = color.NRGBA{R: 0x2e, G: 0x8b, B: 0x57, A: 0xff}

// Theme is the default fyne theme with the KeyPacer accent.
type Theme struct {
	fyne.Theme
	primary color.Color
}

// NewTheme creates a theme using primary as the accent color.
func NewTheme(primary color.Color) fyne.Theme {
	return &Theme{Theme: theme.DefaultTheme(), primary: primary}
}

// Color returns the accent for primary and focus roles.
func (t *Theme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return t.primary
	}
	return t.Theme.Color(name, variant)
}
