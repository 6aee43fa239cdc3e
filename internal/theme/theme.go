// Package theme provides the Lip Gloss palette and reusable styles for the
// vote TUI. It is a leaf package with no internal imports.
package theme

import "github.com/charmbracelet/lipgloss"

// Option colors, matching the web client's background split.
var (
	ColorOptionA = lipgloss.Color("#2196f3")
	ColorOptionB = lipgloss.Color("#00cbca")
)

// Voting feedback colors.
var (
	ColorProgress = lipgloss.Color("#d97706")
	ColorSuccess  = lipgloss.Color("#16a34a")
	ColorFailure  = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// OptionColor returns the bar color for option "a" or "b".
func OptionColor(option string) lipgloss.Color {
	if option == "b" {
		return ColorOptionB
	}
	return ColorOptionA
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleErrorBanner = lipgloss.NewStyle().
				Foreground(ColorBright).
				Background(ColorDanger).
				Padding(0, 1)
)
