package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// LowBalanceThreshold marks balances that are positive but close to running
// out within a season of a hungry crop.
const LowBalanceThreshold = 50.0

// BalanceStyle colours a nitrogen balance: red for a deficit, yellow when
// low, green otherwise.
func BalanceStyle(balance float64) lipgloss.Style {
	switch {
	case balance < 0:
		return StyleRed
	case balance < LowBalanceThreshold:
		return StyleYellow
	default:
		return StyleGreen
	}
}

// StatusIndicator returns a coloured rotation status such as "● ACTIVE".
func StatusIndicator(status domain.RotationStatus) string {
	switch status {
	case domain.RotationActive:
		return StyleGreen.Render("● ACTIVE")
	case domain.RotationDraft:
		return StyleYellow.Render("● DRAFT")
	case domain.RotationArchived:
		return StyleDim.Render("● ARCHIVED")
	default:
		return StyleDim.Render("● UNKNOWN")
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
