package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// FormatKg renders a nitrogen amount in kg/ha with an explicit sign, so
// "+40.0" and "-140.0" read as gains and losses.
func FormatKg(v float64) string {
	if v == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%+.1f", v)
}

// FormatHa renders an area with up to two decimals and no trailing zeros.
func FormatHa(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".") + " ha"
}

// FormatDate renders an optional calendar date, or a dim dash when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return Dim("--")
	}
	return t.Format("2006-01-02")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// LabelList joins pest or disease labels, or a dim dash when empty.
func LabelList(labels []string) string {
	if len(labels) == 0 {
		return Dim("--")
	}
	return strings.Join(labels, ", ")
}
