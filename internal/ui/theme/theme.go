// Package theme styles codequiz command output.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Highlight = lipgloss.NewStyle().
			Foreground(Accent)

	barFilled = lipgloss.NewStyle().Foreground(Secondary)
	barEmpty  = lipgloss.NewStyle().Foreground(Border)
)

// Enabled controls whether Paint emits ANSI styling. Commands turn it off
// for --no-color and NO_COLOR.
var Enabled = true

// Paint renders text with style when styling is enabled.
func Paint(style lipgloss.Style, text string) string {
	if !Enabled {
		return text
	}
	return style.Render(text)
}

// Verdict renders a correct/incorrect marker.
func Verdict(correct bool) string {
	if correct {
		return Paint(Correct, "correct")
	}
	return Paint(Incorrect, "incorrect")
}

// Bar renders value out of total as a fixed-width bar.
func Bar(value, total, width int) string {
	if width < 1 || total < 1 {
		return ""
	}
	filled := value * width / total
	filled = min(max(filled, 0), width)
	return Paint(barFilled, strings.Repeat("█", filled)) +
		Paint(barEmpty, strings.Repeat("░", width-filled))
}

// Table lays out rows under headers in aligned columns. Widths are measured
// in terminal cells so wide runes line up.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = Paint(*style, cell)
			}
			b.WriteString(cell)
			if i < len(widths)-1 {
				b.WriteString(strings.Repeat(" ", pad+2))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &Header)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep, nil)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}

// Truncate shortens s to at most width cells, marking the cut with "...".
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

// Percent formats a 0..1 ratio.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
