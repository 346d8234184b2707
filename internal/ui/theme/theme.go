// Package theme holds the terminal styles used by the CLI.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Speakers
var (
	User = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Coach = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Motion frames the motion under debate.
var Motion = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Foreground(Text).
	Padding(0, 2)

// Score renders a 0-10 score as a colored meter.
func Score(score int) string {
	score = min(max(score, 0), 10)
	fg := Error
	switch {
	case score >= 7:
		fg = Success
	case score >= 4:
		fg = Accent
	}
	bar := lipgloss.NewStyle().Foreground(fg).Render(strings.Repeat("█", score))
	rest := Dim.Render(strings.Repeat("░", 10-score))
	return fmt.Sprintf("%s%s %d/10", bar, rest, score)
}

// Bullets renders items as a dimmed bullet list.
func Bullets(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(Dim.Render("  • "))
		b.WriteString(Body.Render(it))
		b.WriteString("\n")
	}
	return b.String()
}
