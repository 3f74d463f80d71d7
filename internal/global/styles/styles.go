package styles

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var defaultStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7D56F4"))

var errorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F45E6E"))

var successStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6ef4a1ff"))

var infoStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6EC4F4"))

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#7D56F4")).
	Padding(0, 1)

func SprintfS(style string, format string, a ...interface{}) string {
	text := fmt.Sprintf(format, a...)
	switch style {
	case "error":
		return errorStyle.Render(text)
	case "success":
		return successStyle.Render(text)
	case "info":
		return infoStyle.Render(text)
	default:
		return defaultStyle.Render(text)
	}
}

// FprintFS writes one styled line to w
func FprintFS(w io.Writer, style string, format string, a ...interface{}) {
	fmt.Fprintln(w, SprintfS(style, format, a...))
}

// Report renders the end-of-run summary shown to the operator
func Report(outcome, password string, processed int64, elapsed time.Duration) string {
	var headline string
	switch outcome {
	case "found":
		headline = SprintfS("success", "Password found: %s", password)
	case "exhausted":
		headline = SprintfS("error", "Password is not in brute-forced space")
	default:
		headline = SprintfS("info", "Stopped before completion")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		headline,
		SprintfS("default", "Candidates processed: %d", processed),
		SprintfS("default", "Elapsed: %s", elapsed.Round(time.Millisecond)),
	)
	return boxStyle.Render(body)
}
