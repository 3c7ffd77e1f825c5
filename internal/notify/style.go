package notify

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	destructiveBorderColor = lipgloss.Color("#f87171")
	destructiveBackground  = lipgloss.Color("#fef2f2")
	destructiveTextColor   = lipgloss.Color("#991b1b")
	destructiveIconColor   = lipgloss.Color("#ef4444")
	successIconColor       = lipgloss.Color("#61d345")
	defaultTextColor       = lipgloss.Color("#363636")
	defaultBackground      = lipgloss.Color("#ffffff")

	destructiveToastStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(destructiveBorderColor).
				Background(destructiveBackground).
				Foreground(destructiveTextColor).
				Padding(0, 1)
	destructiveIconStyle = lipgloss.NewStyle().Bold(true).Foreground(destructiveIconColor).Background(destructiveBackground)
	defaultToastStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#e5e7eb")).
				Background(defaultBackground).
				Foreground(defaultTextColor).
				Padding(0, 1)
	successIconStyle = lipgloss.NewStyle().Bold(true).Foreground(successIconColor).Background(defaultBackground)
)

const (
	destructiveIcon = "✖"
	successIcon     = "✔"
	toastWrapWidth  = 56
)

// Render draws a toast as a bordered box.
func Render(toast Toast) string {
	icon, box := treatment(toast.Severity)
	body := wordwrap.String(toast.Message, toastWrapWidth)
	return box.Render(icon + " " + body)
}

// RenderLine draws a toast without a border for line-oriented output.
func RenderLine(toast Toast) string {
	icon, _ := treatment(toast.Severity)
	text := strings.ReplaceAll(toast.Message, "\n", " ")
	if toast.Severity == Destructive {
		return icon + " " + lipgloss.NewStyle().Foreground(destructiveTextColor).Render(text)
	}
	return icon + " " + text
}

func treatment(severity Severity) (string, lipgloss.Style) {
	if severity == Destructive {
		return destructiveIconStyle.Render(destructiveIcon), destructiveToastStyle
	}
	return successIconStyle.Render(successIcon), defaultToastStyle
}
