package tui

import "github.com/charmbracelet/lipgloss"

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	valueStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fff4d0"))

	heroAccentColor        = lipgloss.Color("#3b82f6")
	heroDeepColor          = lipgloss.Color("#0b1a33")
	heroTextColor          = lipgloss.Color("#e0f2fe")
	heroSecondaryTextColor = lipgloss.Color("#93c5fd")

	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	dropZoneStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#93c5fd")).Padding(1, 2)
	errorCardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#fecaca")).Foreground(lipgloss.Color("#b91c1c")).Padding(0, 2)
	metricCardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).Width(24)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	busyBadgeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	helpBoxStyle       = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroDeepColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#020817"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)

	metricAccents = map[string]lipgloss.Color{
		"Predicted Class": lipgloss.Color("#3b82f6"),
		"Confidence":      lipgloss.Color("#22c55e"),
		"Entropy":         lipgloss.Color("#a855f7"),
		"Variance":        lipgloss.Color("#f97316"),
	}

	logoArtLines = []string{
		"████████╗  ██╗   ██╗  ███╗   ███╗   ██████╗   ██████╗   ███████╗   ██████╗   ██████╗   ██████╗   ███████╗  ",
		"╚══██╔══╝  ██║   ██║  ████╗ ████║  ██╔═══██╗  ██╔══██╗  ██╔════╝  ██╔════╝  ██╔═══██╗  ██╔══██╗  ██╔════╝  ",
		"   ██║     ██║   ██║  ██╔████╔██║  ██║   ██║  ██████╔╝  ███████╗  ██║       ██║   ██║  ██████╔╝  █████╗    ",
		"   ██║     ██║   ██║  ██║╚██╔╝██║  ██║   ██║  ██╔══██╗  ╚════██║  ██║       ██║   ██║  ██╔═══╝   ██╔══╝    ",
		"   ██║     ╚██████╔╝  ██║ ╚═╝ ██║  ╚██████╔╝  ██║  ██║  ███████║  ╚██████╗  ╚██████╔╝  ██║       ███████╗  ",
		"   ╚═╝      ╚═════╝   ╚═╝     ╚═╝   ╚═════╝   ╚═╝  ╚═╝  ╚══════╝   ╚═════╝   ╚═════╝   ╚═╝       ╚══════╝  ",
	}
)
