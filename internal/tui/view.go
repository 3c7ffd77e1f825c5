package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/tumorscope/internal/notify"
)

func (m *model) View() string {
	m.refreshViewportIfDirty()
	state := m.controller.State()

	parts := []string{m.heroView(), m.toastsView(), m.uploadPanel()}
	if m.stage == stagePrompt {
		parts = append(parts, m.promptPanel())
	}
	if state.Error != "" {
		parts = append(parts, errorCardStyle.Render("✖ "+wordwrap.String("Error: "+state.Error, m.wrapWidth(8))))
	}
	if state.Result != nil {
		parts = append(parts, m.viewport.View())
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if state.Busy {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView(), m.helpView())
	}
	parts = append(parts, m.statusBarView())
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(wordwrap.String(heroTagline, m.wrapWidth(0))),
	)
}

func (m *model) toastsView() string {
	active := m.tray.Active()
	if len(active) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(active))
	for _, toast := range active {
		rendered = append(rendered, notify.Render(toast))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m *model) uploadPanel() string {
	selection := m.controller.State().Selection
	if selection.File == nil {
		lines := []string{
			sectionHeaderStyle.Render("Upload MRI Image"),
			helperStyle.Render("Drag and drop your MRI image here (its path is pasted), or press o to browse"),
			helperStyle.Render("Supports JPG and PNG files"),
		}
		if m.config.DropDir != "" {
			lines = append(lines, helperStyle.Render("Drop folder: "+m.config.DropDir))
		}
		return dropZoneStyle.Render(strings.Join(lines, "\n"))
	}

	thumb := lipgloss.JoinVertical(
		lipgloss.Center,
		selection.Preview.Thumbnail,
		helperStyle.Render(wordwrap.String(selection.File.Name, m.previews.Columns()+2)),
	)
	analyze := keyStyle.Render("enter") + keyDescStyle.Render(" Analyze Image")
	if m.controller.State().Busy {
		analyze = busyBadgeStyle.Render(m.spinner.View() + " Analyzing...")
	}
	actions := strings.Join([]string{
		analyze,
		keyStyle.Render("r") + keyDescStyle.Render(" Reset"),
		keyStyle.Render("o") + keyDescStyle.Render(" Choose another"),
	}, "\n\n")
	return lipgloss.JoinHorizontal(lipgloss.Center, thumb, lipgloss.NewStyle().PaddingLeft(4).Render(actions))
}

func (m *model) promptPanel() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Choose Image"),
		m.pathInput.View(),
		helperStyle.Render("Enter to select, Esc to cancel."),
	})
}

func (m *model) statusBarView() string {
	stats := []string{
		fmt.Sprintf("Phase %s", m.controller.Phase()),
	}
	if m.config.EndpointLabel != "" {
		stats = append(stats, "Endpoint "+m.config.EndpointLabel)
	}
	if m.config.DropDir != "" {
		stats = append(stats, "Drop folder on")
	}
	stats = append(stats, m.jobStatusBadges()...)
	stats = append(stats, "? help")
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) jobStatusBadges() []string {
	if len(m.activeJobs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(m.activeJobs))
	for id := range m.activeJobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	badges := make([]string, 0, len(ids))
	for _, id := range ids {
		snapshot := m.activeJobs[id]
		badges = append(badges, fmt.Sprintf("%s %s", snapshot.Kind, snapshot.Status))
	}
	return badges
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"o", "Choose image"},
		{"enter/a", "Analyze"},
		{"r", "Reset"},
		{"↑/↓", "Scroll results"},
		{"pgup/pgdn", "Page results"},
		{"?", "Toggle cheatsheet"},
		{"esc", "Cancel or quit"},
		{"Ctrl+C", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Keyboard Cheatsheet")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("How it works"),
		helperStyle.Render("• press o and type a path, or drag a file onto the terminal to paste its path."),
		helperStyle.Render("• files copied into the drop folder are picked up automatically."),
		helperStyle.Render("• only JPG and PNG images are accepted."),
		helperStyle.Render("• explanations and counterfactuals are hidden when no tumor is detected."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
		}
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}
