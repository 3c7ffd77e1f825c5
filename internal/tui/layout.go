package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/preview"
	"github.com/csheth/tumorscope/internal/workflow"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	const chrome = 16
	usable := height - chrome
	if usable < 8 {
		usable = 8
	}
	l.viewportHeight = usable
}

type contentBuilder struct {
	builder strings.Builder
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

// renderedResult caches image renders for the result currently on screen.
type renderedResult struct {
	result      *inference.Result
	explanation string
	gallery     []string
}

func (m *model) renderImages(result *inference.Result) renderedResult {
	if m.rendered.result == result {
		return m.rendered
	}
	columns := m.previews.Columns()
	out := renderedResult{result: result}
	if workflow.ShowExplanation(result) {
		out.explanation = renderOrNotice(result.LimeExplanation, columns)
	}
	for _, item := range workflow.Gallery(result) {
		img := renderOrNotice(item.Image, columns)
		out.gallery = append(out.gallery, lipgloss.JoinVertical(lipgloss.Center, img, helperStyle.Render(item.Label)))
	}
	m.rendered = out
	return out
}

func renderOrNotice(encoded string, columns int) string {
	img, err := preview.RenderBase64(encoded, columns)
	if err != nil {
		return errorStyle.Render("image unavailable: " + err.Error())
	}
	return img
}

func (m *model) buildResultsContent() string {
	result := m.currentResult()
	if !workflow.ShowMetrics(result) {
		return ""
	}
	cb := &contentBuilder{}
	cb.WriteString(sectionHeaderStyle.Render("Analysis Results"))
	cb.WriteRune('\n')
	cb.WriteString(m.metricGrid(result))
	cb.WriteRune('\n')

	images := m.renderImages(result)
	if workflow.ShowExplanation(result) {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render("LIME Explanation"))
		cb.WriteRune('\n')
		cb.WriteString(images.explanation)
		cb.WriteRune('\n')
	}
	if workflow.ShowCounterfactuals(result) {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render("Counterfactual Examples"))
		cb.WriteRune('\n')
		cb.WriteString(m.galleryRows(images.gallery))
		cb.WriteRune('\n')
	}
	if result.NoTumor() {
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(wordwrap.String("No tumor detected, so no explanation or counterfactuals are shown.", m.wrapWidth(4))))
		cb.WriteRune('\n')
	}
	return cb.String()
}

func (m *model) metricGrid(result *inference.Result) string {
	class := result.PredictedClass
	if result.PredictedClassEnsemble != "" && result.PredictedClassEnsemble != result.PredictedClass {
		class += "\n" + helperStyle.Render("ensemble: "+result.PredictedClassEnsemble)
	}
	cards := []string{
		metricCard("Predicted Class", class),
		metricCard("Confidence", workflow.FormatConfidence(result.Confidence)),
		metricCard("Entropy", workflow.FormatMetric(result.Entropy)),
		metricCard("Variance", workflow.FormatMetric(result.Variance)),
	}
	return joinRows(cards, m.perRow(28))
}

func metricCard(label, value string) string {
	style := metricCardStyle
	if accent, ok := metricAccents[label]; ok {
		style = style.BorderForeground(accent)
	}
	return style.Render(labelStyle.Render(label) + "\n" + valueStyle.Render(value))
}

func (m *model) galleryRows(items []string) string {
	return joinRows(items, m.perRow(m.previews.Columns()+4))
}

func (m *model) perRow(cellWidth int) int {
	if cellWidth <= 0 {
		return 1
	}
	n := m.wrapWidth(0) / cellWidth
	if n < 1 {
		n = 1
	}
	return n
}

func joinRows(cells []string, perRow int) string {
	if perRow < 1 {
		perRow = 1
	}
	rows := make([]string, 0, len(cells)/perRow+1)
	for i := 0; i < len(cells); i += perRow {
		end := i + perRow
		if end > len(cells) {
			end = len(cells)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells[i:end]...))
	}
	return strings.Join(rows, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}
