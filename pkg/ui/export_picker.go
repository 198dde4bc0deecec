package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ExportFormat identifies one of the report formats the viewer can write.
type ExportFormat string

const (
	ExportMarkdown ExportFormat = "markdown"
	ExportSVG      ExportFormat = "svg"
)

// ExportPickerModel provides a quick export format selection modal
type ExportPickerModel struct {
	formats       []ExportFormat
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewExportPickerModel creates a new export picker
func NewExportPickerModel(theme Theme) ExportPickerModel {
	return ExportPickerModel{
		formats: []ExportFormat{ExportMarkdown, ExportSVG},
		theme:   theme,
	}
}

// SetSize updates the picker dimensions
func (m *ExportPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *ExportPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *ExportPickerModel) MoveDown() {
	if m.selectedIndex < len(m.formats)-1 {
		m.selectedIndex++
	}
}

// SelectedFormat returns the currently selected format
func (m *ExportPickerModel) SelectedFormat() ExportFormat {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.formats) {
		return m.formats[m.selectedIndex]
	}
	return ""
}

// View renders the export picker overlay
func (m *ExportPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 49
	if m.width < 59 {
		boxWidth = m.width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render("Export Progress Report"))
	lines = append(lines, "")

	for i, format := range m.formats {
		isSelected := i == m.selectedIndex

		itemStyle := t.Renderer.NewStyle()
		if isSelected {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}

		prefix := "  "
		if isSelected {
			prefix = "> "
		}

		lines = append(lines, itemStyle.Render(prefix+formatDisplayName(format)))
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k: navigate | enter: export | esc: cancel"))

	content := strings.Join(lines, "\n")

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

// formatDisplayName returns the human-readable label for a format
func formatDisplayName(f ExportFormat) string {
	switch f {
	case ExportMarkdown:
		return "Markdown checklist (progress.md)"
	case ExportSVG:
		return "SVG progress chart (progress.svg)"
	}
	return string(f)
}
