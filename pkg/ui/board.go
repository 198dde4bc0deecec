package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/toc"
)

// Column indices for the status board
const (
	ColPending    = 0
	ColInProgress = 1
	ColDone       = 2
	ColUntracked  = 3
)

// boardChapter is one card on the status board.
type boardChapter struct {
	ID       string
	Title    string
	Progress model.ChapterProgress
	Counted  bool
}

// BoardModel groups the book's chapters into status columns: untouched,
// partially translated, fully translated, and not yet analyzed. It is a
// read-only complement to the tree, for seeing where the pipeline stands
// at a glance.
type BoardModel struct {
	columns      [4][]boardChapter
	activeColIdx []int  // Indices of non-empty columns (for navigation)
	focusedCol   int    // Index into activeColIdx
	selectedRow  [4]int // Store selection for each column
	theme        Theme
}

// NewBoardModel builds the board from the book's chapters in reading
// order.
func NewBoardModel(book model.Book, counters map[string]model.ChapterProgress, theme Theme) BoardModel {
	b := BoardModel{theme: theme}
	b.SetBook(book, counters)
	return b
}

// SetBook rebuilds the board data, typically after a pipeline reload.
func (b *BoardModel) SetBook(book model.Book, counters map[string]model.ChapterProgress) {
	var cols [4][]boardChapter

	titles := make(map[string]string)
	var walk func(nodes []model.ChapterNode)
	walk = func(nodes []model.ChapterNode) {
		for _, n := range nodes {
			if n.ChapterID != "" {
				if _, seen := titles[n.ChapterID]; !seen {
					titles[n.ChapterID] = n.Title
				}
			}
			walk(n.Children)
		}
	}
	walk(book.Chapters)

	for _, id := range toc.Flatten(book.Chapters) {
		ch := boardChapter{ID: id, Title: titles[id]}
		progress, ok := counters[id]
		if !ok {
			cols[ColUntracked] = append(cols[ColUntracked], ch)
			continue
		}
		ch.Progress = progress
		ch.Counted = true
		switch {
		case progress.Total > 0 && progress.Completed >= progress.Total:
			cols[ColDone] = append(cols[ColDone], ch)
		case progress.Completed > 0:
			cols[ColInProgress] = append(cols[ColInProgress], ch)
		default:
			cols[ColPending] = append(cols[ColPending], ch)
		}
	}

	b.columns = cols

	// Sanitize selection to prevent out-of-bounds
	for i := 0; i < 4; i++ {
		if b.selectedRow[i] >= len(b.columns[i]) {
			if len(b.columns[i]) > 0 {
				b.selectedRow[i] = len(b.columns[i]) - 1
			} else {
				b.selectedRow[i] = 0
			}
		}
	}

	b.updateActiveColumns()
}

// updateActiveColumns rebuilds the list of non-empty column indices
func (b *BoardModel) updateActiveColumns() {
	b.activeColIdx = nil
	for i := 0; i < 4; i++ {
		if len(b.columns[i]) > 0 {
			b.activeColIdx = append(b.activeColIdx, i)
		}
	}
	// If all columns are empty, include the three real ones anyway
	if len(b.activeColIdx) == 0 {
		b.activeColIdx = []int{ColPending, ColInProgress, ColDone}
	}
	if b.focusedCol >= len(b.activeColIdx) {
		b.focusedCol = len(b.activeColIdx) - 1
	}
	if b.focusedCol < 0 {
		b.focusedCol = 0
	}
}

// actualFocusedCol returns the actual column index (0-3) being focused
func (b *BoardModel) actualFocusedCol() int {
	if len(b.activeColIdx) == 0 {
		return 0
	}
	return b.activeColIdx[b.focusedCol]
}

// Navigation methods
func (b *BoardModel) MoveDown() {
	col := b.actualFocusedCol()
	count := len(b.columns[col])
	if count == 0 {
		return
	}
	if b.selectedRow[col] < count-1 {
		b.selectedRow[col]++
	}
}

func (b *BoardModel) MoveUp() {
	col := b.actualFocusedCol()
	if b.selectedRow[col] > 0 {
		b.selectedRow[col]--
	}
}

func (b *BoardModel) MoveRight() {
	if b.focusedCol < len(b.activeColIdx)-1 {
		b.focusedCol++
	}
}

func (b *BoardModel) MoveLeft() {
	if b.focusedCol > 0 {
		b.focusedCol--
	}
}

func (b *BoardModel) MoveToTop() {
	col := b.actualFocusedCol()
	b.selectedRow[col] = 0
}

func (b *BoardModel) MoveToBottom() {
	col := b.actualFocusedCol()
	count := len(b.columns[col])
	if count > 0 {
		b.selectedRow[col] = count - 1
	}
}

// SelectedChapterID returns the chapter under the board cursor, or empty
// if the focused column is empty.
func (b *BoardModel) SelectedChapterID() string {
	col := b.actualFocusedCol()
	sel := b.selectedRow[col]
	if sel >= 0 && sel < len(b.columns[col]) {
		return b.columns[col][sel].ID
	}
	return ""
}

// ColumnCount returns the number of chapters in the given column.
func (b *BoardModel) ColumnCount(col int) int {
	if col < 0 || col > 3 {
		return 0
	}
	return len(b.columns[col])
}

// TotalCount returns the total number of chapters on the board.
func (b *BoardModel) TotalCount() int {
	total := 0
	for i := 0; i < 4; i++ {
		total += len(b.columns[i])
	}
	return total
}

// View renders the board at the given size.
func (b BoardModel) View(width, height int) string {
	t := b.theme

	numCols := len(b.activeColIdx)
	if numCols == 0 || b.TotalCount() == 0 {
		return t.Renderer.NewStyle().
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(t.Secondary).
			Render("No chapters to display")
	}

	minColWidth := 24
	gaps := numCols - 1
	availableWidth := width - (gaps * 2)

	baseWidth := availableWidth / numCols
	if baseWidth < minColWidth {
		baseWidth = minColWidth
	}

	colHeight := height - 4
	if colHeight < 6 {
		colHeight = 6
	}

	columnTitles := []string{"PENDING", "IN PROGRESS", "DONE", "NOT ANALYZED"}
	columnColors := []lipgloss.AdaptiveColor{t.Pending, t.Partial, t.Done, t.Untracked}

	var renderedCols []string

	for i, colIdx := range b.activeColIdx {
		isFocused := b.focusedCol == i
		chapters := b.columns[colIdx]
		count := len(chapters)

		headerText := fmt.Sprintf("%s (%d)", columnTitles[colIdx], count)
		headerStyle := t.Renderer.NewStyle().
			Width(baseWidth).
			Align(lipgloss.Center).
			Bold(true).
			Padding(0, 1)

		if isFocused {
			headerStyle = headerStyle.
				Background(columnColors[colIdx]).
				Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1a1a1a"})
		} else {
			headerStyle = headerStyle.Foreground(columnColors[colIdx])
		}

		header := headerStyle.Render(headerText)

		// Two lines per card plus a margin line
		cardHeight := 3
		visibleCards := (colHeight - 1) / cardHeight
		if visibleCards < 1 {
			visibleCards = 1
		}

		sel := b.selectedRow[colIdx]
		if sel >= count && count > 0 {
			sel = count - 1
		}

		// Simple scrolling: keep selected card visible
		start := 0
		if sel >= visibleCards {
			start = sel - visibleCards + 1
		}
		end := start + visibleCards
		if end > count {
			end = count
		}

		var cards []string
		for rowIdx := start; rowIdx < end; rowIdx++ {
			isSelected := isFocused && rowIdx == sel
			cards = append(cards, b.renderCard(chapters[rowIdx], baseWidth-4, isSelected))
		}

		if count == 0 {
			emptyStyle := t.Renderer.NewStyle().
				Width(baseWidth-4).
				Height(colHeight-2).
				Align(lipgloss.Center, lipgloss.Center).
				Foreground(t.Secondary).
				Italic(true)
			cards = append(cards, emptyStyle.Render("(empty)"))
		}

		if count > visibleCards {
			scrollInfo := fmt.Sprintf("↕ %d/%d", sel+1, count)
			scrollStyle := t.Renderer.NewStyle().
				Width(baseWidth - 4).
				Align(lipgloss.Center).
				Foreground(t.Secondary).
				Italic(true)
			cards = append(cards, scrollStyle.Render(scrollInfo))
		}

		content := lipgloss.JoinVertical(lipgloss.Left, cards...)

		colStyle := t.Renderer.NewStyle().
			Width(baseWidth).
			Height(colHeight).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

		if isFocused {
			colStyle = colStyle.BorderForeground(columnColors[colIdx])
		} else {
			colStyle = colStyle.BorderForeground(t.Border)
		}

		column := lipgloss.JoinVertical(lipgloss.Center, header, colStyle.Render(content))
		renderedCols = append(renderedCols, column)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, renderedCols...)
}

// renderCard renders a two-line chapter card: title, then progress.
func (b BoardModel) renderCard(ch boardChapter, width int, selected bool) string {
	t := b.theme

	title := runewidth.Truncate(ch.Title, width, "…")
	if title == "" {
		title = ch.ID
	}

	var progressLine string
	if ch.Counted {
		progressLine = fmt.Sprintf("%s %d/%d", renderProgressBar(ch.Progress, width-8), ch.Progress.Completed, ch.Progress.Total)
	} else {
		progressLine = "—"
	}

	titleStyle := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
	progressStyle := t.Renderer.NewStyle().Foreground(t.GetProgressColor(ch.Progress.Completed, ch.Progress.Total, ch.Counted))
	if selected {
		titleStyle = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	}

	card := titleStyle.Render(title) + "\n" + progressStyle.Render(progressLine)

	cardStyle := t.Renderer.NewStyle().
		Width(width).
		MarginBottom(1)
	if selected {
		cardStyle = cardStyle.
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Primary).
			PaddingLeft(1)
	}

	return cardStyle.Render(card)
}

// renderProgressBar draws a fixed-width bar of filled and empty cells.
func renderProgressBar(p model.ChapterProgress, width int) string {
	if width < 4 {
		width = 4
	}
	filled := 0
	if p.Total > 0 {
		filled = width * p.Completed / p.Total
		if filled > width {
			filled = width
		}
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
