package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/export"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/toc"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// SplitViewThreshold is the minimum terminal width for the side-by-side
// tree + preview layout. Below it the preview becomes a full-screen
// overlay toggled with enter/esc.
const SplitViewThreshold = 100

type focus int

const (
	focusTree focus = iota
	focusPreview
)

// TextProvider supplies the translated text of a chapter for the preview
// pane. The SQLite reader implements it; a nil provider disables previews.
type TextProvider interface {
	ChapterText(chapterID string) (string, error)
}

type Model struct {
	book     model.Book
	counters map[string]model.ChapterProgress

	tree     ChapterTreeModel
	board    BoardModel
	viewport viewport.Model
	renderer *glamour.TermRenderer
	theme    Theme

	etvDir   string
	provider TextProvider
	runner   *PipelineRunner

	focused          focus
	isSplitView      bool
	isBoardView      bool
	showPreview      bool
	showHelp         bool
	showExportPicker bool
	ready            bool
	width            int
	height           int
	splitRatio       float64

	exportPicker ExportPickerModel

	// previewID is the chapter currently rendered in the viewport, used
	// to skip redundant re-renders while navigating.
	previewID string

	statusLine string
}

// ModelOption configures optional wiring on a new Model.
type ModelOption func(*Model)

// WithTextProvider enables chapter text previews and clipboard copy.
func WithTextProvider(p TextProvider) ModelOption {
	return func(m *Model) { m.provider = p }
}

// WithPipelineRunner enables queueing translation work from the viewer.
func WithPipelineRunner(r *PipelineRunner) ModelOption {
	return func(m *Model) { m.runner = r }
}

// WithMinimal starts the tree in minimal mode.
func WithMinimal(minimal bool) ModelOption {
	return func(m *Model) { m.tree.SetMinimal(minimal) }
}

// WithSplitRatio overrides the tree/preview width split.
func WithSplitRatio(ratio float64) ModelOption {
	return func(m *Model) {
		if ratio > 0.1 && ratio < 0.9 {
			m.splitRatio = ratio
		}
	}
}

// WithAutoExpand controls whether setting the active chapter expands the
// path down to it.
func WithAutoExpand(enabled bool) ModelOption {
	return func(m *Model) { m.tree.SetAutoExpand(enabled) }
}

// WithActiveChapter marks the chapter being worked on and moves the
// cursor to it.
func WithActiveChapter(id string) ModelOption {
	return func(m *Model) {
		if id != "" {
			m.tree.SetActiveChapter(id)
		}
	}
}

func NewModel(book model.Book, counters map[string]model.ChapterProgress, etvDir string, opts ...ModelOption) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	m := Model{
		book:         book,
		counters:     counters,
		tree:         NewChapterTreeModel(theme),
		board:        NewBoardModel(book, counters, theme),
		exportPicker: NewExportPickerModel(theme),
		renderer:     r,
		theme:        theme,
		etvDir:       etvDir,
		focused:      focusTree,
		splitRatio:   0.4,
	}

	m.tree.Build(book.Chapters, counters)

	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case SnapshotReadyMsg:
		if msg.Snapshot == nil {
			break
		}
		m.book = msg.Snapshot.Book
		m.counters = msg.Snapshot.Progress
		m.tree.Build(m.book.Chapters, m.counters)
		m.board.SetBook(m.book, m.counters)
		m.statusLine = "reloaded"
		m.previewID = ""
		m.updatePreview()

	case SnapshotErrorMsg:
		m.statusLine = fmt.Sprintf("reload failed: %v", msg.Err)

	case PipelineResultMsg:
		if msg.Error != nil {
			m.statusLine = fmt.Sprintf("pipeline: %v", msg.Error)
		} else if len(msg.Chapters) > 0 {
			m.statusLine = fmt.Sprintf("queued %d chapters", len(msg.Chapters))
		} else {
			m.statusLine = "pipeline finished"
		}

	case tea.KeyMsg:
		if m.showHelp {
			switch msg.String() {
			case "esc", "?", "q":
				m.showHelp = false
			}
			return m, nil
		}

		if m.showExportPicker {
			switch msg.String() {
			case "esc", "q":
				m.showExportPicker = false
			case "j", "down":
				m.exportPicker.MoveDown()
			case "k", "up":
				m.exportPicker.MoveUp()
			case "enter":
				m.showExportPicker = false
				m.statusLine = m.exportProgress(m.exportPicker.SelectedFormat())
			}
			return m, nil
		}

		if m.isBoardView {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "b", "esc":
				m.isBoardView = false
			case "h", "left":
				m.board.MoveLeft()
			case "l", "right":
				m.board.MoveRight()
			case "j", "down":
				m.board.MoveDown()
			case "k", "up":
				m.board.MoveUp()
			case "g":
				m.board.MoveToTop()
			case "G":
				m.board.MoveToBottom()
			case "enter":
				if id := m.board.SelectedChapterID(); id != "" {
					m.isBoardView = false
					m.tree.SetActiveChapter(id)
					m.previewID = ""
					m.updatePreview()
				}
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			if m.showPreview && !m.isSplitView {
				m.showPreview = false
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.showPreview && !m.isSplitView {
				m.showPreview = false
				return m, nil
			}
			if m.focused == focusPreview {
				m.focused = focusTree
				return m, nil
			}
		case "?":
			m.showHelp = true
			return m, nil
		case "b":
			m.isBoardView = true
			return m, nil
		case "e":
			m.exportPicker.SetSize(m.width, m.height)
			m.showExportPicker = true
			return m, nil
		case "tab":
			if m.isSplitView {
				if m.focused == focusTree {
					m.focused = focusPreview
				} else {
					m.focused = focusTree
				}
			}
			return m, nil
		}

		if m.focused == focusPreview {
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "j", "down":
			m.tree.MoveDown()
			m.updatePreview()
		case "k", "up":
			m.tree.MoveUp()
			m.updatePreview()
		case "h", "left":
			m.tree.CollapseOrJumpToParent()
		case "l", "right":
			m.tree.ExpandOrMoveToChild()
		case "enter":
			if id := m.tree.SelectedChapterID(); id != "" {
				m.tree.SetActiveChapter(id)
				m.previewID = ""
				m.updatePreview()
				if !m.isSplitView {
					m.showPreview = true
				}
			} else {
				m.tree.ToggleExpand()
			}
		case " ", "space":
			m.tree.ToggleSelect()
		case "a":
			m.tree.SelectAll()
		case "A":
			m.tree.DeselectAll()
		case "E":
			m.tree.ExpandAll()
		case "C":
			m.tree.CollapseAll()
		case "m":
			m.tree.SetMinimal(!m.tree.Minimal())
		case "n":
			if id, ok := m.tree.NextChapter(); ok {
				m.tree.SetActiveChapter(id)
				m.previewID = ""
				m.updatePreview()
			}
		case "p":
			if id, ok := m.tree.PrevChapter(); ok {
				m.tree.SetActiveChapter(id)
				m.previewID = ""
				m.updatePreview()
			}
		case "y":
			m.statusLine = m.copyChapterText()
		case "t":
			if cmd := m.queueTranslation(false); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "T":
			if cmd := m.queueTranslation(true); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "g":
			m.tree.JumpToTop()
			m.updatePreview()
		case "G":
			m.tree.JumpToBottom()
			m.updatePreview()
		case "ctrl+d":
			m.tree.PageDown()
			m.updatePreview()
		case "ctrl+u":
			m.tree.PageUp()
			m.updatePreview()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.isSplitView = msg.Width > SplitViewThreshold
		m.ready = true

		footerHeight := 1
		availableHeight := msg.Height - footerHeight

		if m.isSplitView {
			treeWidth := int(float64(msg.Width) * m.splitRatio)
			previewWidth := msg.Width - treeWidth - 4

			m.tree.SetSize(treeWidth, availableHeight-2)
			m.viewport = viewport.New(previewWidth, availableHeight-2)

			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(previewWidth),
			)
		} else {
			m.tree.SetSize(msg.Width, availableHeight-2)
			m.viewport = viewport.New(msg.Width, availableHeight-2)
		}
		m.previewID = ""
		m.updatePreview()
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading book..."
	}

	if m.showHelp {
		help := RenderHelp(m.currentContext(), m.theme, m.width, m.height)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, help)
	}

	if m.showExportPicker {
		return m.exportPicker.View()
	}

	var body string

	if m.isBoardView {
		body = m.board.View(m.width, m.height-1)
		footer := m.renderFooter()
		return lipgloss.JoinVertical(lipgloss.Left, body, footer)
	}

	if m.isSplitView {
		var treeStyle, previewStyle lipgloss.Style
		focusedBorder := m.theme.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(m.theme.Highlight)
		blurredBorder := m.theme.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(m.theme.Border)

		if m.focused == focusTree {
			treeStyle = focusedBorder
			previewStyle = blurredBorder
		} else {
			treeStyle = blurredBorder
			previewStyle = focusedBorder
		}

		treeView := treeStyle.Height(m.height - 2).Render(m.tree.View())
		previewView := previewStyle.Width(m.viewport.Width).Height(m.height - 2).Render(m.viewport.View())

		body = lipgloss.JoinHorizontal(lipgloss.Top, treeView, previewView)
	} else {
		if m.showPreview {
			body = m.viewport.View()
		} else {
			body = m.tree.View()
		}
	}

	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m *Model) currentContext() Context {
	switch {
	case m.tree.Minimal():
		return ContextMinimal
	case m.isSplitView:
		return ContextSplit
	case m.showPreview:
		return ContextPreview
	default:
		return ContextTree
	}
}

func (m *Model) renderFooter() string {
	r := m.theme.Renderer
	titleStyle := r.NewStyle().Background(m.theme.Primary).Foreground(m.theme.Base.GetForeground()).Bold(true).Padding(0, 1)
	statsStyle := r.NewStyle().Foreground(m.theme.Secondary).Padding(0, 1)
	helpStyle := r.NewStyle().Foreground(m.theme.Subtext).Padding(0, 1)
	statusStyle := r.NewStyle().Foreground(m.theme.Muted).Padding(0, 1)

	title := titleStyle.Render(m.book.Title)

	var stats string
	if progress, ok := toc.AggregateForest(m.book.Chapters, m.counters); ok {
		stats = statsStyle.Render(fmt.Sprintf("%d/%d segments (%.0f%%)", progress.Completed, progress.Total, progress.Percent()))
	} else {
		stats = statsStyle.Render("not analyzed")
	}

	var selected string
	if n := m.tree.SelectionCount(); n > 0 {
		selected = statsStyle.Render(fmt.Sprintf("%d selected", n))
	}

	var keys string
	switch {
	case m.isBoardView:
		keys = "h/j/k/l: nav • enter: open • b: tree • q: quit"
	case m.tree.Minimal():
		keys = "j/k: nav • n/p: chapter • m: tree • q: quit"
	case m.isSplitView:
		keys = "tab: focus • space: select • enter: read • ?: help • q: quit"
	case m.showPreview:
		keys = "j/k: scroll • n/p: chapter • esc: back • q: quit"
	default:
		keys = "j/k: nav • h/l: fold • space: select • enter: read • ?: help • q: quit"
	}
	keysSection := helpStyle.Render(keys)

	status := ""
	if m.statusLine != "" {
		status = statusStyle.Render(m.statusLine)
	}

	left := lipgloss.JoinHorizontal(lipgloss.Bottom, title, stats, selected, status)
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(keysSection)

	remaining := m.width - leftWidth - rightWidth
	if remaining < 0 {
		remaining = 0
	}
	filler := r.NewStyle().Width(remaining).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, filler, keysSection)
}

// updatePreview renders the selected chapter into the viewport. Skips
// work when the selection has not changed.
func (m *Model) updatePreview() {
	id := m.tree.SelectedChapterID()
	if id == "" || id == m.previewID {
		return
	}
	m.previewID = id
	m.viewport.SetContent(m.renderChapter(id))
	m.viewport.GotoTop()
}

func (m *Model) renderChapter(id string) string {
	node := m.tree.Node(id)

	var sb strings.Builder
	title := id
	if node != nil {
		title = node.Node.Title
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	if progress, ok := m.counters[id]; ok {
		sb.WriteString(fmt.Sprintf("**Progress**: %d of %d segments (%.0f%%)\n\n", progress.Completed, progress.Total, progress.Percent()))
	}

	if m.provider == nil {
		sb.WriteString("_No translation database found. Run the pipeline's translate step to populate it._\n")
	} else if text, err := m.provider.ChapterText(id); err != nil {
		sb.WriteString(fmt.Sprintf("_Could not load chapter text: %v_\n", err))
	} else {
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	rendered, err := m.renderer.Render(sb.String())
	if err != nil {
		return fmt.Sprintf("Error rendering markdown: %v", err)
	}
	return rendered
}

// queueTranslation hands the selected chapters to the pipeline CLI. With
// nothing selected the chapter under the cursor is queued.
func (m *Model) queueTranslation(force bool) tea.Cmd {
	if m.runner == nil {
		m.statusLine = "no pipeline wired"
		return nil
	}
	ids := m.tree.Selection()
	if len(ids) == 0 {
		if id := m.tree.SelectedChapterID(); id != "" {
			ids = []string{id}
		}
	}
	if len(ids) == 0 {
		m.statusLine = "nothing selected"
		return nil
	}
	m.statusLine = fmt.Sprintf("queueing %d chapters...", len(ids))
	if force {
		return m.runner.RetranslateChapters(ids)
	}
	return m.runner.TranslateChapters(ids)
}

// exportProgress writes a progress report next to the .etv directory and
// returns a status line describing the outcome.
func (m *Model) exportProgress(format ExportFormat) string {
	bookDir := filepath.Dir(m.etvDir)
	switch format {
	case ExportMarkdown:
		path := filepath.Join(bookDir, "progress.md")
		if err := export.SaveMarkdownToFile(m.book, m.counters, path); err != nil {
			return fmt.Sprintf("export failed: %v", err)
		}
		return fmt.Sprintf("wrote %s", path)
	case ExportSVG:
		path := filepath.Join(bookDir, "progress.svg")
		if err := export.SaveProgressSVG(m.book, m.counters, path); err != nil {
			return fmt.Sprintf("export failed: %v", err)
		}
		return fmt.Sprintf("wrote %s", path)
	}
	return ""
}

// copyChapterText puts the selected chapter's translated text on the
// system clipboard and returns a status line describing the outcome.
func (m *Model) copyChapterText() string {
	id := m.tree.SelectedChapterID()
	if id == "" {
		return "nothing to copy"
	}
	if m.provider == nil {
		return "no translation database"
	}
	text, err := m.provider.ChapterText(id)
	if err != nil {
		return fmt.Sprintf("copy failed: %v", err)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Sprintf("clipboard error: %v", err)
	}
	return fmt.Sprintf("copied %q", id)
}

// ActiveChapter exposes the tree's active chapter for persistence.
func (m Model) ActiveChapter() string {
	return m.tree.ActiveChapter()
}

// SelectedChapterIDs exposes the current selection for export flows.
func (m Model) SelectedChapterIDs() []string {
	return m.tree.Selection()
}
