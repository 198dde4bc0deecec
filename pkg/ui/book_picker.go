package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/config"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

// BookEntry holds display data for one book in the picker.
type BookEntry struct {
	Book        config.BookEntry
	FavoriteNum int  // 0 = not favorited, 1-9 = key
	IsActive    bool // Currently open book
	Progress    model.ChapterProgress
	Counted     bool // False when the book has no progress data yet
}

// SwitchBookMsg is sent when the user picks a book to open.
type SwitchBookMsg struct {
	Book config.BookEntry
}

// ToggleFavoriteMsg is sent when the user toggles a book's favorite slot.
type ToggleFavoriteMsg struct {
	BookName   string
	SlotNumber int // 0 = remove, 1-9 = assign
}

// BookPickerModel is a vertical list for choosing which book to open.
// Books registered in the config and books discovered under the scan
// paths show up together, favorites first.
type BookPickerModel struct {
	entries     []BookEntry
	filtered    []int // indices into entries
	cursor      int
	width       int
	height      int
	filterInput textinput.Model
	filtering   bool
	theme       Theme
}

// NewBookPicker creates a picker over the given entries.
func NewBookPicker(entries []BookEntry, theme Theme) BookPickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 50
	ti.Width = 30

	indices := make([]int, len(entries))
	for i := range entries {
		indices[i] = i
	}

	return BookPickerModel{
		entries:     entries,
		filtered:    indices,
		filterInput: ti,
		theme:       theme,
	}
}

// SetSize updates the picker dimensions.
func (m *BookPickerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles keyboard input for the book picker.
func (m BookPickerModel) Update(msg tea.Msg) (BookPickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m BookPickerModel) updateNormal(msg tea.KeyMsg) (BookPickerModel, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.filtering = true
		m.cursor = 0
		m.filterInput.SetValue("")
		m.filterInput.Focus()
	case "j", "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g":
		m.cursor = 0
	case "G":
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		}
	case "enter":
		if entry := m.SelectedEntry(); entry != nil {
			book := entry.Book
			return m, func() tea.Msg {
				return SwitchBookMsg{Book: book}
			}
		}
	case "u":
		if entry := m.SelectedEntry(); entry != nil {
			slot := m.nextAvailableFavoriteSlot(*entry)
			name := entry.Book.Name
			return m, func() tea.Msg {
				return ToggleFavoriteMsg{BookName: name, SlotNumber: slot}
			}
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(msg.String()[0] - '0')
		for _, entry := range m.entries {
			if entry.FavoriteNum == n {
				book := entry.Book
				return m, func() tea.Msg {
					return SwitchBookMsg{Book: book}
				}
			}
		}
	}
	return m, nil
}

func (m BookPickerModel) updateFiltering(msg tea.KeyMsg) (BookPickerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.applyFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		if entry := m.SelectedEntry(); entry != nil {
			book := entry.Book
			return m, func() tea.Msg {
				return SwitchBookMsg{Book: book}
			}
		}
		return m, nil
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.applyFilter()
		return m, cmd
	}
}

// applyFilter updates the filtered indices from the current filter input.
func (m *BookPickerModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if query == "" {
		m.filtered = make([]int, len(m.entries))
		for i := range m.entries {
			m.filtered[i] = i
		}
		if m.cursor >= len(m.filtered) {
			m.cursor = max(0, len(m.filtered)-1)
		}
		return
	}

	type scored struct {
		index int
		score int
	}
	var matches []scored
	for i, entry := range m.entries {
		name := strings.ToLower(entry.Book.Name)
		path := strings.ToLower(entry.Book.Path)
		best := fuzzyScore(name, query)
		if s := fuzzyScore(path, query); s > best {
			best = s
		}
		if best > 0 {
			matches = append(matches, scored{i, best})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	m.filtered = make([]int, len(matches))
	for i, match := range matches {
		m.filtered[i] = match.index
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// nextAvailableFavoriteSlot cycles through favorite slots for the entry:
// favorited entries get unfavorited, others get the lowest free slot.
func (m *BookPickerModel) nextAvailableFavoriteSlot(entry BookEntry) int {
	if entry.FavoriteNum > 0 {
		return 0
	}
	used := make(map[int]bool)
	for _, e := range m.entries {
		if e.FavoriteNum > 0 {
			used[e.FavoriteNum] = true
		}
	}
	for n := 1; n <= 9; n++ {
		if !used[n] {
			return n
		}
	}
	return 0
}

// View renders the book list with a shortcut bar on top.
func (m *BookPickerModel) View() string {
	if m.width == 0 {
		m.width = 80
	}

	t := m.theme
	var sections []string

	sections = append(sections, m.renderShortcutBar())

	if m.filtering {
		filterStyle := t.Renderer.NewStyle().Foreground(t.Primary)
		sections = append(sections, filterStyle.Render("  / "+m.filterInput.View()))
	}

	if len(m.filtered) == 0 {
		dimStyle := t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true)
		sections = append(sections, dimStyle.Render("  No books found. Configure scan_paths in the config, or run the pipeline in a book directory."))
	} else {
		for i, idx := range m.filtered {
			sections = append(sections, m.renderRow(m.entries[idx], i == m.cursor))
		}
	}

	countStyle := t.Renderer.NewStyle().Foreground(t.Muted)
	sections = append(sections, countStyle.Render(fmt.Sprintf("  %d books", len(m.filtered))))

	return strings.Join(sections, "\n")
}

func (m *BookPickerModel) renderShortcutBar() string {
	t := m.theme

	keyStyle := t.Renderer.NewStyle().Foreground(t.Secondary).Bold(true)
	descStyle := t.Renderer.NewStyle().Foreground(t.Subtext)

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"<1-9>", "Quick Switch"},
		{"</>", "Filter"},
		{"<u>", "Favorite"},
		{"<enter>", "Open"},
	}

	var parts []string
	for _, s := range shortcuts {
		parts = append(parts, keyStyle.Render(s.key)+" "+descStyle.Render(s.desc))
	}

	return " " + strings.Join(parts, "  ")
}

// renderRow renders one book line: "N name  done/total (pct%)  path"
func (m *BookPickerModel) renderRow(entry BookEntry, isCursor bool) string {
	t := m.theme

	numStr := " "
	if entry.FavoriteNum > 0 {
		numStr = fmt.Sprintf("%d", entry.FavoriteNum)
	}

	progress := "—"
	if entry.Counted {
		progress = fmt.Sprintf("%d/%d (%.0f%%)", entry.Progress.Completed, entry.Progress.Total, entry.Progress.Percent())
	}

	name := entry.Book.Name
	if entry.IsActive {
		name += " *"
	}

	line := fmt.Sprintf("  %s %-30s %-16s %s", numStr, runewidth.Truncate(name, 30, "…"), progress, entry.Book.Path)

	if isCursor {
		return t.Selected.Render(line)
	}
	if entry.IsActive {
		return t.PrimaryBold.Render(line)
	}
	return t.Base.Render(line)
}

// Filtering reports whether the picker is in filter mode.
func (m *BookPickerModel) Filtering() bool {
	return m.filtering
}

// Cursor returns the current cursor position.
func (m *BookPickerModel) Cursor() int {
	return m.cursor
}

// FilteredCount returns the number of entries matching the filter.
func (m *BookPickerModel) FilteredCount() int {
	return len(m.filtered)
}

// SetFavoriteSlot records a favorite assignment in the entry list. Any
// entry currently holding the slot loses it.
func (m *BookPickerModel) SetFavoriteSlot(name string, slot int) {
	for i := range m.entries {
		if slot > 0 && m.entries[i].FavoriteNum == slot {
			m.entries[i].FavoriteNum = 0
		}
	}
	for i := range m.entries {
		if m.entries[i].Book.Name == name {
			m.entries[i].FavoriteNum = slot
		}
	}
}

// SelectedEntry returns the highlighted book entry, or nil if none.
func (m *BookPickerModel) SelectedEntry() *BookEntry {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	entry := m.entries[m.filtered[m.cursor]]
	return &entry
}

// BookPickerApp wraps the picker in a standalone program for startup
// book selection, before the main viewer has anything to show.
type BookPickerApp struct {
	picker     BookPickerModel
	choice     *config.BookEntry
	onFavorite func(bookName string, slot int)
}

// NewBookPickerApp creates the standalone picker program model.
func NewBookPickerApp(entries []BookEntry, theme Theme) BookPickerApp {
	return BookPickerApp{picker: NewBookPicker(entries, theme)}
}

// SetFavoriteHandler registers a callback for favorite slot changes, so
// the caller can persist them.
func (a *BookPickerApp) SetFavoriteHandler(fn func(bookName string, slot int)) {
	a.onFavorite = fn
}

func (a BookPickerApp) Init() tea.Cmd {
	return nil
}

func (a BookPickerApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.picker.SetSize(msg.Width, msg.Height)
		return a, nil
	case SwitchBookMsg:
		book := msg.Book
		a.choice = &book
		return a, tea.Quit
	case ToggleFavoriteMsg:
		a.picker.SetFavoriteSlot(msg.BookName, msg.SlotNumber)
		if a.onFavorite != nil {
			a.onFavorite(msg.BookName, msg.SlotNumber)
		}
		return a, nil
	case tea.KeyMsg:
		if !a.picker.Filtering() {
			switch msg.String() {
			case "q", "ctrl+c", "esc":
				return a, tea.Quit
			}
		}
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

func (a BookPickerApp) View() string {
	return " Open a book\n\n" + a.picker.View()
}

// Choice returns the picked book, or nil if the user quit without
// choosing.
func (a BookPickerApp) Choice() *config.BookEntry {
	return a.choice
}
