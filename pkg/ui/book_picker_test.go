package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/config"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

func testBookEntries() []BookEntry {
	return []BookEntry{
		{
			Book:        config.BookEntry{Name: "faust", Path: "/books/faust"},
			FavoriteNum: 1,
			IsActive:    true,
			Progress:    model.ChapterProgress{Completed: 12, Total: 40},
			Counted:     true,
		},
		{
			Book:     config.BookEntry{Name: "werther", Path: "/books/werther"},
			Progress: model.ChapterProgress{Completed: 30, Total: 30},
			Counted:  true,
		},
		{
			Book:        config.BookEntry{Name: "wahlverwandtschaften", Path: "/books/wahlverwandtschaften"},
			FavoriteNum: 3,
		},
	}
}

func newPicker(entries []BookEntry) BookPickerModel {
	p := NewBookPicker(entries, TestTheme())
	p.SetSize(100, 30)
	return p
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// TestBookPickerNavigation verifies cursor movement through the list
func TestBookPickerNavigation(t *testing.T) {
	p := newPicker(testBookEntries())

	if p.Cursor() != 0 {
		t.Fatalf("expected cursor at 0, got %d", p.Cursor())
	}

	p, _ = p.Update(keyRunes("j"))
	if p.Cursor() != 1 {
		t.Errorf("expected cursor at 1 after j, got %d", p.Cursor())
	}

	p, _ = p.Update(keyRunes("G"))
	if p.Cursor() != 2 {
		t.Errorf("expected cursor at bottom after G, got %d", p.Cursor())
	}

	// j at the bottom stays put
	p, _ = p.Update(keyRunes("j"))
	if p.Cursor() != 2 {
		t.Errorf("expected cursor clamped at 2, got %d", p.Cursor())
	}

	p, _ = p.Update(keyRunes("g"))
	if p.Cursor() != 0 {
		t.Errorf("expected cursor at top after g, got %d", p.Cursor())
	}

	p, _ = p.Update(keyRunes("k"))
	if p.Cursor() != 0 {
		t.Errorf("expected cursor clamped at 0, got %d", p.Cursor())
	}
}

// TestBookPickerEnterSendsSwitch verifies enter produces a SwitchBookMsg
// for the highlighted book
func TestBookPickerEnterSendsSwitch(t *testing.T) {
	p := newPicker(testBookEntries())

	p, _ = p.Update(keyRunes("j"))
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command from enter")
	}

	msg, ok := cmd().(SwitchBookMsg)
	if !ok {
		t.Fatalf("expected SwitchBookMsg, got %T", cmd())
	}
	if msg.Book.Name != "werther" {
		t.Errorf("expected werther, got %q", msg.Book.Name)
	}
}

// TestBookPickerQuickSwitch verifies number keys jump straight to the
// favorited book
func TestBookPickerQuickSwitch(t *testing.T) {
	p := newPicker(testBookEntries())

	p, cmd := p.Update(keyRunes("3"))
	if cmd == nil {
		t.Fatal("expected a command from quick switch")
	}

	msg, ok := cmd().(SwitchBookMsg)
	if !ok {
		t.Fatalf("expected SwitchBookMsg, got %T", cmd())
	}
	if msg.Book.Name != "wahlverwandtschaften" {
		t.Errorf("expected wahlverwandtschaften for slot 3, got %q", msg.Book.Name)
	}

	// Unassigned slot is a no-op
	p, cmd = p.Update(keyRunes("7"))
	if cmd != nil {
		t.Error("expected no command for an unassigned slot")
	}
	_ = p
}

// TestBookPickerToggleFavorite verifies u assigns the lowest free slot
// and unassigns an existing favorite
func TestBookPickerToggleFavorite(t *testing.T) {
	p := newPicker(testBookEntries())

	// werther has no slot; 1 and 3 are taken, so it should get 2
	p, _ = p.Update(keyRunes("j"))
	p, cmd := p.Update(keyRunes("u"))
	if cmd == nil {
		t.Fatal("expected a command from u")
	}
	msg, ok := cmd().(ToggleFavoriteMsg)
	if !ok {
		t.Fatalf("expected ToggleFavoriteMsg, got %T", cmd())
	}
	if msg.BookName != "werther" || msg.SlotNumber != 2 {
		t.Errorf("expected werther slot 2, got %q slot %d", msg.BookName, msg.SlotNumber)
	}

	// faust already holds slot 1; u removes it
	p, _ = p.Update(keyRunes("g"))
	p, cmd = p.Update(keyRunes("u"))
	if cmd == nil {
		t.Fatal("expected a command from u")
	}
	msg, ok = cmd().(ToggleFavoriteMsg)
	if !ok {
		t.Fatalf("expected ToggleFavoriteMsg, got %T", cmd())
	}
	if msg.BookName != "faust" || msg.SlotNumber != 0 {
		t.Errorf("expected faust slot 0, got %q slot %d", msg.BookName, msg.SlotNumber)
	}
}

// TestBookPickerFilter verifies fuzzy filtering narrows the list and the
// best match rises to the top
func TestBookPickerFilter(t *testing.T) {
	p := newPicker(testBookEntries())

	p, _ = p.Update(keyRunes("/"))
	if !p.Filtering() {
		t.Fatal("expected filter mode after /")
	}

	for _, r := range "wer" {
		p, _ = p.Update(keyRunes(string(r)))
	}

	if p.FilteredCount() != 2 {
		t.Fatalf("expected 2 matches for 'wer', got %d", p.FilteredCount())
	}
	entry := p.SelectedEntry()
	if entry == nil || entry.Book.Name != "werther" {
		t.Errorf("expected werther as best match, got %+v", entry)
	}

	// Esc clears the filter and restores the full list
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if p.Filtering() {
		t.Error("expected filter mode off after esc")
	}
	if p.FilteredCount() != 3 {
		t.Errorf("expected full list after esc, got %d", p.FilteredCount())
	}
}

// TestBookPickerFilterNoMatch verifies a query with no hits empties the
// list without crashing the cursor
func TestBookPickerFilterNoMatch(t *testing.T) {
	p := newPicker(testBookEntries())

	p, _ = p.Update(keyRunes("/"))
	for _, r := range "zzz" {
		p, _ = p.Update(keyRunes(string(r)))
	}

	if p.FilteredCount() != 0 {
		t.Fatalf("expected 0 matches, got %d", p.FilteredCount())
	}
	if p.SelectedEntry() != nil {
		t.Error("expected nil entry when nothing matches")
	}
}

// TestBookPickerViewEmpty verifies the empty-state hint
func TestBookPickerViewEmpty(t *testing.T) {
	p := newPicker(nil)

	view := p.View()
	if !strings.Contains(view, "No books found") {
		t.Error("expected empty-state message in view")
	}
}

// TestBookPickerViewRows verifies progress and active markers render
func TestBookPickerViewRows(t *testing.T) {
	p := newPicker(testBookEntries())

	view := p.View()
	if !strings.Contains(view, "12/40 (30%)") {
		t.Error("expected progress column in view")
	}
	if !strings.Contains(view, "faust *") {
		t.Error("expected active marker on the open book")
	}
	if !strings.Contains(view, "3 books") {
		t.Error("expected book count in view")
	}
	// Book without counters shows a dash
	if !strings.Contains(view, "—") {
		t.Error("expected dash for uncounted book")
	}
}

// TestBookPickerAppChoice verifies the standalone app records the pick
// and quits
func TestBookPickerAppChoice(t *testing.T) {
	app := NewBookPickerApp(testBookEntries(), TestTheme())

	if app.Choice() != nil {
		t.Fatal("expected no choice initially")
	}

	newM, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app = newM.(BookPickerApp)

	newM, _ = app.Update(SwitchBookMsg{Book: config.BookEntry{Name: "werther", Path: "/books/werther"}})
	app = newM.(BookPickerApp)

	choice := app.Choice()
	if choice == nil || choice.Name != "werther" {
		t.Errorf("expected werther choice, got %+v", choice)
	}
}
