package ui

import (
	"strings"
	"testing"
)

func TestNewExportPickerModel(t *testing.T) {
	theme := TestTheme()
	picker := NewExportPickerModel(theme)

	if len(picker.formats) != 2 {
		t.Errorf("Expected 2 formats, got %d", len(picker.formats))
	}
	if picker.SelectedFormat() != ExportMarkdown {
		t.Errorf("Expected markdown selected initially, got %q", picker.SelectedFormat())
	}
}

func TestExportPickerNavigation(t *testing.T) {
	theme := TestTheme()
	picker := NewExportPickerModel(theme)

	picker.MoveDown()
	if picker.SelectedFormat() != ExportSVG {
		t.Errorf("After MoveDown, expected svg, got %q", picker.SelectedFormat())
	}

	// Move down past the end stays put
	picker.MoveDown()
	if picker.SelectedFormat() != ExportSVG {
		t.Errorf("MoveDown at end should stay on svg, got %q", picker.SelectedFormat())
	}

	picker.MoveUp()
	if picker.SelectedFormat() != ExportMarkdown {
		t.Errorf("After MoveUp, expected markdown, got %q", picker.SelectedFormat())
	}

	picker.MoveUp()
	if picker.SelectedFormat() != ExportMarkdown {
		t.Errorf("MoveUp at start should stay on markdown, got %q", picker.SelectedFormat())
	}
}

func TestExportPickerView(t *testing.T) {
	theme := TestTheme()
	picker := NewExportPickerModel(theme)
	picker.SetSize(80, 24)

	view := picker.View()
	if !strings.Contains(view, "Export Progress Report") {
		t.Error("Expected title in view")
	}
	if !strings.Contains(view, "Markdown checklist (progress.md)") {
		t.Error("Expected markdown option in view")
	}
	if !strings.Contains(view, "SVG progress chart (progress.svg)") {
		t.Error("Expected svg option in view")
	}
	if !strings.Contains(view, "> Markdown") {
		t.Error("Expected cursor on the markdown option")
	}
}
