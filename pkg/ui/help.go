package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Context identifies which part of the viewer the user is looking at, so
// the help overlay can show the keys that matter there.
type Context int

const (
	ContextTree Context = iota
	ContextPreview
	ContextSplit
	ContextMinimal
)

// helpContent maps each context to a compact reference that fits on one
// screen without scrolling.
var helpContent = map[Context]string{
	ContextTree:    helpTree,
	ContextPreview: helpPreview,
	ContextSplit:   helpSplit,
	ContextMinimal: helpMinimal,
}

// HelpFor returns the reference text for a context, falling back to the
// generic sheet.
func HelpFor(ctx Context) string {
	if content, ok := helpContent[ctx]; ok {
		return content
	}
	return helpGeneric
}

// RenderHelp renders the compact help modal for the given context.
func RenderHelp(ctx Context, theme Theme, width, height int) string {
	content := HelpFor(ctx)

	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	contentStyle := r.NewStyle().
		Foreground(theme.Subtext)

	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(contentStyle.Render(content))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Esc to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}

const helpTree = `## Chapter Tree

**Navigation**
  j/k       Move up/down
  h/l       Collapse / expand
  g/G       Jump to top/bottom
  Ctrl+d/u  Page down/up
  Enter     Open chapter

**Selection**
  Space     Toggle chapter or section
  a         Select everything
  A         Clear selection

**Display**
  E/C       Expand / collapse all
  m         Minimal list
  y         Copy chapter text`

const helpPreview = `## Chapter Preview

**Scrolling**
  j/k       Scroll content
  Esc       Back to the tree

**Reading**
  n/p       Next / previous chapter
  y         Copy chapter text

The checkbox column in the tree marks
chapters queued for (re)translation;
the numbers are translated/total
segments.`

const helpSplit = `## Split View

**Focus**
  Tab       Switch panes

**Left Pane (Tree)**
  j/k       Navigate chapters
  Space     Toggle selection
  Enter     Open chapter

**Right Pane (Preview)**
  j/k       Scroll content

**Reading**
  n/p       Next / previous chapter

Tip: the preview follows the cursor`

const helpMinimal = `## Minimal List

A flat list of chapters in reading
order, without sections.

**Navigation**
  j/k       Move up/down
  n/p       Next / previous chapter
  Enter     Open chapter

**Exit**
  m         Back to the tree`

const helpGeneric = `## Quick Reference

**Global Keys**
  ?         This overlay
  Esc       Close/back
  q         Quit

**Navigation**
  j/k       Move up/down
  h/l       Collapse / expand
  Enter     Open chapter

**Display**
  m         Minimal list
  E/C       Expand / collapse all`
