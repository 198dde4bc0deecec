// tree.go - Hierarchical tree view for the book's table of contents.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/toc"
)

// ChapterTreeNode represents a node in the rendered TOC tree
type ChapterTreeNode struct {
	Node     model.ChapterNode  // The TOC entry itself
	Path     string             // Position path ("1/0/2"), stable identity
	Children []*ChapterTreeNode // Child nodes
	Depth    int                // Nesting level (0 = root)
	Parent   *ChapterTreeNode   // Back-reference for navigation
}

// ChapterTreeModel manages the hierarchical TOC view state
type ChapterTreeModel struct {
	roots    []*ChapterTreeNode          // Root nodes of the TOC forest
	flatList []*ChapterTreeNode          // Flattened visible nodes for navigation
	cursor   int                         // Current selection index in flatList
	theme    Theme                       // Visual styling
	pathMap  map[string]*ChapterTreeNode // Quick lookup by position path
	idMap    map[string]*ChapterTreeNode // Quick lookup by chapter id
	width    int                         // Available width
	height   int                         // Available height

	engine    *toc.Engine                      // Closures and tri-state
	expansion *toc.Expansion                   // Expand/collapse state
	order     *toc.Order                       // Reading order for navigation
	selected  map[string]bool                  // Chapter ids picked for (re)translation
	counters  map[string]model.ChapterProgress // Per-chapter progress

	// Build state
	built      bool // Has tree been built?
	autoExpand bool // Activating a chapter opens the path to it
}

// NewChapterTreeModel creates an empty tree model
func NewChapterTreeModel(theme Theme) ChapterTreeModel {
	return ChapterTreeModel{
		theme:      theme,
		pathMap:    make(map[string]*ChapterTreeNode),
		idMap:      make(map[string]*ChapterTreeNode),
		selected:   make(map[string]bool),
		autoExpand: true,
	}
}

// SetSize updates the available dimensions for the tree view
func (t *ChapterTreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
}

// Build constructs the tree from the TOC forest. The previous cursor
// position, selection and expansion state survive a rebuild as long as
// the positions still exist.
func (t *ChapterTreeModel) Build(forest []model.ChapterNode, counters map[string]model.ChapterProgress) {
	prevPath := ""
	if n := t.SelectedNode(); n != nil {
		prevPath = n.Path
	}

	t.roots = nil
	t.flatList = nil
	t.pathMap = make(map[string]*ChapterTreeNode)
	t.idMap = make(map[string]*ChapterTreeNode)
	t.counters = counters
	t.cursor = 0

	t.engine = toc.NewEngine(forest)
	t.order = toc.NewOrder(forest)

	if t.expansion == nil {
		t.expansion = toc.NewExpansion(t.engine)
		t.expansion.SetAutoExpand(t.autoExpand)
	} else {
		t.expansion.Reset(t.engine)
	}

	for i := range forest {
		t.roots = append(t.roots, t.buildNode(forest[i], fmt.Sprint(i), 0, nil))
	}

	t.rebuildFlatList()
	t.built = true

	if prevPath != "" {
		t.SelectByPath(prevPath)
	}
}

// buildNode recursively builds a tree node and its children.
func (t *ChapterTreeModel) buildNode(n model.ChapterNode, path string, depth int, parent *ChapterTreeNode) *ChapterTreeNode {
	node := &ChapterTreeNode{
		Node:   n,
		Path:   path,
		Depth:  depth,
		Parent: parent,
	}
	t.pathMap[path] = node
	if n.ChapterID != "" {
		// First occurrence wins, matching reading order
		if _, dup := t.idMap[n.ChapterID]; !dup {
			t.idMap[n.ChapterID] = node
		}
	}

	for i := range n.Children {
		child := t.buildNode(n.Children[i], toc.ChildPath(path, i), depth+1, node)
		node.Children = append(node.Children, child)
	}

	return node
}

// SetCounters swaps in fresh progress counters without rebuilding the tree.
func (t *ChapterTreeModel) SetCounters(counters map[string]model.ChapterProgress) {
	t.counters = counters
}

// View renders the tree view.
func (t *ChapterTreeModel) View() string {
	if !t.built || len(t.flatList) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder

	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		node := t.flatList[i]
		if node == nil {
			continue
		}

		isSelected := i == t.cursor
		line := t.renderNode(node, isSelected)

		if isSelected {
			line = t.theme.Selected.Render(line)
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderEmptyState renders the view when there are no chapters.
func (t *ChapterTreeModel) renderEmptyState() string {
	r := t.theme.Renderer

	titleStyle := r.NewStyle().
		Foreground(t.theme.Primary).
		Bold(true)

	mutedStyle := r.NewStyle().
		Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Chapters"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("No chapters to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Run the pipeline's analyze step to populate .etv/book.json."))

	return sb.String()
}

// renderNode renders a single tree node with tree characters and styling.
func (t *ChapterTreeModel) renderNode(node *ChapterTreeNode, isSelected bool) string {
	r := t.theme.Renderer
	var sb strings.Builder

	// Build the tree prefix (indentation + branch characters). Minimal
	// mode renders a flat list without structure.
	var prefix string
	if !t.expansion.Minimal() {
		prefix = t.buildTreePrefix(node)
		sb.WriteString(prefix)

		indicator := t.getExpandIndicator(node)
		indicatorStyle := r.NewStyle().Foreground(t.theme.Secondary)
		sb.WriteString(indicatorStyle.Render(indicator))
		sb.WriteString(" ")
	}

	// Tri-state selection checkbox
	sb.WriteString(t.renderCheckbox(node))
	sb.WriteString(" ")

	// Active chapter marker
	if node.Node.ChapterID != "" && node.Node.ChapterID == t.expansion.ActiveChapter() {
		sb.WriteString(t.theme.PrimaryBold.Render("▶ "))
	}

	// Title (truncated to the remaining width)
	title := node.Node.Title
	if title == "" {
		title = node.Node.ChapterID
	}
	maxTitleLen := t.width - lipgloss.Width(prefix) - 18
	if maxTitleLen < 20 {
		maxTitleLen = 20
	}
	sb.WriteString(runewidth.Truncate(title, maxTitleLen, "…"))

	// Progress counters, aggregated for groups
	progress, counted := toc.Aggregate(node.Node, t.counters)
	color := t.theme.GetProgressColor(progress.Completed, progress.Total, counted)
	counterStyle := r.NewStyle().Foreground(color)
	if counted {
		sb.WriteString(counterStyle.Render(fmt.Sprintf("  %d/%d", progress.Completed, progress.Total)))
	} else {
		sb.WriteString(counterStyle.Render("  —"))
	}

	return sb.String()
}

// renderCheckbox renders the tri-state selection box for a node.
func (t *ChapterTreeModel) renderCheckbox(node *ChapterTreeNode) string {
	switch t.engine.TriState(node.Path, t.selected) {
	case toc.TriAll:
		return t.theme.CheckedBox.Render("[x]")
	case toc.TriSome:
		return t.theme.PartialBox.Render("[~]")
	default:
		return t.theme.EmptyBox.Render("[ ]")
	}
}

// buildTreePrefix builds the indentation and branch characters for a node.
func (t *ChapterTreeModel) buildTreePrefix(node *ChapterTreeNode) string {
	if node.Depth == 0 {
		return "" // Root nodes have no prefix
	}

	r := t.theme.Renderer
	treeStyle := r.NewStyle().Foreground(t.theme.Muted)

	var prefixParts []string

	// For each ancestor level, determine if we need a vertical line
	ancestors := t.getAncestors(node)
	for i := 0; i < len(ancestors)-1; i++ {
		if t.hasSiblingsBelow(ancestors[i]) {
			prefixParts = append(prefixParts, "│   ")
		} else {
			prefixParts = append(prefixParts, "    ")
		}
	}

	// Add the branch character for this node
	if t.isLastChild(node) {
		prefixParts = append(prefixParts, "└── ")
	} else {
		prefixParts = append(prefixParts, "├── ")
	}

	return treeStyle.Render(strings.Join(prefixParts, ""))
}

// getAncestors returns the ancestors of a node from root to parent, with
// the node itself at the end. The last element is the node - used by
// buildTreePrefix which iterates to len-1.
func (t *ChapterTreeModel) getAncestors(node *ChapterTreeNode) []*ChapterTreeNode {
	var ancestors []*ChapterTreeNode
	current := node.Parent
	for current != nil {
		ancestors = append([]*ChapterTreeNode{current}, ancestors...)
		current = current.Parent
	}
	ancestors = append(ancestors, node)
	return ancestors
}

// hasSiblingsBelow checks if a node has siblings below it in the tree.
func (t *ChapterTreeModel) hasSiblingsBelow(node *ChapterTreeNode) bool {
	if node.Parent == nil {
		for i, root := range t.roots {
			if root == node {
				return i < len(t.roots)-1
			}
		}
		return false
	}

	for i, sibling := range node.Parent.Children {
		if sibling == node {
			return i < len(node.Parent.Children)-1
		}
	}
	return false
}

// isLastChild checks if a node is the last child of its parent.
func (t *ChapterTreeModel) isLastChild(node *ChapterTreeNode) bool {
	if node.Parent == nil {
		return len(t.roots) > 0 && t.roots[len(t.roots)-1] == node
	}

	parent := node.Parent
	return len(parent.Children) > 0 && parent.Children[len(parent.Children)-1] == node
}

// getExpandIndicator returns the expand/collapse indicator for a node.
func (t *ChapterTreeModel) getExpandIndicator(node *ChapterTreeNode) string {
	if len(node.Children) == 0 {
		return "•" // Leaf node
	}
	if t.expansion.IsExpanded(node.Path) {
		return "▾" // Expanded
	}
	return "▸" // Collapsed
}

// SelectedNode returns the currently selected tree node, or nil if none.
func (t *ChapterTreeModel) SelectedNode() *ChapterTreeNode {
	if t.cursor >= 0 && t.cursor < len(t.flatList) {
		return t.flatList[t.cursor]
	}
	return nil
}

// SelectedChapterID returns the chapter id under the cursor, or empty
// string for a pure group.
func (t *ChapterTreeModel) SelectedChapterID() string {
	if node := t.SelectedNode(); node != nil {
		return node.Node.ChapterID
	}
	return ""
}

// MoveDown moves the cursor down in the flat list.
func (t *ChapterTreeModel) MoveDown() {
	if t.cursor < len(t.flatList)-1 {
		t.cursor++
	}
}

// MoveUp moves the cursor up in the flat list.
func (t *ChapterTreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
}

// ToggleExpand expands or collapses the currently selected node.
func (t *ChapterTreeModel) ToggleExpand() {
	node := t.SelectedNode()
	if node != nil && len(node.Children) > 0 {
		t.expansion.Toggle(node.Path)
		t.rebuildFlatList()
	}
}

// ExpandAll expands all groups in the tree.
func (t *ChapterTreeModel) ExpandAll() {
	t.expansion.ExpandAll()
	t.rebuildFlatList()
}

// CollapseAll collapses all groups in the tree. Ancestors of the active
// chapter stay expanded so the reader never loses their place.
func (t *ChapterTreeModel) CollapseAll() {
	t.expansion.CollapseAll()
	t.rebuildFlatList()
}

// ToggleSelect flips the selection for the node under the cursor:
// everything under a group goes on together, and any partial or full
// selection switches fully off.
func (t *ChapterTreeModel) ToggleSelect() {
	node := t.SelectedNode()
	if node == nil {
		return
	}
	t.selected = t.engine.Toggle(node.Path, t.selected)
}

// SelectAll marks every chapter of the book for translation.
func (t *ChapterTreeModel) SelectAll() {
	if t.order == nil {
		return
	}
	t.selected = toc.SelectAll(t.order.IDs())
}

// DeselectAll clears the selection.
func (t *ChapterTreeModel) DeselectAll() {
	t.selected = toc.DeselectAll()
}

// Selection returns the selected chapter ids in reading order.
func (t *ChapterTreeModel) Selection() []string {
	return toc.SelectedIDs(t.selected, t.order)
}

// SelectionCount returns the number of selected chapters.
func (t *ChapterTreeModel) SelectionCount() int {
	return len(t.selected)
}

// SetActiveChapter marks the chapter currently open in the preview. Its
// ancestors stay expanded and the cursor jumps to it.
func (t *ChapterTreeModel) SetActiveChapter(id string) {
	t.expansion.SetActiveChapter(id)
	t.rebuildFlatList()
	t.SelectByChapterID(id)
}

// ActiveChapter returns the chapter currently open in the preview.
func (t *ChapterTreeModel) ActiveChapter() string {
	return t.expansion.ActiveChapter()
}

// SetAutoExpand controls whether activating a chapter expands the path
// down to it.
func (t *ChapterTreeModel) SetAutoExpand(enabled bool) {
	if t.expansion != nil {
		t.expansion.SetAutoExpand(enabled)
	}
	t.autoExpand = enabled
}

// Node returns the tree node for a chapter id, or nil if the book has no
// such chapter. For duplicated ids this is the first occurrence in
// reading order.
func (t *ChapterTreeModel) Node(id string) *ChapterTreeNode {
	return t.idMap[id]
}

// NextChapter returns the chapter after the active one in reading order.
func (t *ChapterTreeModel) NextChapter() (string, bool) {
	if t.order == nil {
		return "", false
	}
	return t.order.Next(t.expansion.ActiveChapter())
}

// PrevChapter returns the chapter before the active one in reading order.
func (t *ChapterTreeModel) PrevChapter() (string, bool) {
	if t.order == nil {
		return "", false
	}
	return t.order.Prev(t.expansion.ActiveChapter())
}

// SetMinimal switches between the tree and the flat chapter list.
func (t *ChapterTreeModel) SetMinimal(minimal bool) {
	t.expansion.SetMinimal(minimal)
	t.rebuildFlatList()
}

// Minimal reports whether the flat chapter list is active.
func (t *ChapterTreeModel) Minimal() bool {
	return t.expansion != nil && t.expansion.Minimal()
}

// JumpToTop moves cursor to the first node.
func (t *ChapterTreeModel) JumpToTop() {
	t.cursor = 0
}

// JumpToBottom moves cursor to the last node.
func (t *ChapterTreeModel) JumpToBottom() {
	if len(t.flatList) > 0 {
		t.cursor = len(t.flatList) - 1
	}
}

// JumpToParent moves cursor to the parent of the currently selected node.
// If already at a root node, does nothing.
func (t *ChapterTreeModel) JumpToParent() {
	node := t.SelectedNode()
	if node == nil || node.Parent == nil {
		return
	}

	for i, n := range t.flatList {
		if n == node.Parent {
			t.cursor = i
			return
		}
	}
}

// ExpandOrMoveToChild handles the → / l key:
// - If node has children and is collapsed: expand it
// - If node has children and is expanded: move to first child
// - If node is a leaf: do nothing
func (t *ChapterTreeModel) ExpandOrMoveToChild() {
	node := t.SelectedNode()
	if node == nil || len(node.Children) == 0 {
		return
	}

	if !t.expansion.IsExpanded(node.Path) {
		t.expansion.Toggle(node.Path)
		t.rebuildFlatList()
	} else {
		for i, n := range t.flatList {
			if n == node.Children[0] {
				t.cursor = i
				return
			}
		}
	}
}

// CollapseOrJumpToParent handles the ← / h key:
// - If node has children and is expanded: collapse it
// - If node is collapsed or is a leaf: jump to parent
func (t *ChapterTreeModel) CollapseOrJumpToParent() {
	node := t.SelectedNode()
	if node == nil {
		return
	}

	if len(node.Children) > 0 && t.expansion.IsExpanded(node.Path) {
		t.expansion.Toggle(node.Path)
		t.rebuildFlatList()
	} else {
		t.JumpToParent()
	}
}

// PageDown moves cursor down by half a viewport.
func (t *ChapterTreeModel) PageDown() {
	pageSize := t.height / 2
	if pageSize < 1 {
		pageSize = 5
	}
	t.cursor += pageSize
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// PageUp moves cursor up by half a viewport.
func (t *ChapterTreeModel) PageUp() {
	pageSize := t.height / 2
	if pageSize < 1 {
		pageSize = 5
	}
	t.cursor -= pageSize
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// visibleRange returns the start and end indices of nodes to render,
// keeping the cursor inside the window.
func (t *ChapterTreeModel) visibleRange() (start, end int) {
	if len(t.flatList) == 0 {
		return 0, 0
	}

	visibleCount := t.height
	if visibleCount <= 0 {
		visibleCount = 20 // Default
	}

	start = t.cursor - visibleCount/2
	if start < 0 {
		start = 0
	}
	end = start + visibleCount
	if end > len(t.flatList) {
		end = len(t.flatList)
		start = end - visibleCount
		if start < 0 {
			start = 0
		}
	}

	return start, end
}

// SelectByPath moves cursor to the node with the given position path.
// Returns true if found, false otherwise.
func (t *ChapterTreeModel) SelectByPath(path string) bool {
	for i, node := range t.flatList {
		if node != nil && node.Path == path {
			t.cursor = i
			return true
		}
	}
	return false
}

// SelectByChapterID moves cursor to the node carrying the given chapter
// id. Returns true if found, false otherwise.
func (t *ChapterTreeModel) SelectByChapterID(id string) bool {
	if id == "" {
		return false
	}
	for i, node := range t.flatList {
		if node != nil && node.Node.ChapterID == id {
			t.cursor = i
			return true
		}
	}
	return false
}

// rebuildFlatList rebuilds the flattened list of visible nodes.
func (t *ChapterTreeModel) rebuildFlatList() {
	t.flatList = t.flatList[:0]

	if t.expansion != nil && t.expansion.Minimal() {
		// Flat chapter list in reading order, one row per unique id.
		if t.order != nil {
			for _, id := range t.order.IDs() {
				if node, ok := t.idMap[id]; ok {
					t.flatList = append(t.flatList, node)
				}
			}
		}
	} else {
		for _, root := range t.roots {
			t.appendVisible(root)
		}
	}

	// Ensure cursor stays in bounds
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// appendVisible adds a node and its visible descendants to flatList.
func (t *ChapterTreeModel) appendVisible(node *ChapterTreeNode) {
	if node == nil {
		return
	}
	t.flatList = append(t.flatList, node)
	if t.expansion.IsExpanded(node.Path) {
		for _, child := range node.Children {
			t.appendVisible(child)
		}
	}
}

// IsBuilt returns whether the tree has been built.
func (t *ChapterTreeModel) IsBuilt() bool {
	return t.built
}

// NodeCount returns the total number of visible nodes.
func (t *ChapterTreeModel) NodeCount() int {
	return len(t.flatList)
}

// RootCount returns the number of root nodes.
func (t *ChapterTreeModel) RootCount() int {
	return len(t.roots)
}
