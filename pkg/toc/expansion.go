package toc

// Override is a bulk expand/collapse display mode. While active it wins
// over per-node state for display purposes but never rewrites the stored
// booleans, so switching it off reverts to what the user had.
type Override int

const (
	OverrideNone     Override = iota
	OverrideExpand            // expand-all: every group reads expanded
	OverrideCollapse          // collapse-all: every group reads collapsed
)

// Expansion tracks per-node expand/collapse state for one forest.
//
// State is keyed by position path (see ChildPath) and lives only for the
// UI session: a new forest gets a fresh Expansion. Three layers decide
// what a node reads as, strongest first:
//
//  1. minimal mode — a compact, non-interactive display: everything reads
//     expanded and toggles are ignored
//  2. the active chapter — nodes whose closure contains the chapter being
//     read are forced expanded so the reading position stays visible,
//     even under a collapse-all override
//  3. the bulk override, then the stored per-node boolean (default
//     collapsed)
type Expansion struct {
	engine     *Engine
	stored     map[string]bool
	override   Override
	minimal    bool
	active     string
	autoExpand bool
}

// NewExpansion creates expansion state for the forest indexed by engine.
// Every node starts collapsed until an active chapter or toggle says
// otherwise.
func NewExpansion(engine *Engine) *Expansion {
	return &Expansion{
		engine:     engine,
		stored:     make(map[string]bool),
		autoExpand: true,
	}
}

// Reset discards all state and rebinds to a new forest index.
func (x *Expansion) Reset(engine *Engine) {
	x.engine = engine
	x.stored = make(map[string]bool)
	x.override = OverrideNone
	x.active = ""
	// minimal and autoExpand are properties of the hosting view, not of
	// the forest
}

// SetMinimal switches the compact display mode on or off.
func (x *Expansion) SetMinimal(minimal bool) {
	x.minimal = minimal
}

// Minimal reports whether the compact display mode is active.
func (x *Expansion) Minimal() bool {
	return x.minimal
}

// SetActiveChapter records the chapter currently being read. Every node
// containing it reads expanded from now on, regardless of stored state or
// bulk overrides. An empty id clears the behavior.
func (x *Expansion) SetActiveChapter(id string) {
	x.active = id
}

// ActiveChapter returns the chapter id set via SetActiveChapter.
func (x *Expansion) ActiveChapter() string {
	return x.active
}

// SetAutoExpand controls whether the active chapter forces its ancestors
// open. On by default; with it off the active chapter only affects the
// marker, not expansion.
func (x *Expansion) SetAutoExpand(enabled bool) {
	x.autoExpand = enabled
}

// Toggle flips the stored boolean of exactly one node. Ancestors and
// descendants are untouched. No-op in minimal mode.
func (x *Expansion) Toggle(path string) {
	if x.minimal {
		return
	}
	x.stored[path] = !x.stored[path]
}

// ExpandAll turns on the expand-all override.
func (x *Expansion) ExpandAll() {
	x.override = OverrideExpand
}

// CollapseAll turns on the collapse-all override. Nodes on the path to
// the active chapter keep reading expanded.
func (x *Expansion) CollapseAll() {
	x.override = OverrideCollapse
}

// ClearOverride reverts to per-node stored state.
func (x *Expansion) ClearOverride() {
	x.override = OverrideNone
}

// ActiveOverride returns the bulk mode currently applied.
func (x *Expansion) ActiveOverride() Override {
	return x.override
}

// IsExpanded reports what the node at path displays as.
func (x *Expansion) IsExpanded(path string) bool {
	if x.minimal {
		return true
	}
	if x.autoExpand && x.active != "" && x.engine.Contains(path, x.active) {
		return true
	}
	switch x.override {
	case OverrideExpand:
		return true
	case OverrideCollapse:
		return false
	}
	return x.stored[path]
}
