package toc

import (
	"sort"
	"strconv"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

// TriState summarizes how much of a node's chapter closure is selected.
type TriState int

const (
	TriNone TriState = iota // nothing under the node is selected
	TriSome                 // a strict subset is selected
	TriAll                  // every chapter in a non-empty closure is selected
)

// String returns a display name for the state.
func (s TriState) String() string {
	switch s {
	case TriSome:
		return "some"
	case TriAll:
		return "all"
	default:
		return "none"
	}
}

// ChildPath returns the position key of the i-th child of the node at
// parent. Position paths are the stable identity for nodes: groups without
// a ChapterID have nothing else to key state by, and paths survive
// re-fetches of structurally identical forests.
func ChildPath(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "/" + strconv.Itoa(i)
}

// ClosureIDs returns the unique chapter ids reachable from a node,
// including the node's own id when it carries one. For a leaf this is the
// singleton of its own id. Order matches reading order within the subtree.
func ClosureIDs(node model.ChapterNode) []string {
	return Flatten([]model.ChapterNode{node})
}

// Engine indexes a forest by position path and memoizes each node's
// chapter closure, so tri-state reads during rendering do not re-walk the
// subtree. Build a new Engine whenever the forest changes; it never
// mutates the forest.
type Engine struct {
	paths    []string
	nodes    map[string]model.ChapterNode
	closures map[string][]string
}

// NewEngine builds the index for a forest.
func NewEngine(forest []model.ChapterNode) *Engine {
	e := &Engine{
		nodes:    make(map[string]model.ChapterNode),
		closures: make(map[string][]string),
	}
	var walk func(path string, n model.ChapterNode)
	walk = func(path string, n model.ChapterNode) {
		e.paths = append(e.paths, path)
		e.nodes[path] = n
		e.closures[path] = ClosureIDs(n)
		for i, child := range n.Children {
			walk(ChildPath(path, i), child)
		}
	}
	for i, root := range forest {
		walk(ChildPath("", i), root)
	}
	return e
}

// Paths returns every node path in depth-first pre-order.
func (e *Engine) Paths() []string {
	out := make([]string, len(e.paths))
	copy(out, e.paths)
	return out
}

// Node returns the node at a path.
func (e *Engine) Node(path string) (model.ChapterNode, bool) {
	n, ok := e.nodes[path]
	return n, ok
}

// Closure returns the memoized chapter closure of the node at path.
func (e *Engine) Closure(path string) []string {
	return e.closures[path]
}

// Contains reports whether the chapter id is inside the closure of the
// node at path.
func (e *Engine) Contains(path, id string) bool {
	if id == "" {
		return false
	}
	for _, cid := range e.closures[path] {
		if cid == id {
			return true
		}
	}
	return false
}

// TriState derives the selection summary for the node at path. An empty
// closure always reads TriNone.
func (e *Engine) TriState(path string, selected map[string]bool) TriState {
	closure := e.closures[path]
	if len(closure) == 0 {
		return TriNone
	}
	count := 0
	for _, id := range closure {
		if selected[id] {
			count++
		}
	}
	switch count {
	case 0:
		return TriNone
	case len(closure):
		return TriAll
	default:
		return TriSome
	}
}

// Toggle returns a new selection set with the node's entire closure
// selected or deselected atomically. Checkbox semantics apply: if anything
// under the node is selected (TriSome or TriAll), the whole closure turns
// off; only a fully unselected node turns on. The input set is never
// mutated.
func (e *Engine) Toggle(path string, selected map[string]bool) map[string]bool {
	closure := e.closures[path]
	next := make(map[string]bool, len(selected)+len(closure))
	for id := range selected {
		next[id] = true
	}
	if e.TriState(path, selected) == TriNone {
		for _, id := range closure {
			next[id] = true
		}
	} else {
		for _, id := range closure {
			delete(next, id)
		}
	}
	return next
}

// SelectAll returns a selection set containing every given chapter id,
// typically the Flatten output for the forest.
func SelectAll(ids []string) map[string]bool {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			selected[id] = true
		}
	}
	return selected
}

// DeselectAll returns an empty selection set.
func DeselectAll() map[string]bool {
	return make(map[string]bool)
}

// SelectedIDs returns the ids of a selection set sorted in reading order
// per the given Order; ids unknown to the order sort last, alphabetically.
func SelectedIDs(selected map[string]bool, order *Order) []string {
	ids := make([]string, 0, len(selected))
	for id := range selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, iok := order.index[ids[i]]
		pj, jok := order.index[ids[j]]
		if iok != jok {
			return iok
		}
		if !iok {
			return ids[i] < ids[j]
		}
		return pi < pj
	})
	return ids
}
