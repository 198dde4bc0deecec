// Package toc implements the chapter-tree model shared by every screen of
// the translation workflow: reading-order flattening, bottom-up progress
// aggregation, tri-state multi-select, and expand/collapse state.
//
// Everything here is a pure projection over the immutable forest the
// pipeline supplies. Given the same forest, counters, and selection, every
// derived value is identical across repeated calls, so callers are free to
// recompute on every render.
package toc

import (
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

// Flatten produces the depth-first pre-order sequence of chapter ids for a
// forest. This is the single source of truth for reading order: prev/next
// navigation and select-all defaults are index lookups into this sequence.
//
// A chapter id appearing under more than one parent is malformed input;
// the first occurrence wins and later ones are silently skipped.
func Flatten(forest []model.ChapterNode) []string {
	var order []string
	seen := make(map[string]bool)

	var walk func(n model.ChapterNode)
	walk = func(n model.ChapterNode) {
		if n.ChapterID != "" && !seen[n.ChapterID] {
			seen[n.ChapterID] = true
			order = append(order, n.ChapterID)
		}
		for _, child := range n.Children {
			walk(child)
		}
	}

	for _, root := range forest {
		walk(root)
	}
	return order
}
