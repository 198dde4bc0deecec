package model

import "fmt"

// ChapterNode is one entry in a book's table of contents. A node with a
// non-empty ChapterID and no children is a leaf chapter (one navigable unit
// of content). A node with children is a group; a group may also carry its
// own ChapterID when the source document makes a section both readable and
// a container of sub-sections.
//
// Nodes are value types supplied fresh by the pipeline on every refresh.
// Nothing in this program mutates the tree shape.
type ChapterNode struct {
	Title     string        `json:"title,omitempty"`
	Href      string        `json:"href,omitempty"`
	ChapterID string        `json:"id,omitempty"`
	Children  []ChapterNode `json:"children,omitempty"`
}

// IsGroup reports whether the node is a structural container.
func (n ChapterNode) IsGroup() bool {
	return len(n.Children) > 0
}

// IsLeaf reports whether the node is a plain chapter with no sub-structure.
func (n ChapterNode) IsLeaf() bool {
	return n.ChapterID != "" && len(n.Children) == 0
}

// Clone creates a deep copy of the node and its subtree.
func (n ChapterNode) Clone() ChapterNode {
	clone := n
	if n.Children != nil {
		clone.Children = make([]ChapterNode, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// ChapterProgress holds per-chapter translation counters: how many text
// segments of the chapter have been translated out of the total the
// analyzer produced for it.
type ChapterProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Validate checks if the counters are logically valid.
func (p ChapterProgress) Validate() error {
	if p.Completed < 0 {
		return fmt.Errorf("completed (%d) cannot be negative", p.Completed)
	}
	if p.Total < 0 {
		return fmt.Errorf("total (%d) cannot be negative", p.Total)
	}
	if p.Completed > p.Total {
		return fmt.Errorf("completed (%d) cannot exceed total (%d)", p.Completed, p.Total)
	}
	return nil
}

// Done reports whether every segment of the chapter has been translated.
// Zero-total progress is not done; it means the analyzer has not produced
// segments yet.
func (p ChapterProgress) Done() bool {
	return p.Total > 0 && p.Completed >= p.Total
}

// Percent returns the completion ratio in [0, 100]. Values are clamped so
// malformed counters (completed > total) never report more than 100.
func (p ChapterProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	pct := float64(p.Completed) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// Book is the TOC payload the pipeline writes after analyzing an EPUB.
type Book struct {
	Title    string        `json:"title"`
	Language string        `json:"language,omitempty"`
	Chapters []ChapterNode `json:"chapters"`
}

// Clone creates a deep copy of the book.
func (b Book) Clone() Book {
	clone := b
	if b.Chapters != nil {
		clone.Chapters = make([]ChapterNode, len(b.Chapters))
		for i, ch := range b.Chapters {
			clone.Chapters[i] = ch.Clone()
		}
	}
	return clone
}

// Validate checks if the book data is logically valid. Duplicate chapter
// ids are reported here but tolerated everywhere else (first occurrence
// wins during traversal).
func (b *Book) Validate() error {
	if b.Title == "" {
		return fmt.Errorf("book title cannot be empty")
	}
	seen := make(map[string]bool)
	var walk func(n ChapterNode) error
	walk = func(n ChapterNode) error {
		if n.ChapterID == "" && len(n.Children) == 0 {
			return fmt.Errorf("node %q has neither a chapter id nor children", n.Title)
		}
		if n.ChapterID != "" {
			if seen[n.ChapterID] {
				return fmt.Errorf("duplicate chapter id: %s", n.ChapterID)
			}
			seen[n.ChapterID] = true
		}
		for _, child := range n.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	for _, ch := range b.Chapters {
		if err := walk(ch); err != nil {
			return err
		}
	}
	return nil
}
