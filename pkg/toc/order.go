package toc

import "github.com/FelixZhang1020/epub-translator-sub000/pkg/model"

// Order supports prev/next chapter navigation over a flattened forest.
// Build one per forest change and reuse it for every lookup.
type Order struct {
	ids   []string
	index map[string]int
}

// NewOrder builds navigation order from a forest.
func NewOrder(forest []model.ChapterNode) *Order {
	return OrderOf(Flatten(forest))
}

// OrderOf builds navigation order from an already-flattened id sequence.
func OrderOf(ids []string) *Order {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := index[id]; !ok {
			index[id] = i
		}
	}
	return &Order{ids: ids, index: index}
}

// IDs returns the flattened id sequence in reading order.
func (o *Order) IDs() []string {
	out := make([]string, len(o.ids))
	copy(out, o.ids)
	return out
}

// Len returns the number of navigable chapters.
func (o *Order) Len() int {
	return len(o.ids)
}

// Contains reports whether id is a known chapter.
func (o *Order) Contains(id string) bool {
	_, ok := o.index[id]
	return ok
}

// Prev returns the chapter before id in reading order. It reports false at
// the first chapter and for ids not present in the sequence; callers
// disable the control rather than erroring.
func (o *Order) Prev(id string) (string, bool) {
	i, ok := o.index[id]
	if !ok || i == 0 {
		return "", false
	}
	return o.ids[i-1], true
}

// Next returns the chapter after id in reading order. It reports false at
// the last chapter and for ids not present in the sequence.
func (o *Order) Next(id string) (string, bool) {
	i, ok := o.index[id]
	if !ok || i >= len(o.ids)-1 {
		return "", false
	}
	return o.ids[i+1], true
}
