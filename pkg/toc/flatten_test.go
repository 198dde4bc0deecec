package toc

import (
	"reflect"
	"testing"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

// leaf builds a plain chapter node for tests.
func leaf(id string) model.ChapterNode {
	return model.ChapterNode{Title: "Chapter " + id, ChapterID: id}
}

// group builds a structural container for tests.
func group(title string, children ...model.ChapterNode) model.ChapterNode {
	return model.ChapterNode{Title: title, Children: children}
}

// TestFlattenPreOrder verifies depth-first pre-order reading order
func TestFlattenPreOrder(t *testing.T) {
	forest := []model.ChapterNode{
		leaf("a"),
		group("Part I", leaf("c"), leaf("d")),
	}

	got := Flatten(forest)
	want := []string{"a", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

// TestFlattenNested verifies order through arbitrarily deep nesting
func TestFlattenNested(t *testing.T) {
	forest := []model.ChapterNode{
		group("Book",
			leaf("intro"),
			group("Part I",
				leaf("ch1"),
				group("Section", leaf("ch2"), leaf("ch3")),
			),
			leaf("outro"),
		),
	}

	got := Flatten(forest)
	want := []string{"intro", "ch1", "ch2", "ch3", "outro"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

// TestFlattenDualRoleGroup verifies a group's own id is emitted before its
// children, so a section that is itself readable stays navigable
func TestFlattenDualRoleGroup(t *testing.T) {
	forest := []model.ChapterNode{
		{Title: "Part I", ChapterID: "part1", Children: []model.ChapterNode{
			leaf("ch1"), leaf("ch2"),
		}},
	}

	got := Flatten(forest)
	want := []string{"part1", "ch1", "ch2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

// TestFlattenDedup verifies a duplicated id appears exactly once, at its
// first occurrence
func TestFlattenDedup(t *testing.T) {
	forest := []model.ChapterNode{
		group("Part I", leaf("x"), leaf("y")),
		group("Part II", leaf("x"), leaf("z")),
	}

	got := Flatten(forest)
	want := []string{"x", "y", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
}

// TestFlattenEmpty verifies empty and id-less forests produce no order
func TestFlattenEmpty(t *testing.T) {
	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("Flatten(nil) = %v, want empty", got)
	}

	forest := []model.ChapterNode{group("Empty part")}
	if got := Flatten(forest); len(got) != 0 {
		t.Errorf("Flatten(no ids) = %v, want empty", got)
	}
}

// TestOrderNavigation verifies prev/next lookups through the sequence
func TestOrderNavigation(t *testing.T) {
	order := OrderOf([]string{"a", "b", "c"})

	if next, ok := order.Next("a"); !ok || next != "b" {
		t.Errorf("Next(a) = %q, %v; want b, true", next, ok)
	}
	if prev, ok := order.Prev("c"); !ok || prev != "b" {
		t.Errorf("Prev(c) = %q, %v; want b, true", prev, ok)
	}
}

// TestOrderClamping verifies navigation is disabled at both ends and for
// unknown ids rather than wrapping or erroring
func TestOrderClamping(t *testing.T) {
	order := OrderOf([]string{"a", "b", "c"})

	if _, ok := order.Prev("a"); ok {
		t.Error("Prev at first chapter should be unavailable")
	}
	if _, ok := order.Next("c"); ok {
		t.Error("Next at last chapter should be unavailable")
	}
	if _, ok := order.Prev("ghost"); ok {
		t.Error("Prev for unknown id should be unavailable")
	}
	if _, ok := order.Next("ghost"); ok {
		t.Error("Next for unknown id should be unavailable")
	}
}

// TestOrderSingle verifies a one-chapter book disables both directions
func TestOrderSingle(t *testing.T) {
	order := OrderOf([]string{"only"})

	if _, ok := order.Prev("only"); ok {
		t.Error("Prev should be unavailable for a single chapter")
	}
	if _, ok := order.Next("only"); ok {
		t.Error("Next should be unavailable for a single chapter")
	}
}

// TestOrderFromForest verifies NewOrder matches Flatten
func TestOrderFromForest(t *testing.T) {
	forest := []model.ChapterNode{
		leaf("a"),
		group("Part I", leaf("b"), leaf("c")),
	}

	order := NewOrder(forest)
	if order.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", order.Len())
	}
	if !order.Contains("b") {
		t.Error("expected order to contain b")
	}
	if order.Contains("nope") {
		t.Error("did not expect order to contain nope")
	}
	if got := order.IDs(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("IDs() = %v, want [a b c]", got)
	}
}
