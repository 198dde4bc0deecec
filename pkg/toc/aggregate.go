package toc

import "github.com/FelixZhang1020/epub-translator-sub000/pkg/model"

// Aggregate computes the (completed, total) progress pair for a node.
// The second return value is false when no displayable stats exist, which
// is distinct from "zero progress":
//
//   - leaves return their own counters verbatim, absent when the counters
//     map has no entry for them
//   - groups return the pairwise sum of their children's aggregates and
//     are absent when the summed total is 0 (no counted leaves underneath)
//
// A group that also carries its own ChapterID is still aggregated as a
// group: its own counters are never added, so a section that is both a
// readable chapter and a container is not counted twice.
func Aggregate(node model.ChapterNode, counters map[string]model.ChapterProgress) (model.ChapterProgress, bool) {
	if len(node.Children) > 0 {
		var sum model.ChapterProgress
		for _, child := range node.Children {
			if p, ok := Aggregate(child, counters); ok {
				sum.Completed += p.Completed
				sum.Total += p.Total
			}
		}
		if sum.Total == 0 {
			return model.ChapterProgress{}, false
		}
		return sum, true
	}

	p, ok := counters[node.ChapterID]
	return p, ok
}

// AggregateForest sums the aggregates of every root in the forest, as if
// the forest hung under a single invisible group.
func AggregateForest(forest []model.ChapterNode, counters map[string]model.ChapterProgress) (model.ChapterProgress, bool) {
	return Aggregate(model.ChapterNode{Children: forest}, counters)
}
