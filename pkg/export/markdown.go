// Package export provides data export functionality for etv.
package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/toc"
)

// GenerateMarkdown creates a markdown progress report for the book. The
// chapter list mirrors the TOC tree; groups show aggregated counters.
func GenerateMarkdown(book model.Book, counters map[string]model.ChapterProgress) (string, error) {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s — Translation Progress\n\n", book.Title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	// Summary
	sb.WriteString("## Summary\n\n")

	total, totalOK := toc.AggregateForest(book.Chapters, counters)
	chapters := toc.Flatten(book.Chapters)
	done := 0
	started := 0
	for _, id := range chapters {
		p, ok := counters[id]
		if !ok {
			continue
		}
		if p.Done() {
			done++
		} else if p.Completed > 0 {
			started++
		}
	}

	sb.WriteString(fmt.Sprintf("- **Chapters**: %d\n", len(chapters)))
	sb.WriteString(fmt.Sprintf("- **Done**: %d\n", done))
	sb.WriteString(fmt.Sprintf("- **In progress**: %d\n", started))
	if totalOK {
		sb.WriteString(fmt.Sprintf("- **Progress**: %d of %d segments translated (%.1f%%)\n\n",
			total.Completed, total.Total, total.Percent()))
	} else {
		sb.WriteString("- **Progress**: not analyzed yet\n\n")
	}

	// Chapter tree
	sb.WriteString("## Chapters\n\n")
	for _, ch := range book.Chapters {
		writeNode(&sb, ch, counters, 0)
	}
	sb.WriteString("\n")

	return sb.String(), nil
}

// writeNode renders one TOC node as a nested markdown list item.
func writeNode(sb *strings.Builder, n model.ChapterNode, counters map[string]model.ChapterProgress, depth int) {
	indent := strings.Repeat("  ", depth)

	title := n.Title
	if title == "" {
		title = n.ChapterID
	}

	p, ok := toc.Aggregate(n, counters)
	switch {
	case !ok:
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, title))
	case p.Done():
		sb.WriteString(fmt.Sprintf("%s- [x] %s (%d/%d)\n", indent, title, p.Completed, p.Total))
	default:
		sb.WriteString(fmt.Sprintf("%s- [ ] %s (%d/%d)\n", indent, title, p.Completed, p.Total))
	}

	for _, child := range n.Children {
		writeNode(sb, child, counters, depth+1)
	}
}

// SaveMarkdownToFile writes the generated markdown report to a file
func SaveMarkdownToFile(book model.Book, counters map[string]model.ChapterProgress, filename string) error {
	content, err := GenerateMarkdown(book, counters)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
