package export

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/ajstarks/svgo"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/toc"
)

// Snapshot palette: one horizontal bar per chapter, suitable for
// embedding in a project README or status page.
var (
	colorBackdrop = color.RGBA{R: 0x28, G: 0x2a, B: 0x36, A: 0xff}
	colorTrack    = color.RGBA{R: 0x44, G: 0x47, B: 0x5a, A: 0xff}
	colorDone     = color.RGBA{R: 0x50, G: 0xfa, B: 0x7b, A: 0xff}
	colorPartial  = color.RGBA{R: 0xf1, G: 0xfa, B: 0x8c, A: 0xff}
	colorText     = color.RGBA{R: 0xf8, G: 0xf8, B: 0xf2, A: 0xff}
	colorSubtle   = color.RGBA{R: 0x62, G: 0x72, B: 0xa4, A: 0xff}
)

const (
	snapshotWidth = 720
	rowHeight     = 26
	headerHeight  = 72
	labelWidth    = 260
	barHeight     = 14
)

// progressRow is one rendered bar in the snapshot.
type progressRow struct {
	Label    string
	Progress model.ChapterProgress
	Counted  bool
	Depth    int
}

// SaveProgressSVG writes the snapshot to a file.
func SaveProgressSVG(book model.Book, counters map[string]model.ChapterProgress, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return RenderProgressSVG(file, book, counters)
}

// RenderProgressSVG draws the per-chapter progress chart.
func RenderProgressSVG(w io.Writer, book model.Book, counters map[string]model.ChapterProgress) error {
	rows := collectRows(book.Chapters, counters)
	height := headerHeight + len(rows)*rowHeight + 24

	canvas := svg.New(w)
	canvas.Start(snapshotWidth, height)
	canvas.Rect(0, 0, snapshotWidth, height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	canvas.Text(24, 34, fmt.Sprintf("%s — Translation Progress", book.Title),
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))

	if total, ok := toc.AggregateForest(book.Chapters, counters); ok {
		canvas.Text(24, 56, fmt.Sprintf("%d of %d segments translated (%.1f%%)",
			total.Completed, total.Total, total.Percent()),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	} else {
		canvas.Text(24, 56, "not analyzed yet",
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}

	barWidth := snapshotWidth - labelWidth - 100
	for i, row := range rows {
		y := headerHeight + i*rowHeight

		canvas.Text(24+row.Depth*14, y+barHeight-2, truncate(row.Label, 28),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))

		canvas.Roundrect(labelWidth, y, barWidth, barHeight, 4, 4,
			fmt.Sprintf("fill:%s", css(colorTrack)))

		if !row.Counted {
			canvas.Text(labelWidth+barWidth+10, y+barHeight-2, "—",
				fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
			continue
		}

		fill := colorPartial
		if row.Progress.Done() {
			fill = colorDone
		}
		filled := int(float64(barWidth) * row.Progress.Percent() / 100)
		if filled > 0 {
			canvas.Roundrect(labelWidth, y, filled, barHeight, 4, 4,
				fmt.Sprintf("fill:%s", css(fill)))
		}
		canvas.Text(labelWidth+barWidth+10, y+barHeight-2,
			fmt.Sprintf("%d/%d", row.Progress.Completed, row.Progress.Total),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

// collectRows flattens the TOC into rendered rows, keeping tree depth for
// indentation.
func collectRows(forest []model.ChapterNode, counters map[string]model.ChapterProgress) []progressRow {
	var rows []progressRow
	var walk func(n model.ChapterNode, depth int)
	walk = func(n model.ChapterNode, depth int) {
		label := n.Title
		if label == "" {
			label = n.ChapterID
		}
		p, ok := toc.Aggregate(n, counters)
		rows = append(rows, progressRow{Label: label, Progress: p, Counted: ok, Depth: depth})
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	for _, n := range forest {
		walk(n, 0)
	}
	return rows
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
