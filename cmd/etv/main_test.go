package main

import (
	"testing"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

func reportBook() model.Book {
	return model.Book{
		Title: "Faust",
		Chapters: []model.ChapterNode{
			{ChapterID: "dedication", Title: "Zueignung"},
			{
				Title: "Der Tragödie erster Teil",
				Children: []model.ChapterNode{
					{ChapterID: "night", Title: "Nacht"},
					{
						ChapterID: "gate",
						Title:     "Vor dem Tor",
						Children: []model.ChapterNode{
							{ChapterID: "walk", Title: "Osterspaziergang"},
						},
					},
				},
			},
		},
	}
}

func reportCounters() map[string]model.ChapterProgress {
	return map[string]model.ChapterProgress{
		"dedication": {Completed: 4, Total: 4},
		"night":      {Completed: 3, Total: 10},
		"gate":       {Completed: 2, Total: 2},
		"walk":       {Completed: 0, Total: 5},
	}
}

func TestBuildTocReport_RowsInReadingOrder(t *testing.T) {
	report := buildTocReport(reportBook(), reportCounters())

	if report.Book != "Faust" {
		t.Errorf("expected book title Faust, got %q", report.Book)
	}
	if len(report.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(report.Rows))
	}

	wantIDs := []string{"dedication", "", "night", "gate", "walk"}
	for i, want := range wantIDs {
		if report.Rows[i].ID != want {
			t.Errorf("row %d: expected id %q, got %q", i, want, report.Rows[i].ID)
		}
	}

	wantDepths := []int{0, 0, 1, 1, 2}
	for i, want := range wantDepths {
		if report.Rows[i].Depth != want {
			t.Errorf("row %d: expected depth %d, got %d", i, want, report.Rows[i].Depth)
		}
	}
}

func TestBuildTocReport_GroupAggregation(t *testing.T) {
	report := buildTocReport(reportBook(), reportCounters())

	// The part group sums night 3/10 and the gate subtree; gate's own
	// counters are not re-added, leaving walk's 0/5
	part := report.Rows[1]
	if !part.Group {
		t.Error("expected part row marked as group")
	}
	if part.Completed != 3 || part.Total != 15 {
		t.Errorf("expected part aggregate 3/15, got %d/%d", part.Completed, part.Total)
	}

	// gate is both a chapter and a container; its row shows the subtree
	gate := report.Rows[3]
	if gate.Completed != 0 || gate.Total != 5 {
		t.Errorf("expected gate aggregate 0/5, got %d/%d", gate.Completed, gate.Total)
	}
}

func TestBuildTocReport_UncountedLeaf(t *testing.T) {
	book := model.Book{
		Title: "Faust",
		Chapters: []model.ChapterNode{
			{ChapterID: "study", Title: "Studierzimmer"},
		},
	}
	report := buildTocReport(book, nil)

	if len(report.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(report.Rows))
	}
	if report.Rows[0].Counted {
		t.Error("expected uncounted leaf without counters")
	}
}

func TestBuildTocReport_DuplicateIDFirstOccurrenceWins(t *testing.T) {
	book := model.Book{
		Title: "Faust",
		Chapters: []model.ChapterNode{
			{ChapterID: "intro", Title: "Intro"},
			{
				Title: "Part",
				Children: []model.ChapterNode{
					{ChapterID: "intro", Title: "Intro again"},
					{ChapterID: "night", Title: "Nacht"},
				},
			},
		},
	}
	report := buildTocReport(book, nil)

	introCount := 0
	for _, row := range report.Rows {
		if row.ID == "intro" {
			introCount++
		}
	}
	if introCount != 1 {
		t.Errorf("expected duplicate id to appear once, got %d rows", introCount)
	}
}

func TestBuildProgressReport_Totals(t *testing.T) {
	report := buildProgressReport(reportBook(), reportCounters(), "database")

	if report.Source != "database" {
		t.Errorf("expected database source, got %q", report.Source)
	}
	if report.Totals.Chapters != 4 {
		t.Errorf("expected 4 chapters, got %d", report.Totals.Chapters)
	}
	if report.Totals.Tracked != 4 {
		t.Errorf("expected 4 tracked chapters, got %d", report.Totals.Tracked)
	}

	// Forest total: dedication 4/4 plus the part aggregate 3/15. gate's
	// own 2/2 is a container row and never enters the sum.
	if report.Totals.Completed != 7 || report.Totals.Total != 19 {
		t.Errorf("expected totals 7/19, got %d/%d", report.Totals.Completed, report.Totals.Total)
	}
}

func TestBuildProgressReport_EmptyCounters(t *testing.T) {
	report := buildProgressReport(reportBook(), nil, "progress.json")

	if report.Chapters == nil {
		t.Fatal("expected non-nil chapters map")
	}
	if report.Totals.Tracked != 0 {
		t.Errorf("expected 0 tracked chapters, got %d", report.Totals.Tracked)
	}
	if report.Totals.Total != 0 {
		t.Errorf("expected 0 total segments, got %d", report.Totals.Total)
	}
}
