package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/config"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/datasource"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/export"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/loader"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/toc"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/ui"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/version"
)

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	bookName := flag.String("book", "", "Open a registered book by name instead of detecting from cwd")
	chapter := flag.String("chapter", "", "Start with the given chapter active")
	minimal := flag.Bool("minimal", false, "Flat chapter list in reading order, no tree structure")
	pick := flag.Bool("pick", false, "Always show the book picker, even inside a book directory")
	noWatch := flag.Bool("no-watch", false, "Disable live reload of pipeline output")
	exportMd := flag.String("export-md", "", "Write a Markdown progress report to the given file and exit")
	exportSvg := flag.String("export-svg", "", "Write an SVG progress chart to the given file and exit")
	robotHelp := flag.Bool("robot-help", false, "Show AI agent help")
	robotToc := flag.Bool("robot-toc", false, "Output the chapter tree with aggregated progress as JSON for AI agents")
	robotProgress := flag.Bool("robot-progress", false, "Output translation progress as JSON for AI agents")
	flag.Parse()

	if *help {
		fmt.Println("Usage: etv [options]")
		fmt.Println("\nA TUI viewer for EPUB translation pipeline output.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *robotHelp {
		fmt.Println("etv (EPUB Translation Viewer) AI Agent Interface")
		fmt.Println("================================================")
		fmt.Println("This tool reads the .etv directory the translation pipeline writes")
		fmt.Println("(book.json, progress.json, translation.db) and reports on it.")
		fmt.Println("Use these commands instead of parsing the raw files.")
		fmt.Println("")
		fmt.Println("Commands:")
		fmt.Println("  --robot-toc")
		fmt.Println("      Outputs the chapter tree as JSON, one row per node in reading")
		fmt.Println("      order. Group rows carry aggregated counters summed over their")
		fmt.Println("      descendant chapters; a section that is both readable and a")
		fmt.Println("      container is counted once.")
		fmt.Println("      Key fields:")
		fmt.Println("      - id: chapter id (empty for pure group rows)")
		fmt.Println("      - depth: nesting level in the TOC")
		fmt.Println("      - completed/total: translated vs total segments")
		fmt.Println("      - counted: false when the pipeline has not analyzed the node")
		fmt.Println("")
		fmt.Println("  --robot-progress")
		fmt.Println("      Outputs overall translation progress as JSON.")
		fmt.Println("      Key fields:")
		fmt.Println("      - totals: segment counts across the whole book")
		fmt.Println("      - chapters: per-chapter counters keyed by id")
		fmt.Println("      - source: 'database' or 'progress.json'")
		fmt.Println("")
		fmt.Println("  --export-md <file>")
		fmt.Println("      Writes a Markdown checklist mirroring the TOC structure.")
		fmt.Println("")
		fmt.Println("  --export-svg <file>")
		fmt.Println("      Writes an SVG bar chart of per-chapter progress.")
		fmt.Println("")
		fmt.Println("  --book NAME")
		fmt.Println("      Operate on a registered book instead of the current directory.")
		fmt.Println("      Books are registered in ~/.config/etv/config.yaml or discovered")
		fmt.Println("      under the configured scan_paths.")
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("etv %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error loading config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	applyThemePreference(cfg.UI.Theme)

	// Resolve the book directory: --book, then cwd detection, then the
	// picker over registered and discovered books.
	bookDir := ""
	if *bookName != "" {
		entry := cfg.FindBook(*bookName)
		if entry == nil {
			fmt.Fprintf(os.Stderr, "Error: no registered book named %q\n", *bookName)
			fmt.Fprintln(os.Stderr, "Registered books:")
			for _, b := range cfg.Books {
				fmt.Fprintf(os.Stderr, "  %-20s %s\n", b.Name, b.Path)
			}
			os.Exit(1)
		}
		bookDir = entry.ResolvedPath()
	} else if !*pick {
		bookDir, _ = loader.DetectRoot()
	}

	if bookDir == "" {
		entry := runBookPicker(&cfg)
		if entry == nil {
			os.Exit(0)
		}
		bookDir = entry.ResolvedPath()
	}

	etvDir, err := loader.GetEtvDir(bookDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	snap, err := loader.LoadSnapshot(etvDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading book: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run the pipeline's analyze step to populate .etv/book.json.")
		os.Exit(1)
	}

	// The database supersedes progress.json when the pipeline has
	// started writing translations.
	counterSource := "progress.json"
	var reader *datasource.SQLiteReader
	if dbPath, ok := loader.DatabasePath(etvDir); ok {
		reader, err = datasource.NewSQLiteReader(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open %s: %v\n", dbPath, err)
		} else {
			defer reader.Close()
			if progress, err := reader.LoadProgress(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not read progress from database: %v\n", err)
			} else {
				snap.Progress = progress
				counterSource = "database"
			}
		}
	}

	if *robotToc {
		writeJSON(buildTocReport(snap.Book, snap.Progress))
		os.Exit(0)
	}

	if *robotProgress {
		writeJSON(buildProgressReport(snap.Book, snap.Progress, counterSource))
		os.Exit(0)
	}

	if *exportMd != "" {
		if err := export.SaveMarkdownToFile(snap.Book, snap.Progress, *exportMd); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *exportMd)
		os.Exit(0)
	}

	if *exportSvg != "" {
		if err := export.SaveProgressSVG(snap.Book, snap.Progress, *exportSvg); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *exportSvg)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: not a terminal. Use --robot-toc or --robot-progress for machine output.")
		os.Exit(1)
	}

	opts := []ui.ModelOption{
		ui.WithAutoExpand(cfg.UI.AutoExpand()),
	}
	if *minimal || cfg.UI.Minimal {
		opts = append(opts, ui.WithMinimal(true))
	}
	if cfg.UI.SplitRatio > 0 {
		opts = append(opts, ui.WithSplitRatio(cfg.UI.SplitRatio))
	}
	if *chapter != "" {
		opts = append(opts, ui.WithActiveChapter(*chapter))
	}
	if reader != nil {
		opts = append(opts, ui.WithTextProvider(reader))
	}
	opts = append(opts, ui.WithPipelineRunner(ui.NewPipelineRunner(bookDir)))

	m := ui.NewModel(snap.Book, snap.Progress, etvDir, opts...)

	var worker *ui.BackgroundWorker
	if !*noWatch && !cfg.Watch.Disabled {
		workerCfg := ui.WorkerConfig{EtvDir: etvDir}
		if reader != nil {
			workerCfg.ProgressFn = reader.LoadProgress
		}
		worker, err = ui.NewBackgroundWorker(workerCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
			worker = nil
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if worker != nil {
		worker.SetProgram(p)
		if err := worker.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		}
		defer worker.Stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running viewer: %v\n", err)
		os.Exit(1)
	}
}

// applyThemePreference forces the light or dark palette when configured,
// leaving terminal detection in place for "auto".
func applyThemePreference(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// runBookPicker shows the startup picker over registered and discovered
// books and returns the chosen entry, or nil if the user quit.
func runBookPicker(cfg *config.Config) *config.BookEntry {
	entries := buildPickerEntries(*cfg)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No book found in the current directory and none registered.")
		fmt.Fprintln(os.Stderr, "Run 'etp analyze' inside a book directory, or add scan_paths to the config.")
		return nil
	}

	app := ui.NewBookPickerApp(entries, ui.DefaultTheme(lipgloss.DefaultRenderer()))
	app.SetFavoriteHandler(func(bookName string, slot int) {
		cfg.SetFavorite(slot, bookName)
		if err := config.Save(*cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save favorites: %v\n", err)
		}
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running book picker: %v\n", err)
		return nil
	}
	result, ok := final.(ui.BookPickerApp)
	if !ok {
		return nil
	}
	return result.Choice()
}

// buildPickerEntries merges registered and discovered books with their
// favorite slots and aggregated progress.
func buildPickerEntries(cfg config.Config) []ui.BookEntry {
	slots := make(map[string]int)
	for n, name := range cfg.Favorites {
		slots[name] = n
	}

	cwd, _ := os.Getwd()

	var entries []ui.BookEntry
	for _, book := range config.DiscoverBooks(cfg) {
		entry := ui.BookEntry{
			Book:        book,
			FavoriteNum: slots[book.Name],
			IsActive:    book.ResolvedPath() == cwd,
		}
		if etvDir, err := loader.GetEtvDir(book.ResolvedPath()); err == nil {
			if snap, err := loader.LoadSnapshot(etvDir); err == nil {
				if progress, ok := toc.AggregateForest(snap.Book.Chapters, snap.Progress); ok {
					entry.Progress = progress
					entry.Counted = true
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// tocRow is one node of the --robot-toc output.
type tocRow struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Depth     int    `json:"depth"`
	Group     bool   `json:"group,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Counted   bool   `json:"counted"`
}

type tocReport struct {
	GeneratedAt string   `json:"generated_at"`
	Book        string   `json:"book"`
	Rows        []tocRow `json:"rows"`
}

// buildTocReport flattens the chapter tree in reading order with
// aggregated counters on every row.
func buildTocReport(book model.Book, counters map[string]model.ChapterProgress) tocReport {
	report := tocReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Book:        book.Title,
	}

	seen := make(map[string]bool)
	var walk func(n model.ChapterNode, depth int)
	walk = func(n model.ChapterNode, depth int) {
		// Duplicate ids keep their first row only, matching reading order
		dup := n.ChapterID != "" && seen[n.ChapterID]
		if n.ChapterID != "" {
			seen[n.ChapterID] = true
		}
		if !dup {
			progress, counted := toc.Aggregate(n, counters)
			report.Rows = append(report.Rows, tocRow{
				ID:        n.ChapterID,
				Title:     n.Title,
				Depth:     depth,
				Group:     len(n.Children) > 0,
				Completed: progress.Completed,
				Total:     progress.Total,
				Counted:   counted,
			})
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	for _, ch := range book.Chapters {
		walk(ch, 0)
	}
	return report
}

type progressReport struct {
	GeneratedAt string                           `json:"generated_at"`
	Book        string                           `json:"book"`
	Source      string                           `json:"source"`
	Chapters    map[string]model.ChapterProgress `json:"chapters"`
	Totals      struct {
		Completed int     `json:"completed"`
		Total     int     `json:"total"`
		Percent   float64 `json:"percent"`
		Chapters  int     `json:"chapters"`
		Tracked   int     `json:"tracked"`
	} `json:"totals"`
}

// buildProgressReport summarizes per-chapter counters for agents.
func buildProgressReport(book model.Book, counters map[string]model.ChapterProgress, source string) progressReport {
	report := progressReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Book:        book.Title,
		Source:      source,
		Chapters:    counters,
	}
	if report.Chapters == nil {
		report.Chapters = map[string]model.ChapterProgress{}
	}

	ids := toc.Flatten(book.Chapters)
	report.Totals.Chapters = len(ids)
	for _, id := range ids {
		if _, ok := counters[id]; ok {
			report.Totals.Tracked++
		}
	}
	if progress, ok := toc.AggregateForest(book.Chapters, counters); ok {
		report.Totals.Completed = progress.Completed
		report.Totals.Total = progress.Total
		report.Totals.Percent = progress.Percent()
	}
	return report
}

// writeJSON encodes v to stdout, indented for readability.
func writeJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}
