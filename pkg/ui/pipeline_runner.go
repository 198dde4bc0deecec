package ui

import (
	"fmt"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// PipelineOperation represents the type of pipeline operation performed
type PipelineOperation int

const (
	PipelineOpTranslate PipelineOperation = iota
	PipelineOpRetranslate
	PipelineOpAnalyze
)

// PipelineResultMsg is returned after a pipeline CLI operation completes
type PipelineResultMsg struct {
	Operation PipelineOperation
	Chapters  []string
	Success   bool
	Error     error
	Output    string
}

// PipelineRunner wraps the translation pipeline CLI for queueing work
// from the viewer. The viewer itself never writes translations; it hands
// chapter ids to the pipeline and watches the database for results.
type PipelineRunner struct {
	etpPath   string
	bookDir   string
	available bool
}

// NewPipelineRunner creates a runner for the given book directory,
// detecting whether the pipeline CLI is installed.
func NewPipelineRunner(bookDir string) *PipelineRunner {
	path, err := exec.LookPath("etp")
	if err != nil {
		return &PipelineRunner{bookDir: bookDir, available: false}
	}
	return &PipelineRunner{etpPath: path, bookDir: bookDir, available: true}
}

// IsAvailable returns whether the pipeline CLI was found
func (r *PipelineRunner) IsAvailable() bool {
	return r.available
}

// TranslateChapters runs etp translate --chapters id1,id2,... for the
// given chapter ids.
func (r *PipelineRunner) TranslateChapters(ids []string) tea.Cmd {
	if !r.available {
		return r.unavailableCmd(PipelineOpTranslate, ids)
	}
	args := []string{"translate", "--chapters", strings.Join(ids, ",")}
	return r.runCmd(PipelineOpTranslate, ids, args)
}

// RetranslateChapters runs etp translate --force for chapters that
// already have translations.
func (r *PipelineRunner) RetranslateChapters(ids []string) tea.Cmd {
	if !r.available {
		return r.unavailableCmd(PipelineOpRetranslate, ids)
	}
	args := []string{"translate", "--force", "--chapters", strings.Join(ids, ",")}
	return r.runCmd(PipelineOpRetranslate, ids, args)
}

// Analyze runs etp analyze to rebuild book.json from the EPUB.
func (r *PipelineRunner) Analyze() tea.Cmd {
	if !r.available {
		return r.unavailableCmd(PipelineOpAnalyze, nil)
	}
	return r.runCmd(PipelineOpAnalyze, nil, []string{"analyze"})
}

// runCmd executes a pipeline command asynchronously and returns the result
func (r *PipelineRunner) runCmd(op PipelineOperation, ids []string, args []string) tea.Cmd {
	etpPath := r.etpPath
	bookDir := r.bookDir
	return func() tea.Msg {
		cmd := exec.Command(etpPath, args...)
		cmd.Dir = bookDir
		output, err := cmd.CombinedOutput()
		outStr := strings.TrimSpace(string(output))

		if err != nil {
			return PipelineResultMsg{
				Operation: op,
				Chapters:  ids,
				Success:   false,
				Error:     fmt.Errorf("%s: %w", outStr, err),
				Output:    outStr,
			}
		}

		return PipelineResultMsg{
			Operation: op,
			Chapters:  ids,
			Success:   true,
			Output:    outStr,
		}
	}
}

// unavailableCmd returns a command that immediately reports the pipeline
// is not installed
func (r *PipelineRunner) unavailableCmd(op PipelineOperation, ids []string) tea.Cmd {
	return func() tea.Msg {
		return PipelineResultMsg{
			Operation: op,
			Chapters:  ids,
			Success:   false,
			Error:     fmt.Errorf("etp CLI not found in PATH; install the translation pipeline to queue work"),
		}
	}
}
