// Package reporter renders task results and live progress for humans. The
// wire-facing result shape lives in internal/task; nothing here feeds the
// orchestrator.
package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
)

// RenderResult writes a human-readable summary of one finished run.
// When color is false, styles are skipped entirely.
func RenderResult(w io.Writer, res *task.Result, color bool) {
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	status := style(doneStyle, "completed")
	if res.ExitCode != 0 {
		status = style(warnStyle, fmt.Sprintf("completed (exit code %d)", res.ExitCode))
	}

	fmt.Fprintf(w, "%s %s\n", style(headerStyle, "hayabusa json-timeline"), status)
	if res.WorkflowID != "" {
		fmt.Fprintf(w, "  workflow:  %s\n", res.WorkflowID)
	}
	fmt.Fprintf(w, "  duration:  %s\n", res.Duration.Round(time.Millisecond))
	for _, of := range res.OutputFiles {
		fmt.Fprintf(w, "  artifact:  %s (%s)\n", of.Path, of.DataType)
	}
	fmt.Fprintf(w, "  %s\n", style(dimStyle, res.Command))
}
