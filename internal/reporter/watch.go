package reporter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type watchTickMsg time.Time

// ArtifactStats holds the observed state of a growing timeline artifact.
type ArtifactStats struct {
	Exists bool
	Size   int64
	Lines  int
}

// ReadArtifactStats stats the artifact and counts its event lines.
func ReadArtifactStats(path string) ArtifactStats {
	info, err := os.Stat(path)
	if err != nil {
		return ArtifactStats{}
	}
	stats := ArtifactStats{Exists: true, Size: info.Size()}

	f, err := os.Open(path)
	if err != nil {
		return stats
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		if scanner.Text() != "" {
			stats.Lines++
		}
	}
	return stats
}

// WatchModel is the Bubbletea model for observing a running invocation's
// output artifact: size, event count, elapsed time. Liveness only; it does
// not know when the run finishes.
type WatchModel struct {
	path  string
	start time.Time
	stats ArtifactStats
	frame int
	width int
}

// NewWatchModel creates a watch model for the given artifact path.
func NewWatchModel(path string) WatchModel {
	return WatchModel{path: path, start: time.Now()}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return watchTickCmd()
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case watchTickMsg:
		m.stats = ReadArtifactStats(m.path)
		m.frame++
		return m, watchTickCmd()
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	var b strings.Builder

	spinner := spinnerFrames[m.frame%len(spinnerFrames)]
	b.WriteString(headerStyle.Render("watching timeline artifact"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s %s\n", spinner, m.path))
	if m.stats.Exists {
		b.WriteString(fmt.Sprintf("  size:    %s\n", humanSize(m.stats.Size)))
		b.WriteString(fmt.Sprintf("  events:  %d\n", m.stats.Lines))
	} else {
		b.WriteString(dimStyle.Render("  waiting for output...") + "\n")
	}
	b.WriteString(fmt.Sprintf("  elapsed: %s\n", time.Since(m.start).Round(time.Second)))

	b.WriteString("\n" + dimStyle.Render("q to quit"))
	return b.String()
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
