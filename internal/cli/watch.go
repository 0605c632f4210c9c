package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/reporter"
)

func newWatchCmd() *cobra.Command {
	var artifact string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a running invocation's output artifact",
		Long:  "Watch shows a live view of a timeline artifact as hayabusa writes it: size, event count, and elapsed time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if artifact == "" {
				detected, err := detectLatestArtifact(".")
				if err != nil {
					return err
				}
				artifact = detected
			}
			p := tea.NewProgram(reporter.NewWatchModel(artifact))
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&artifact, "artifact", "", "path to the timeline artifact (auto-detects newest *.jsonl if omitted)")

	return cmd
}

// detectLatestArtifact picks the most recently modified .jsonl file in dir.
func detectLatestArtifact(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}
	type candidate struct {
		path string
		mod  int64
	}
	var found []candidate
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, e.Name()), info.ModTime().UnixNano()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no .jsonl artifacts found in %s", dir)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod > found[j].mod })
	return found[0].path, nil
}
