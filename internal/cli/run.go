package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/config"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/reporter"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/runner"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

func newRunCmd() *cobra.Command {
	var (
		inputs     []string
		outputPath string
		workflowID string
		binary     string
		collision  string
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Hayabusa timeline task once over local files",
		Long:  "Run executes one json-timeline invocation over the given event log files and prints the result, without any broker in the loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}
			if binary != "" {
				settings.HayabusaBin = binary
			}
			if collision != "" {
				settings.CollisionPolicy = collision
			}

			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			if err := os.MkdirAll(outputPath, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			files := make([]task.InputFile, 0, len(inputs))
			for _, p := range inputs {
				abs, err := filepathAbs(p)
				if err != nil {
					return err
				}
				files = append(files, task.InputFile{Path: abs})
			}

			cfg, err := runnerConfig(settings)
			if err != nil {
				return err
			}

			hist := openHistory(settings)
			if hist != nil {
				defer func() { _ = hist.Close() }()
			}

			// Heartbeats go to the log in one-shot mode.
			sinks := func(req *task.Request) runner.ProgressSink {
				return runner.SinkFunc(func(event string) {
					slog.Debug("progress", "event", event, "workflow", req.WorkflowID)
				})
			}

			reg, err := buildRegistry(cfg, sinks, hist)
			if err != nil {
				return err
			}
			registration, _ := reg.Get(task.JSONTimelineName)

			req := &task.Request{
				TaskName:   task.JSONTimelineName,
				InputFiles: files,
				OutputPath: outputPath,
				WorkflowID: workflowID,
			}

			res, err := registration.Handler(cmd.Context(), req)
			if err != nil {
				return err
			}

			color := !noColor && isTerminal()
			reporter.RenderResult(os.Stdout, res, color)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "input event log file (repeatable)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory root")
	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "workflow correlation id")
	cmd.Flags().StringVar(&binary, "hayabusa", "", "path to the hayabusa binary")
	cmd.Flags().StringVar(&collision, "collision", "", "duplicate-filename policy: fail or rename")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// filepathAbs resolves p to an absolute path and verifies it exists, so a
// bad input fails before staging rather than mid-run.
func filepathAbs(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve input %s: %w", p, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("input %s: %w", p, err)
	}
	return abs, nil
}
