package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/config"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/spool"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

func newSpoolCmd() *cobra.Command {
	var (
		dir      string
		pollMode bool
	)

	cmd := &cobra.Command{
		Use:   "spool",
		Short: "Watch a directory for task request payloads",
		Long:  "Spool runs the worker without a broker: JSON task requests dropped into the spool directory are executed and moved to done/ or failed/ with a result sidecar.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}
			sc := settings.Spool
			if sc == nil {
				sc = &config.SpoolConfig{}
			}
			if dir != "" {
				sc.Dir = dir
			}
			if pollMode {
				sc.PollMode = true
			}
			if sc.Dir == "" {
				return fmt.Errorf("spool directory is required (--dir or config)")
			}

			cfg, err := runnerConfig(settings)
			if err != nil {
				return err
			}

			hist := openHistory(settings)
			if hist != nil {
				defer func() { _ = hist.Close() }()
			}

			reg, err := buildRegistry(cfg, nil, hist)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := spool.New(spool.Config{
				Dir:      sc.Dir,
				PollMode: sc.PollMode,
				ExecFn: func(ctx context.Context, req *task.Request) (*task.Result, error) {
					name := req.TaskName
					if name == "" {
						name = task.JSONTimelineName
					}
					registration, ok := reg.Get(name)
					if !ok {
						return nil, fmt.Errorf("unknown task %q", name)
					}
					return registration.Handler(ctx, req)
				},
			})
			if err != nil {
				return err
			}
			return s.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "spool directory (overrides config)")
	cmd.Flags().BoolVar(&pollMode, "poll", false, "poll instead of using fsnotify")

	return cmd
}
