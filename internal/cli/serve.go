package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/config"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/queue"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/runner"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

func newServeCmd() *cobra.Command {
	var redisAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Consume task requests from the Redis broker",
		Long:  "Serve connects to the orchestrator's Redis broker, consumes json-timeline requests, and publishes progress heartbeats and results back on the workflow event channel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}
			rc := settings.Redis
			if rc == nil {
				rc = &config.RedisConfig{}
			}
			if redisAddr != "" {
				rc.Addr = redisAddr
			}
			if rc.Addr == "" {
				rc.Addr = "localhost:6379"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := redis.NewClient(&redis.Options{
				Addr:     rc.Addr,
				Password: rc.ResolvePassword(),
				DB:       rc.DB,
			})
			defer func() { _ = client.Close() }()

			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("connect broker %s: %w", rc.Addr, err)
			}
			slog.Info("broker connected", "addr", rc.Addr, "db", rc.DB)

			cfg, err := runnerConfig(settings)
			if err != nil {
				return err
			}

			hist := openHistory(settings)
			if hist != nil {
				defer func() { _ = hist.Close() }()
			}

			// Heartbeats go back to the orchestrator over pub/sub.
			sinks := func(req *task.Request) runner.ProgressSink {
				return runner.SinkFunc(func(event string) {
					err := queue.PublishEvent(ctx, client, queue.Event{
						Event:      event,
						TaskName:   req.TaskName,
						WorkflowID: req.WorkflowID,
					})
					if err != nil {
						slog.Warn("publish heartbeat", "workflow", req.WorkflowID, "error", err)
					}
				})
			}

			reg, err := buildRegistry(cfg, sinks, hist)
			if err != nil {
				return err
			}

			return queue.NewWorker(client, reg).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "", "broker address (overrides config)")

	return cmd
}
