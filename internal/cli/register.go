package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/config"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/runner"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/state"
	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// sinkFactory builds a per-request progress sink. Nil means heartbeats are
// discarded.
type sinkFactory func(req *task.Request) runner.ProgressSink

// runnerConfig maps settings onto the runner, validating the collision
// policy up front.
func runnerConfig(s *config.Settings) (runner.Config, error) {
	policy, err := runner.ParseCollisionPolicy(s.CollisionPolicy)
	if err != nil {
		return runner.Config{}, err
	}
	return runner.Config{
		Binary:       s.HayabusaBin,
		PollInterval: s.PollInterval,
		Collision:    policy,
	}, nil
}

// buildRegistry registers every task this worker serves. Registration is
// explicit and happens once at startup; a duplicate name is a startup error.
func buildRegistry(cfg runner.Config, sinks sinkFactory, hist *state.History) (*task.Registry, error) {
	reg := task.NewRegistry()

	handler := func(ctx context.Context, req *task.Request) (*task.Result, error) {
		var sink runner.ProgressSink
		if sinks != nil {
			sink = sinks(req)
		}
		start := time.Now()
		res, err := runner.NewHayabusa(cfg, sink).Execute(ctx, req)
		recordRun(ctx, hist, task.JSONTimelineName, req, res, err, start)
		return res, err
	}

	err := reg.Register(task.JSONTimelineName, task.Metadata{
		DisplayName: "Hayabusa JSON timeline",
		Description: "Windows event log triage with JSONL output",
	}, handler)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// recordRun appends the invocation to the history store. Best-effort: the
// run's outcome never depends on the audit log.
func recordRun(ctx context.Context, hist *state.History, taskName string, req *task.Request, res *task.Result, runErr error, start time.Time) {
	if hist == nil {
		return
	}
	entry := state.Entry{
		TaskName:   taskName,
		WorkflowID: req.WorkflowID,
		StartedAt:  start,
		EndedAt:    time.Now(),
	}
	if runErr != nil {
		entry.Status = state.StatusFailed
		entry.Error = runErr.Error()
	} else {
		entry.Status = state.StatusCompleted
		entry.Command = res.Command
		entry.ExitCode = res.ExitCode
		if len(res.OutputFiles) > 0 {
			entry.ArtifactPath = res.OutputFiles[0].Path
		}
	}
	if err := hist.Record(ctx, entry); err != nil {
		slog.Warn("record history", "workflow", req.WorkflowID, "error", err)
	}
}

// openHistory opens the configured history store, falling back to the
// default path. Returns nil (and logs) if the store cannot be opened.
func openHistory(s *config.Settings) *state.History {
	path := s.HistoryDB
	if path == "" {
		path = state.DefaultPath()
	}
	hist, err := state.Open(path)
	if err != nil {
		slog.Warn("history store unavailable", "path", path, "error", err)
		return nil
	}
	return hist
}
