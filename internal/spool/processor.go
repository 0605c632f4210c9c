package spool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// sidecar is written next to the moved payload and records the outcome.
type sidecar struct {
	Status string       `json:"status"` // "completed" or "failed"
	Error  string       `json:"error,omitempty"`
	Result *task.Result `json:"result,omitempty"`
}

// process executes one payload file and moves it to done/ or failed/ with a
// .result.json sidecar. Errors never stop the spool; they are logged and
// recorded in the sidecar.
func (s *Spool) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	slog.Info("processing payload", "file", name)

	req, err := readRequest(path)
	if err != nil {
		slog.Error("bad payload", "file", name, "error", err)
		s.finish(path, s.failedDir(), sidecar{Status: "failed", Error: err.Error()})
		return
	}

	result, err := s.cfg.ExecFn(ctx, req)
	if err != nil {
		slog.Error("payload failed", "file", name, "workflow", req.WorkflowID, "error", err)
		s.finish(path, s.failedDir(), sidecar{Status: "failed", Error: err.Error()})
		return
	}

	slog.Info("payload completed", "file", name, "workflow", req.WorkflowID,
		"duration", result.Duration)
	s.finish(path, s.doneDir(), sidecar{Status: "completed", Result: result})
}

func readRequest(path string) (*task.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	var req task.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("payload: output_path is required")
	}
	return &req, nil
}

// finish moves the payload into dest and writes its result sidecar.
// Best-effort: a failed move or write is logged, never escalated.
func (s *Spool) finish(path, dest string, sc sidecar) {
	name := filepath.Base(path)
	moved := filepath.Join(dest, name)
	if err := os.Rename(path, moved); err != nil {
		slog.Warn("move payload", "file", name, "error", err)
		return
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		slog.Warn("marshal sidecar", "file", name, "error", err)
		return
	}
	sidecarPath := moved[:len(moved)-len(".json")] + ".result.json"
	if err := os.WriteFile(sidecarPath, data, 0o644); err != nil {
		slog.Warn("write sidecar", "file", name, "error", err)
	}
}
