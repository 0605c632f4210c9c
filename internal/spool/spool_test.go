package spool

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

func writePayload(t *testing.T, dir, name string, req task.Request) string {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSpool_Validation(t *testing.T) {
	if _, err := New(Config{ExecFn: func(context.Context, *task.Request) (*task.Result, error) { return nil, nil }}); err == nil {
		t.Error("expected error for missing dir")
	}
	if _, err := New(Config{Dir: t.TempDir()}); err == nil {
		t.Error("expected error for missing exec function")
	}
}

func TestSpool_ProcessesExistingPayload(t *testing.T) {
	dir := t.TempDir()

	var got *task.Request
	s, err := New(Config{
		Dir:      dir,
		PollMode: true,
		Poll:     50 * time.Millisecond,
		ExecFn: func(ctx context.Context, req *task.Request) (*task.Result, error) {
			got = req
			return &task.Result{WorkflowID: req.WorkflowID, Command: "fake"}, nil
		},
	})
	if err != nil {
		t.Fatalf("new spool: %v", err)
	}

	writePayload(t, dir, "job1.json", task.Request{OutputPath: "/data/out", WorkflowID: "wf-1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	movedPayload := filepath.Join(dir, "done", "job1.json")
	waitFor(t, func() bool {
		_, err := os.Stat(movedPayload)
		return err == nil
	})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	if got == nil || got.WorkflowID != "wf-1" {
		t.Fatalf("executed request = %+v", got)
	}

	sidecarData, err := os.ReadFile(filepath.Join(dir, "done", "job1.result.json"))
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var sc sidecar
	if err := json.Unmarshal(sidecarData, &sc); err != nil {
		t.Fatalf("parse sidecar: %v", err)
	}
	if sc.Status != "completed" || sc.Result == nil || sc.Result.WorkflowID != "wf-1" {
		t.Errorf("sidecar = %+v", sc)
	}
}

func TestSpool_FailedPayload(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Config{
		Dir:      dir,
		PollMode: true,
		Poll:     50 * time.Millisecond,
		ExecFn: func(ctx context.Context, req *task.Request) (*task.Result, error) {
			return nil, errors.New("hayabusa produced no output")
		},
	})
	if err != nil {
		t.Fatalf("new spool: %v", err)
	}

	writePayload(t, dir, "job2.json", task.Request{OutputPath: "/data/out", WorkflowID: "wf-2"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	defer cancel()

	failedPayload := filepath.Join(dir, "failed", "job2.json")
	waitFor(t, func() bool {
		_, err := os.Stat(failedPayload)
		return err == nil
	})

	sidecarData, err := os.ReadFile(filepath.Join(dir, "failed", "job2.result.json"))
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var sc sidecar
	if err := json.Unmarshal(sidecarData, &sc); err != nil {
		t.Fatalf("parse sidecar: %v", err)
	}
	if sc.Status != "failed" || sc.Error == "" {
		t.Errorf("sidecar = %+v", sc)
	}
}

func TestSpool_MalformedPayload(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Config{
		Dir:      dir,
		PollMode: true,
		Poll:     50 * time.Millisecond,
		ExecFn: func(ctx context.Context, req *task.Request) (*task.Result, error) {
			t.Error("exec must not run for malformed payloads")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("new spool: %v", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	defer cancel()

	waitFor(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "failed", "bad.json"))
		return err == nil
	})
}

func TestIsPayloadFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"job.json", true},
		{"job.result.json", true},
		{".hidden.json", false},
		{"job.yaml", false},
		{"job.json.tmp", false},
	}
	for _, tt := range tests {
		if got := isPayloadFile(tt.name); got != tt.want {
			t.Errorf("isPayloadFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
