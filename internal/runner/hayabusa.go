package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// DefaultBinary is where the hayabusa executable lives in the worker image.
const DefaultBinary = "/hayabusa/hayabusa"

// DefaultPollInterval is the heartbeat cadence while the tool runs.
const DefaultPollInterval = 2 * time.Second

var (
	// ErrMissingOutput indicates the external process terminated without
	// producing a non-empty artifact. Terminal; not retried at this layer.
	ErrMissingOutput = errors.New("hayabusa produced no output")
	// ErrCancelled indicates the caller cancelled the run; the subprocess
	// was terminated and staging cleaned up before returning.
	ErrCancelled = errors.New("task cancelled")
)

// Config controls one Hayabusa runner instance.
type Config struct {
	Binary       string
	PollInterval time.Duration
	Collision    CollisionPolicy
	Output       OutputFactory
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Collision == "" {
		c.Collision = CollisionFail
	}
	if c.Output == nil {
		c.Output = NewOutputFile
	}
	return c
}

// Hayabusa drives one end-to-end execution of the hayabusa binary over a
// set of staged inputs: resolve → allocate output → stage → invoke → poll →
// clean up → collect → result. Safe for concurrent use; every invocation
// stages into its own uniquely named directory.
type Hayabusa struct {
	cfg  Config
	sink ProgressSink
}

// NewHayabusa creates a runner. A nil sink discards heartbeats.
func NewHayabusa(cfg Config, sink ProgressSink) *Hayabusa {
	if sink == nil {
		sink = NopSink{}
	}
	return &Hayabusa{cfg: cfg.withDefaults(), sink: sink}
}

// Command builds the fixed hayabusa argument list. Any change here is a
// breaking change to the tool's behavior contract.
func (h *Hayabusa) Command(outputPath, stagingDir string) []string {
	return []string{
		h.cfg.Binary,
		"json-timeline",
		"--ISO-8601",
		"--UTC",
		"--no-wizard",
		"--quiet",
		"--JSONL-output",
		"--profile", "super-verbose",
		"--output", outputPath,
		"--directory", stagingDir,
	}
}

// Execute runs one json-timeline invocation. Failures surface as terminal
// errors; there is no partial-success shape. The staging directory is
// removed on every path that gets past staging, including cancellation.
func (h *Hayabusa) Execute(ctx context.Context, req *task.Request) (*task.Result, error) {
	start := time.Now()

	inputs, err := task.ResolveInputs(req.PipeResult, req.InputFiles)
	if err != nil {
		return nil, err
	}

	outFile := h.cfg.Output(req.OutputPath, timelineFilename, "jsonl", task.JSONLDataType)

	stagingDir, err := stageInputs(req.OutputPath, inputs, h.cfg.Collision)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(stagingDir) }()

	argv := h.Command(outFile.Path, stagingDir)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	slog.Debug("spawning hayabusa",
		"workflow", req.WorkflowID, "inputs", len(inputs), "staging", stagingDir)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start hayabusa: %w", err)
	}

	exitErr := h.poll(cmd)
	end := time.Now()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}

	info, statErr := os.Stat(outFile.Path)
	if statErr != nil || info.Size() == 0 {
		return nil, fmt.Errorf("%w at %s", ErrMissingOutput, outFile.Path)
	}
	if exitErr != nil {
		// Non-empty artifact despite a non-zero exit: hayabusa writes
		// partial timelines on some per-file failures. Surface the exit
		// code in the result instead of discarding the run.
		slog.Warn("hayabusa exited with error but produced output",
			"workflow", req.WorkflowID, "error", exitErr)
	}

	return &task.Result{
		OutputFiles: []task.OutputFile{outFile},
		WorkflowID:  req.WorkflowID,
		Command:     strings.Join(argv, " "),
		ExitCode:    cmd.ProcessState.ExitCode(),
		StartedAt:   start,
		EndedAt:     end,
		Duration:    end.Sub(start),
	}, nil
}

// poll waits for the subprocess while emitting a heartbeat every interval.
// The heartbeat is a liveness signal only; it measures nothing.
func (h *Hayabusa) poll(cmd *exec.Cmd) error {
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	ticker := time.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-waitCh:
			return err
		case <-ticker.C:
			h.sink.Emit(EventTaskProgress)
		}
	}
}
