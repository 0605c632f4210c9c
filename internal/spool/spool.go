// Package spool implements the brokerless deployment mode: task request
// payloads are dropped into a directory as JSON files, picked up by a
// filesystem watcher, executed, and moved to done/ or failed/ with a result
// sidecar.
package spool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// debounceDefault is the debounce interval for file events, so a payload is
// processed once even when its creation produces several events.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// ExecFunc executes one task request. Injected to keep spool free of runner
// wiring.
type ExecFunc func(ctx context.Context, req *task.Request) (*task.Result, error)

// Config holds spool daemon configuration.
type Config struct {
	Dir      string        // where payloads land
	PollMode bool          // fall back to polling if fsnotify unavailable
	Debounce time.Duration // file-event debounce, default 200ms
	Poll     time.Duration // poll interval, default 5s
	ExecFn   ExecFunc
}

// Spool watches for task payloads and executes them.
type Spool struct {
	cfg Config
}

// New creates a spool with validated configuration.
func New(cfg Config) (*Spool, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("spool directory is required")
	}
	if cfg.ExecFn == nil {
		return nil, fmt.Errorf("execution function is required")
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = debounceDefault
	}
	if cfg.Poll == 0 {
		cfg.Poll = pollDefault
	}
	return &Spool{cfg: cfg}, nil
}

func (s *Spool) doneDir() string   { return filepath.Join(s.cfg.Dir, "done") }
func (s *Spool) failedDir() string { return filepath.Join(s.cfg.Dir, "failed") }

// Run starts the spool daemon. Blocks until ctx is cancelled.
func (s *Spool) Run(ctx context.Context) error {
	for _, dir := range []string{s.cfg.Dir, s.doneDir(), s.failedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure spool dirs: %w", err)
		}
	}

	slog.Info("spool starting", "dir", s.cfg.Dir, "poll_mode", s.cfg.PollMode)

	// Process any payloads already waiting.
	if err := s.scanExisting(ctx); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	if s.cfg.PollMode {
		return s.runPollWatcher(ctx)
	}
	return s.runFSWatcher(ctx)
}

// scanExisting processes any .json files already in the spool directory.
func (s *Spool) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isPayloadFile(e.Name()) {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		s.process(ctx, filepath.Join(s.cfg.Dir, e.Name()))
	}
	return nil
}

// runFSWatcher watches the spool directory using fsnotify.
func (s *Spool) runFSWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.cfg.Dir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	slog.Info("watching for payloads", "mode", "fsnotify", "dir", s.cfg.Dir)

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range pending {
				t.Stop()
			}
			mu.Unlock()
			slog.Info("spool stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isPayloadFile(filepath.Base(event.Name)) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(s.cfg.Debounce, func() {
				s.process(ctx, path)
				mu.Lock()
				delete(pending, path)
				mu.Unlock()
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// runPollWatcher scans the spool directory on a fixed interval.
func (s *Spool) runPollWatcher(ctx context.Context) error {
	slog.Info("watching for payloads", "mode", "poll", "dir", s.cfg.Dir, "interval", s.cfg.Poll)

	ticker := time.NewTicker(s.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("spool stopped")
			return nil
		case <-ticker.C:
			if err := s.scanExisting(ctx); err != nil {
				slog.Error("scan spool dir", "error", err)
			}
		}
	}
}

func isPayloadFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}
