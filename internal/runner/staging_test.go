package runner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

func writeInput(t *testing.T, dir, name, content string) task.InputFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return task.InputFile{Path: path}
}

func TestStageInputs_Completeness(t *testing.T) {
	src := t.TempDir()
	root := t.TempDir()

	inputs := []task.InputFile{
		writeInput(t, src, "a.evtx", "alpha"),
		writeInput(t, src, "b.evtx", "beta"),
		writeInput(t, src, "c.evtx", "gamma"),
	}

	dir, err := stageInputs(root, inputs, CollisionFail)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	for name, want := range map[string]string{"a.evtx": "alpha", "b.evtx": "beta", "c.evtx": "gamma"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("read link %s: %v", name, err)
			continue
		}
		if string(data) != want {
			t.Errorf("%s content = %q, want %q", name, data, want)
		}
	}
}

func TestStageInputs_HardLinksShareContent(t *testing.T) {
	src := t.TempDir()
	root := t.TempDir()
	in := writeInput(t, src, "a.evtx", "original")

	dir, err := stageInputs(root, []task.InputFile{in}, CollisionFail)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	// Appending through the source must be visible through the link.
	f, err := os.OpenFile(in.Path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	if _, err := f.WriteString("-more"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "a.evtx"))
	if err != nil {
		t.Fatalf("read link: %v", err)
	}
	if string(data) != "original-more" {
		t.Errorf("link is not a hard link to the source, content = %q", data)
	}
}

func TestStageInputs_CollisionFail(t *testing.T) {
	srcA := t.TempDir()
	srcB := t.TempDir()
	root := t.TempDir()

	inputs := []task.InputFile{
		writeInput(t, srcA, "same.evtx", "one"),
		writeInput(t, srcB, "same.evtx", "two"),
	}

	_, err := stageInputs(root, inputs, CollisionFail)
	if !errors.Is(err, ErrStaging) {
		t.Fatalf("expected ErrStaging, got %v", err)
	}

	// No partial staging directory left behind.
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected cleanup of partial staging dir, found %d entries", len(entries))
	}
}

func TestStageInputs_CollisionRename(t *testing.T) {
	srcA := t.TempDir()
	srcB := t.TempDir()
	root := t.TempDir()

	inputs := []task.InputFile{
		writeInput(t, srcA, "same.evtx", "one"),
		writeInput(t, srcB, "same.evtx", "two"),
	}

	dir, err := stageInputs(root, inputs, CollisionRename)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	for name, want := range map[string]string{"same.evtx": "one", "same-1.evtx": "two"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("read %s: %v", name, err)
			continue
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
}

func TestStageInputs_MissingSource(t *testing.T) {
	root := t.TempDir()
	_, err := stageInputs(root, []task.InputFile{{Path: filepath.Join(root, "nope.evtx")}}, CollisionFail)
	if !errors.Is(err, ErrStaging) {
		t.Fatalf("expected ErrStaging, got %v", err)
	}
}

func TestStagingNames_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := newStagingName()
		if len(name) != 32 {
			t.Fatalf("staging name %q is not 32 hex chars", name)
		}
		if seen[name] {
			t.Fatalf("duplicate staging name %s", name)
		}
		seen[name] = true
	}
}

func TestParseCollisionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CollisionPolicy
		wantErr bool
	}{
		{"", CollisionFail, false},
		{"fail", CollisionFail, false},
		{"rename", CollisionRename, false},
		{"overwrite", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCollisionPolicy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCollisionPolicy(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCollisionPolicy(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCollisionPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
