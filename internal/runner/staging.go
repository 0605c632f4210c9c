package runner

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// ErrStaging indicates the staging directory could not be created or an
// input could not be linked into it.
var ErrStaging = errors.New("staging failed")

// CollisionPolicy controls what happens when two inputs share a base
// filename. The tool needs a flat directory, so duplicates must either
// abort the run or be deduplicated by renaming.
type CollisionPolicy string

const (
	// CollisionFail aborts staging on a duplicate base filename.
	CollisionFail CollisionPolicy = "fail"
	// CollisionRename dedupes duplicates with a numeric suffix.
	CollisionRename CollisionPolicy = "rename"
)

// ParseCollisionPolicy validates a policy string, defaulting to fail.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionFail:
		return CollisionFail, nil
	case CollisionRename:
		return CollisionRename, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (want fail or rename)", s)
	}
}

// newStagingName returns a collision-resistant random directory name.
// Concurrent invocations on the same host must never share a staging
// directory; uniqueness comes from the identifier space alone.
func newStagingName() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// stageInputs creates an ephemeral staging directory under root and hard
// links every input into it by base filename, presenting the flat view the
// external tool requires without duplicating bytes. The caller owns removal
// of the returned directory; on error only a best-effort cleanup of the
// partial directory is attempted.
func stageInputs(root string, inputs []task.InputFile, policy CollisionPolicy) (string, error) {
	dir := filepath.Join(root, newStagingName())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create staging dir: %v", ErrStaging, err)
	}

	seen := make(map[string]int)
	for _, in := range inputs {
		name := filepath.Base(in.Path)
		if n := seen[name]; n > 0 {
			if policy == CollisionFail {
				_ = os.RemoveAll(dir)
				return "", fmt.Errorf("%w: duplicate input filename %s", ErrStaging, name)
			}
			name = dedupeName(name, n)
		}
		seen[filepath.Base(in.Path)]++

		if err := os.Link(in.Path, filepath.Join(dir, name)); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("%w: link %s: %v", ErrStaging, in.Path, err)
		}
	}
	return dir, nil
}

// dedupeName inserts a numeric suffix before the extension: a.evtx → a-1.evtx.
func dedupeName(name string, n int) string {
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	return fmt.Sprintf("%s-%d%s", base, n, ext)
}
