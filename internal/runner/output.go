package runner

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// timelineFilename is the fixed display name of the consolidated artifact.
const timelineFilename = "Hayabusa_JSONL_timeline"

// OutputFactory allocates output artifact descriptors before invocation, so
// the external tool is handed a concrete target path. The on-disk name is
// the artifact uuid; the display name is the human-facing filename.
type OutputFactory func(dir, filename, extension, dataType string) task.OutputFile

// NewOutputFile is the default OutputFactory.
func NewOutputFile(dir, filename, extension, dataType string) task.OutputFile {
	id := uuid.New().String()
	return task.OutputFile{
		UUID:        id,
		DisplayName: fmt.Sprintf("%s.%s", filename, extension),
		Path:        filepath.Join(dir, fmt.Sprintf("%s.%s", id, extension)),
		DataType:    dataType,
	}
}
