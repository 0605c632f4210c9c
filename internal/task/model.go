package task

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// JSONTimelineName is the task name used to register and route the
// json-timeline task to the correct queue.
const JSONTimelineName = "openrelik-worker-hayabusa.tasks.json_timeline"

// JSONLDataType tags the consolidated artifact for downstream consumers.
const JSONLDataType = "openrelik:worker:hayabusa:file:jsonl"

// InputFile references a source artifact handed to the worker. The caller
// owns the underlying file; the worker only links to it during a run.
type InputFile struct {
	ID          string `json:"id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Path        string `json:"path"`
	DataType    string `json:"data_type,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// OutputFile describes the consolidated artifact produced by one run.
type OutputFile struct {
	UUID        string `json:"uuid"`
	DisplayName string `json:"display_name"`
	Path        string `json:"path"`
	DataType    string `json:"data_type"`
}

// Request is the inbound invocation contract: an optional upstream pipe
// result, explicit input files, an output directory root, a workflow
// correlation id, and a reserved config map (accepted, not validated).
type Request struct {
	TaskName   string         `json:"task_name,omitempty"`
	PipeResult string         `json:"pipe_result,omitempty"`
	InputFiles []InputFile    `json:"input_files,omitempty"`
	OutputPath string         `json:"output_path"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	TaskConfig map[string]any `json:"task_config,omitempty"`
}

// Result is the final payload returned to the orchestrator: produced
// artifacts, the workflow id, and the exact command line for provenance.
// ExitCode and timings are recorded for audit; a non-zero exit with a
// populated artifact is reported as a warning, not a failure.
type Result struct {
	OutputFiles []OutputFile  `json:"output_files"`
	WorkflowID  string        `json:"workflow_id,omitempty"`
	Command     string        `json:"command"`
	ExitCode    int           `json:"exit_code"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	EndedAt     time.Time     `json:"ended_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// Handler executes one task request end to end.
type Handler func(ctx context.Context, req *Request) (*Result, error)

// Encode serializes the result as a base64 JSON envelope, the wire shape
// the orchestrator expects from a finished task.
func (r *Result) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeResult parses a base64 JSON result envelope, the inverse of Encode.
func DecodeResult(encoded string) (*Result, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode result envelope: %w", err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse result envelope: %w", err)
	}
	return &r, nil
}

// ResolveInputs normalizes the two input sources to a single ordered list.
// A non-empty pipe result wins: its output files become this task's inputs,
// so chained stages consume what the previous stage produced. An empty
// resolved list is allowed; the external tool then simply finds no files.
func ResolveInputs(pipeResult string, explicit []InputFile) ([]InputFile, error) {
	if pipeResult == "" {
		return explicit, nil
	}
	prev, err := DecodeResult(pipeResult)
	if err != nil {
		return nil, fmt.Errorf("resolve pipe result: %w", err)
	}
	inputs := make([]InputFile, 0, len(prev.OutputFiles))
	for _, of := range prev.OutputFiles {
		inputs = append(inputs, InputFile{
			UUID:        of.UUID,
			DisplayName: of.DisplayName,
			Path:        of.Path,
			DataType:    of.DataType,
		})
	}
	return inputs, nil
}
