// Package queue is the broker edge of the worker: it consumes task requests
// from Redis lists and publishes progress and results back to the
// orchestrator. The broker itself is an external collaborator; nothing here
// schedules or tracks workflow state.
package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// Event names published on the workflow channel.
const (
	EventProgress = "task-progress"
	EventResult   = "task-result"
	EventFailed   = "task-failed"
)

// Event is the envelope published to the orchestrator. Progress events
// carry no payload; result events carry the base64 result envelope.
type Event struct {
	Event      string `json:"event"`
	TaskName   string `json:"task_name"`
	WorkflowID string `json:"workflow_id,omitempty"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

const queuePrefix = "openrelik:queue:"

// QueueKey returns the Redis list a task's requests arrive on.
func QueueKey(taskName string) string {
	return queuePrefix + taskName
}

// TaskNameFromKey recovers the task name a queue key routes to.
func TaskNameFromKey(key string) string {
	return strings.TrimPrefix(key, queuePrefix)
}

// EventsChannel returns the pub/sub channel for one workflow's events.
func EventsChannel(workflowID string) string {
	return "openrelik:events:" + workflowID
}

// DecodeRequest parses a queued task request payload.
func DecodeRequest(data []byte) (*task.Request, error) {
	var req task.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse task request: %w", err)
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("task request: output_path is required")
	}
	return &req, nil
}

// EncodeEvent serializes an event envelope for publishing.
func EncodeEvent(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
