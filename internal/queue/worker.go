package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Geeky-Pro/openrelik-worker-hayabusa/internal/task"
)

// popTimeout bounds each blocking pop so the loop can observe ctx.
const popTimeout = 5 * time.Second

// Worker consumes task requests for every registered task and executes
// them. One request is processed at a time per Worker; run several Workers
// for parallelism — staging isolation makes that safe.
type Worker struct {
	client   *redis.Client
	registry *task.Registry
}

// NewWorker creates a queue worker over an established Redis client.
func NewWorker(client *redis.Client, registry *task.Registry) *Worker {
	return &Worker{client: client, registry: registry}
}

// Run blocks consuming requests until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	names := w.registry.Names()
	if len(names) == 0 {
		return fmt.Errorf("no tasks registered")
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, QueueKey(name))
	}

	slog.Info("worker consuming", "queues", keys)

	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := w.client.BRPop(ctx, popTimeout, keys...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("pop task request: %w", err)
		}
		// BRPop returns [key, payload]
		w.handle(ctx, res[0], []byte(res[1]))
	}
}

func (w *Worker) handle(ctx context.Context, key string, payload []byte) {
	req, err := DecodeRequest(payload)
	if err != nil {
		slog.Error("bad task request", "queue", key, "error", err)
		return
	}

	name := req.TaskName
	if name == "" {
		name = TaskNameFromKey(key)
		req.TaskName = name
	}
	reg, ok := w.registry.Get(name)
	if !ok {
		slog.Error("unknown task", "task", name, "queue", key)
		w.publish(ctx, Event{
			Event: EventFailed, TaskName: name, WorkflowID: req.WorkflowID,
			Error: fmt.Sprintf("unknown task %q", name),
		})
		return
	}

	slog.Info("task received", "task", name, "workflow", req.WorkflowID)

	result, err := reg.Handler(ctx, req)
	if err != nil {
		slog.Error("task failed", "task", name, "workflow", req.WorkflowID, "error", err)
		w.publish(ctx, Event{
			Event: EventFailed, TaskName: name, WorkflowID: req.WorkflowID,
			Error: err.Error(),
		})
		return
	}

	encoded, err := result.Encode()
	if err != nil {
		slog.Error("encode result", "task", name, "error", err)
		return
	}
	w.publish(ctx, Event{
		Event: EventResult, TaskName: name, WorkflowID: req.WorkflowID,
		Result: encoded,
	})
	slog.Info("task completed", "task", name, "workflow", req.WorkflowID,
		"duration", result.Duration)
}

func (w *Worker) publish(ctx context.Context, e Event) {
	if err := PublishEvent(ctx, w.client, e); err != nil {
		slog.Warn("publish event", "event", e.Event, "workflow", e.WorkflowID, "error", err)
	}
}

// PublishEvent sends one event envelope on the workflow's channel.
func PublishEvent(ctx context.Context, client *redis.Client, e Event) error {
	data, err := EncodeEvent(e)
	if err != nil {
		return err
	}
	return client.Publish(ctx, EventsChannel(e.WorkflowID), data).Err()
}
