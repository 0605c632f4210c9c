package runner

// EventTaskProgress is the named liveness event emitted while the external
// process runs. It carries no payload and no completion measurement;
// consumers treat a long silence as a possible stall signal.
const EventTaskProgress = "task-progress"

// ProgressSink receives heartbeat events from a running task.
type ProgressSink interface {
	Emit(event string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(string) {}

// ChannelSink forwards events onto a buffered channel without ever blocking
// the polling loop; events are dropped when the consumer lags.
type ChannelSink struct {
	ch chan string
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buf int) *ChannelSink {
	return &ChannelSink{ch: make(chan string, buf)}
}

func (s *ChannelSink) Emit(event string) {
	select {
	case s.ch <- event:
	default:
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan string {
	return s.ch
}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(event string)

func (f SinkFunc) Emit(event string) { f(event) }
