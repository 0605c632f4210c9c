package runner

import "testing"

func TestChannelSink_NeverBlocks(t *testing.T) {
	sink := NewChannelSink(2)

	// More emits than buffer; the sink must drop, not block.
	for i := 0; i < 10; i++ {
		sink.Emit(EventTaskProgress)
	}

	got := 0
	for {
		select {
		case <-sink.Events():
			got++
			continue
		default:
		}
		break
	}
	if got != 2 {
		t.Errorf("expected 2 buffered events, got %d", got)
	}
}

func TestSinkFunc(t *testing.T) {
	var events []string
	sink := SinkFunc(func(ev string) { events = append(events, ev) })
	sink.Emit(EventTaskProgress)
	if len(events) != 1 || events[0] != "task-progress" {
		t.Errorf("events = %v", events)
	}
}
