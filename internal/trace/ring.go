package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last capacity events in memory. The CLI dumps it
// when a run ends in a fatal fault.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Event
	next  int // write position
	count int // stored events, at most len(buf)
	level Level
}

// NewRingTracer returns a ring of the given capacity; a non-positive
// capacity means DefaultRingSize.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := *ev
	stored.Seq = nextSeq()
	t.buf[t.next] = stored
	t.next = (t.next + 1) % len(t.buf)
	t.count = min(t.count+1, len(t.buf))
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, t.count)
	start := (t.next - t.count + len(t.buf)) % len(t.buf)
	for i := range t.count {
		out = append(out, t.buf[(start+i)%len(t.buf)])
	}
	return out
}

// Names returns the names of the stored events, oldest first.
func (t *RingTracer) Names() []string {
	events := t.Snapshot()
	out := make([]string, len(events))
	for i := range events {
		out[i] = events[i].Name
	}
	return out
}

// Dump writes the stored events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format.resolve(""))); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
