package trace

import (
	"sync"
	"time"
)

// Heartbeat emits a liveness event every interval while a command runs.
// A run of heartbeats with no span ends between them points at a loop
// that never yields.
type Heartbeat struct {
	tracer Tracer
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// StartHeartbeat starts the heartbeat goroutine. It returns nil when
// tracing is off or interval is not positive; Stop accepts nil.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer: tracer,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go h.loop(interval)
	return h
}

func (h *Heartbeat) loop(interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	started := now()
	for {
		select {
		case <-ticker.C:
			at := now()
			h.tracer.Emit(&Event{
				Time:   at,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: "up " + at.Sub(started).Round(time.Millisecond).String(),
			})
		case <-h.stop:
			return
		}
	}
}

// Stop ends the goroutine and waits for it to exit.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
