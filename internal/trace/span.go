package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// now is replaced in tests.
var now = time.Now

func nextSeq() uint64 { return seqCounter.Add(1) }

// Span tracks one begin/end pair. A Span from a disabled tracer is inert.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin emits a span-begin event and returns the span. parent is the
// enclosing span ID, 0 for a root.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !accepts(t, scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      spanCounter.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: now(),
	}
	s.emit(KindSpanBegin, s.started, "", nil)
	return s
}

// End emits the span-end event with the collected extras and returns the
// span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	end := now()
	s.emit(KindSpanEnd, end, detail, s.extra)
	return end.Sub(s.started)
}

func (s *Span) emit(kind Kind, at time.Time, detail string, extra map[string]string) {
	s.tracer.Emit(&Event{
		Time:     at,
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Extra:    extra,
	})
}

// WithExtra attaches a key/value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits a single instant event.
func Point(t Tracer, scope Scope, name string, parent uint64, detail string, extra map[string]string) {
	Record(t, Event{Scope: scope, Name: name, ParentID: parent, Detail: detail, Extra: extra})
}

// Record emits ev as a point event, filling in its time and kind. Callers
// use it for events that carry Attempt or Code.
func Record(t Tracer, ev Event) {
	if !accepts(t, ev.Scope) {
		return
	}
	ev.Time = now()
	ev.Kind = KindPoint
	t.Emit(&ev)
}

func accepts(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}
