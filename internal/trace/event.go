package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // a whole command
	ScopePass                    // lex, parse, typecheck, eval
	ScopeFile                    // one file of a directory diagnose
	ScopeNode                    // evaluator: calls, live-block transitions
)

var scopeNames = [...]string{
	ScopeDriver: "driver",
	ScopePass:   "pass",
	ScopeFile:   "file",
	ScopeNode:   "node",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // stamped by the storing tracer
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // "parse", "live.retry", "call:main"
	Detail   string
	// Attempt is the live-block attempt an evaluator event belongs to.
	Attempt int
	// Code is the diagnostic code of the fault that caused the event.
	Code  string
	Extra map[string]string
}
