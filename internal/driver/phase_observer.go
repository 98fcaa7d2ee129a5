package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a pipeline phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during Run and Diagnose.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) emit(ev PhaseEvent) {
	if o != nil {
		o(ev)
	}
}
