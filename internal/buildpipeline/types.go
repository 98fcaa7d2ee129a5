package buildpipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageParse covers lexing and parsing.
	StageParse Stage = "parse"
	// StageCheck is the optional type-check stage.
	StageCheck Stage = "check"
	// StageRun is evaluation.
	StageRun Stage = "run"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	// StatusCached marks a file whose diagnostics came from the disk cache.
	StatusCached Status = "cached"
)

// Event reports progress for a file (or for the overall pipeline when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Emit sends evt to sink when one is set.
func Emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
