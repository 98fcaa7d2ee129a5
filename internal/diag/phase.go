package diag

// Phase names the pipeline stage a diagnostic comes from.
type Phase uint8

const (
	PhaseUnknown Phase = iota
	PhaseLex
	PhaseParse
	PhaseTypeCheck
	PhaseRuntime
)

func (p Phase) String() string {
	switch p {
	case PhaseLex:
		return "lex"
	case PhaseParse:
		return "parse"
	case PhaseTypeCheck:
		return "typecheck"
	case PhaseRuntime:
		return "runtime"
	}
	return "unknown"
}
