package diag

import (
	"resilient/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Phase    Phase
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Attempt  int // live-block attempt, 0 outside live blocks
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Phase:    code.Phase(),
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithAttempt(n int) Diagnostic {
	d.Attempt = n
	return d
}
