package vm

import (
	"fmt"
	"strings"

	"resilient/internal/diag"
	"resilient/internal/source"
)

// BacktraceFrame represents one frame in the fault backtrace.
type BacktraceFrame struct {
	FuncName string
	Span     source.Span
}

// VMError is a runtime fault. Code is one of the diag.Run* codes.
type VMError struct {
	Code      diag.Code
	Message   string
	Span      source.Span      // where the fault occurred
	Backtrace []BacktraceFrame // innermost call first
}

func (e *VMError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Code.ID(), e.Code.Title(), e.Message)
}

// Recoverable reports whether a live block may retry after this fault.
// Everything else signals a structural defect and is always fatal.
func (e *VMError) Recoverable() bool {
	return e != nil && (e.Code == diag.RunAssertionFailure || e.Code == diag.RunArithmeticError)
}

// Diagnostic converts the fault into a Runtime diagnostic.
func (e *VMError) Diagnostic(sev diag.Severity) diag.Diagnostic {
	d := diag.New(sev, e.Code, e.Span, e.Message)
	for _, fr := range e.Backtrace {
		d = d.WithNote(fr.Span, "in call to '"+fr.FuncName+"'")
	}
	return d
}

// FormatWithFiles renders the fault with resolved file:line:col positions.
func (e *VMError) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fault %s: %s\n", e.Code.ID(), e.Message)
	sb.WriteString("at ")
	sb.WriteString(formatSpan(e.Span, files))
	sb.WriteString("\n")
	if len(e.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, frame := range e.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s at %s\n", i, frame.FuncName, formatSpan(frame.Span, files))
		}
	}
	return sb.String()
}

func formatSpan(span source.Span, files *source.FileSet) string {
	if files == nil || files.Len() <= int(span.File) || (span.Start == 0 && span.End == 0) {
		return "<no-span>"
	}
	file := files.Get(span.File)
	start, _ := files.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", file.Path, start.Line, start.Col)
}

// errorBuilder builds faults with a backtrace of the current call stack.
type errorBuilder struct {
	vm *VM
}

func (eb *errorBuilder) makeError(code diag.Code, sp source.Span, msg string) *VMError {
	e := &VMError{Code: code, Message: msg, Span: sp}
	stack := eb.vm.stack
	e.Backtrace = make([]BacktraceFrame, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		e.Backtrace[len(stack)-1-i] = BacktraceFrame{FuncName: stack[i].fn, Span: stack[i].callSpan}
	}
	return e
}

func (eb *errorBuilder) assertionFailed(sp source.Span, msg string) *VMError {
	return eb.makeError(diag.RunAssertionFailure, sp, msg)
}

func (eb *errorBuilder) arithmetic(sp source.Span, format string, args ...any) *VMError {
	return eb.makeError(diag.RunArithmeticError, sp, fmt.Sprintf(format, args...))
}

func (eb *errorBuilder) undefinedVariable(sp source.Span, name string) *VMError {
	return eb.makeError(diag.RunUndefinedVariable, sp, fmt.Sprintf("undefined variable '%s'", name))
}

func (eb *errorBuilder) undefinedFunction(sp source.Span, name string) *VMError {
	return eb.makeError(diag.RunUndefinedFunction, sp, fmt.Sprintf("undefined function '%s'", name))
}

func (eb *errorBuilder) typeMismatch(sp source.Span, format string, args ...any) *VMError {
	return eb.makeError(diag.RunTypeMismatch, sp, fmt.Sprintf(format, args...))
}

func (eb *errorBuilder) stackOverflow(sp source.Span, depth int) *VMError {
	return eb.makeError(diag.RunStackOverflow, sp, fmt.Sprintf("call depth exceeded %d", depth))
}

func (eb *errorBuilder) snapshotFailed(sp source.Span, err error) *VMError {
	return eb.makeError(diag.RunSnapshotFailed, sp, "live snapshot: "+err.Error())
}

func (eb *errorBuilder) cancelled(sp source.Span, cause error) *VMError {
	return eb.makeError(diag.RunCancelled, sp, "evaluation cancelled: "+cause.Error())
}
