package diag

import "resilient/internal/source"

// DedupReporter forwards each distinct diagnostic once. Parser recovery can
// stop on the same token more than once while resynchronizing, and the
// front end would otherwise report it twice.
type DedupReporter struct {
	next Reporter
	seen map[reportKey]bool
}

type reportKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: map[reportKey]bool{}}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil || r.next == nil {
		return
	}
	key := reportKey{code: code, sev: sev, span: primary, msg: msg}
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.next.Report(code, sev, primary, msg, notes)
}
