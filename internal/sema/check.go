package sema

import (
	"fmt"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/source"
	"resilient/internal/types"
)

// Options configure a semantic pass over a file.
type Options struct {
	Reporter diag.Reporter
}

// Result stores semantic artefacts produced by the checker.
type Result struct {
	ExprTypes map[ast.ExprID]types.Kind
	Functions map[string]*FnSig
	Errors    int
}

// Check type-checks a parsed file. It never stops early: every problem in
// the file is reported through opts.Reporter in one run.
func Check(builder *ast.Builder, fileID ast.FileID, opts Options) Result {
	res := Result{
		ExprTypes: make(map[ast.ExprID]types.Kind),
		Functions: make(map[string]*FnSig),
	}
	if builder == nil || fileID == ast.NoFileID {
		return res
	}

	checker := typeChecker{
		builder:  builder,
		fileID:   fileID,
		reporter: opts.Reporter,
		result:   &res,
	}
	checker.run()
	return res
}

type typeChecker struct {
	builder  *ast.Builder
	fileID   ast.FileID
	reporter diag.Reporter
	result   *Result
	global   *scope

	// silent > 0 while a function body is walked only to infer its return
	// type; nothing is reported then.
	silent int

	// cur is the body being checked, nil during the top-level pass.
	cur *fnContext
	// topLevel holds the names declared by top-level let statements.
	topLevel map[string]bool
}

func (tc *typeChecker) run() {
	file := tc.builder.Files.Get(tc.fileID)
	if file == nil {
		return
	}
	tc.global = newScope(nil)
	tc.topLevel = make(map[string]bool)

	tc.collectSignatures(file)
	for _, itemID := range file.Items {
		if stmtID, ok := tc.builder.Items.Stmt(itemID); ok {
			if let, ok := tc.builder.Stmts.Let(stmtID); ok {
				tc.topLevel[tc.name(let.Name)] = true
			}
		}
	}

	for _, itemID := range file.Items {
		if stmtID, ok := tc.builder.Items.Stmt(itemID); ok {
			tc.checkStmt(stmtID, tc.global, nil)
		}
	}

	for _, itemID := range file.Items {
		fn, ok := tc.builder.Items.Fn(itemID)
		if !ok {
			continue
		}
		if sig := tc.result.Functions[tc.builder.Name(fn.Name)]; sig != nil && sig.Item == itemID {
			tc.checkFnBody(sig)
		}
	}
}

func (tc *typeChecker) report(code diag.Code, sp source.Span, format string, args ...any) {
	if tc.silent > 0 {
		return
	}
	tc.result.Errors++
	diag.ReportError(tc.reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (tc *typeChecker) reportWithNote(code diag.Code, sp source.Span, noteSpan source.Span, note string, format string, args ...any) {
	if tc.silent > 0 {
		return
	}
	tc.result.Errors++
	diag.ReportError(tc.reporter, code, sp, fmt.Sprintf(format, args...)).
		WithNote(noteSpan, note).
		Emit()
}

func (tc *typeChecker) name(id source.StringID) string {
	return tc.builder.Name(id)
}
