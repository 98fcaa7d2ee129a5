package sema

import (
	"slices"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/source"
	"resilient/internal/types"
)

type inferState uint8

const (
	inferPending inferState = iota
	inferRunning
	inferDone
)

// FnSig is the checked signature of a function declaration.
type FnSig struct {
	Name   string
	Item   ast.ItemID
	Params []types.Kind
	Return types.Kind

	state inferState
	// reads lists the globals the body touches, first use per name.
	reads   []globalRead
	callees []*FnSig
}

type globalRead struct {
	name string
	span source.Span
}

// collectSignatures registers every function before any body is checked, so
// calls may appear ahead of declarations.
func (tc *typeChecker) collectSignatures(file *ast.File) {
	for _, itemID := range file.Items {
		fn, ok := tc.builder.Items.Fn(itemID)
		if !ok {
			continue
		}
		name := tc.name(fn.Name)
		if prev, dup := tc.result.Functions[name]; dup {
			prevFn, _ := tc.builder.Items.Fn(prev.Item)
			tc.reportWithNote(diag.SemaDuplicateSymbol, fn.NameSpan, prevFn.NameSpan, "previous declaration here",
				"function '%s' is already declared", name)
			continue
		}

		sig := &FnSig{Name: name, Item: itemID, Params: make([]types.Kind, 0, len(fn.Params))}
		seen := make(map[string]bool, len(fn.Params))
		for _, param := range fn.Params {
			typeName := tc.name(param.Type)
			kind, known := types.Lookup(typeName)
			if !known {
				tc.report(diag.SemaUnknownType, param.TypeSpan, "unknown type '%s'", typeName)
				kind = types.KindAny
			}
			pname := tc.name(param.Name)
			if seen[pname] {
				tc.report(diag.SemaDuplicateParam, param.Span, "duplicate parameter '%s' in function '%s'", pname, name)
			}
			seen[pname] = true
			sig.Params = append(sig.Params, kind)
		}
		tc.result.Functions[name] = sig
	}
}

// returnType infers the return type on demand. A function whose inference is
// already running (recursion) is seen as any.
func (tc *typeChecker) returnType(sig *FnSig) types.Kind {
	switch sig.state {
	case inferDone:
		return sig.Return
	case inferRunning:
		return types.KindAny
	}
	tc.silent++
	tc.checkFnBody(sig)
	tc.silent--
	return sig.Return
}

// fnContext collects the return statements of the body being checked.
type fnContext struct {
	sig     *FnSig
	ret     types.Kind
	hasRet  bool
	checker *typeChecker
}

func (fc *fnContext) addReturn(kind types.Kind, stmt *ast.Stmt) {
	if !fc.hasRet {
		fc.ret, fc.hasRet = kind, true
		return
	}
	merged, ok := types.Unify(fc.ret, kind)
	if !ok {
		fc.checker.report(diag.SemaReturnType, stmt.Span,
			"function '%s' returns %s here but %s elsewhere", fc.sig.Name, kind, fc.ret)
		return
	}
	fc.ret = merged
}

// checkFnBody walks a body in a scope parented to the global scope and
// fixes the function's return type.
func (tc *typeChecker) checkFnBody(sig *FnSig) {
	fn, ok := tc.builder.Items.Fn(sig.Item)
	if !ok {
		return
	}
	sig.state = inferRunning
	sig.reads, sig.callees = nil, nil

	sc := newScope(tc.global)
	for i, param := range fn.Params {
		sc.declare(tc.name(param.Name), binding{typ: sig.Params[i], decl: param.Span})
	}
	fc := &fnContext{sig: sig, checker: tc}
	outer := tc.cur
	tc.cur = fc
	defer func() { tc.cur = outer }()
	if blk, ok := tc.builder.Stmts.Block(fn.Body); ok {
		for _, st := range blk.Stmts {
			tc.checkStmt(st, sc, fc)
		}
	}

	sig.Return = types.KindVoid
	if fc.hasRet {
		sig.Return = fc.ret
	}
	sig.state = inferDone
}

// noteRead records name as a global read of the function being checked
// when no frame of the body declares it.
func (tc *typeChecker) noteRead(name string, sp source.Span, sc *scope) {
	if tc.cur == nil {
		return
	}
	if _, owner, ok := sc.resolve(name); ok && owner != tc.global {
		return
	}
	sig := tc.cur.sig
	if slices.ContainsFunc(sig.reads, func(r globalRead) bool { return r.name == name }) {
		return
	}
	sig.reads = append(sig.reads, globalRead{name: name, span: sp})
}

func (tc *typeChecker) noteCall(callee *FnSig) {
	if tc.cur == nil || slices.Contains(tc.cur.sig.callees, callee) {
		return
	}
	tc.cur.sig.callees = append(tc.cur.sig.callees, callee)
}

// checkReadsAtCall reports globals that a top-level call reaches, through
// sig and everything it calls, before their top-level declaration has run.
// Names never declared at top level are left to the body check.
func (tc *typeChecker) checkReadsAtCall(sig *FnSig, callSpan source.Span) {
	seen := make(map[*FnSig]bool)
	reported := make(map[string]bool)
	var walk func(*FnSig)
	walk = func(fn *FnSig) {
		if seen[fn] {
			return
		}
		seen[fn] = true
		for _, r := range fn.reads {
			if reported[r.name] || !tc.topLevel[r.name] {
				continue
			}
			if _, declared := tc.global.vars[r.name]; declared {
				continue
			}
			reported[r.name] = true
			tc.reportWithNote(diag.SemaUndefinedVariable, callSpan, r.span, "read here in '"+fn.Name+"'",
				"call to '%s' uses global '%s' before it is declared", sig.Name, r.name)
		}
		for _, c := range fn.callees {
			walk(c)
		}
	}
	walk(sig)
}
