package sema

import (
	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/types"
)

// checkStmt checks one statement in sc. fc is nil at top level.
func (tc *typeChecker) checkStmt(id ast.StmtID, sc *scope, fc *fnContext) {
	st := tc.builder.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case ast.StmtBlock:
		tc.checkBlock(id, newScope(sc), fc)

	case ast.StmtLet:
		let, _ := tc.builder.Stmts.Let(id)
		kind := tc.valueExpr(let.Value, sc)
		sc.declare(tc.name(let.Name), binding{typ: kind, decl: let.NameSpan})

	case ast.StmtAssign:
		as, _ := tc.builder.Stmts.Assign(id)
		kind := tc.valueExpr(as.Value, sc)
		name := tc.name(as.Name)
		tc.noteRead(name, as.NameSpan, sc)
		b, ok := sc.lookup(name)
		if !ok {
			tc.report(diag.SemaUndefinedVariable, as.NameSpan, "assignment to undefined variable '%s'", name)
			return
		}
		if !kind.AssignableTo(b.typ) {
			tc.reportWithNote(diag.SemaAssignType, as.NameSpan, b.decl, "declared here as "+b.typ.String(),
				"cannot assign %s to '%s' of type %s", kind, name, b.typ)
		}

	case ast.StmtAssert:
		as, _ := tc.builder.Stmts.Assert(id)
		tc.expectCondition(as.Cond, sc, "assert condition")
		if as.Message.IsValid() {
			if kind := tc.checkExpr(as.Message, sc); !kind.AssignableTo(types.KindString) {
				tc.report(diag.SemaAssertMessageType, tc.builder.Exprs.Get(as.Message).Span,
					"assert message must be string, got %s", kind)
			}
		}

	case ast.StmtLive:
		live, _ := tc.builder.Stmts.Live(id)
		tc.checkBlock(live.Body, newScope(sc), fc)

	case ast.StmtIf:
		ifs, _ := tc.builder.Stmts.If(id)
		tc.expectCondition(ifs.Cond, sc, "if condition")
		tc.checkBlock(ifs.Then, newScope(sc), fc)
		if ifs.Else.IsValid() {
			tc.checkStmt(ifs.Else, sc, fc)
		}

	case ast.StmtWhile:
		w, _ := tc.builder.Stmts.While(id)
		tc.expectCondition(w.Cond, sc, "while condition")
		tc.checkBlock(w.Body, newScope(sc), fc)

	case ast.StmtReturn:
		ret, _ := tc.builder.Stmts.Return(id)
		kind := types.KindVoid
		if ret.Value.IsValid() {
			kind = tc.valueExpr(ret.Value, sc)
		}
		if fc != nil {
			fc.addReturn(kind, st)
		}

	case ast.StmtExpr:
		es, _ := tc.builder.Stmts.Expr(id)
		tc.checkExpr(es.Expr, sc)

	case ast.StmtPrint:
		pr, _ := tc.builder.Stmts.Print(id)
		for _, arg := range pr.Args {
			tc.valueExpr(arg, sc)
		}
	}
}

// checkBlock checks the statements of a block directly in sc.
func (tc *typeChecker) checkBlock(id ast.StmtID, sc *scope, fc *fnContext) {
	blk, ok := tc.builder.Stmts.Block(id)
	if !ok {
		tc.checkStmt(id, sc, fc)
		return
	}
	for _, st := range blk.Stmts {
		tc.checkStmt(st, sc, fc)
	}
}

func (tc *typeChecker) expectCondition(id ast.ExprID, sc *scope, what string) {
	kind := tc.checkExpr(id, sc)
	if !kind.AssignableTo(types.KindBool) {
		tc.report(diag.SemaConditionType, tc.builder.Exprs.Get(id).Span, "%s must be bool, got %s", what, kind)
	}
}

// valueExpr checks an expression whose value is used; void is rejected.
func (tc *typeChecker) valueExpr(id ast.ExprID, sc *scope) types.Kind {
	kind := tc.checkExpr(id, sc)
	if kind == types.KindVoid {
		tc.report(diag.SemaVoidValue, tc.builder.Exprs.Get(id).Span, "expression has no value")
		return types.KindAny
	}
	return kind
}
