package sema

import (
	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/types"
)

func (tc *typeChecker) checkExpr(id ast.ExprID, sc *scope) types.Kind {
	kind := tc.exprKind(id, sc)
	tc.result.ExprTypes[id] = kind
	return kind
}

func (tc *typeChecker) exprKind(id ast.ExprID, sc *scope) types.Kind {
	e := tc.builder.Exprs.Get(id)
	if e == nil {
		return types.KindAny
	}
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := tc.builder.Exprs.Literal(id)
		switch lit.Kind {
		case ast.ExprLitInt:
			return types.KindInt
		case ast.ExprLitFloat:
			return types.KindFloat
		case ast.ExprLitString:
			return types.KindString
		case ast.ExprLitBool:
			return types.KindBool
		}

	case ast.ExprIdent:
		ident, _ := tc.builder.Exprs.Ident(id)
		name := tc.name(ident.Name)
		tc.noteRead(name, e.Span, sc)
		if b, ok := sc.lookup(name); ok {
			return b.typ
		}
		tc.report(diag.SemaUndefinedVariable, e.Span, "undefined variable '%s'", name)
		return types.KindAny

	case ast.ExprGroup:
		g, _ := tc.builder.Exprs.Group(id)
		return tc.checkExpr(g.Inner, sc)

	case ast.ExprUnary:
		un, _ := tc.builder.Exprs.Unary(id)
		x := tc.valueExpr(un.Operand, sc)
		res, ok := types.Unary(un.Op, x)
		if !ok {
			tc.report(diag.SemaInvalidOperand, e.Span, "operator '%s' cannot be applied to %s", un.Op, x)
			return types.KindAny
		}
		return res

	case ast.ExprBinary:
		bin, _ := tc.builder.Exprs.Binary(id)
		l := tc.valueExpr(bin.Left, sc)
		r := tc.valueExpr(bin.Right, sc)
		res, ok := types.Binary(bin.Op, l, r)
		if !ok {
			tc.report(diag.SemaInvalidOperand, e.Span, "operator '%s' cannot be applied to %s and %s", bin.Op, l, r)
			if bin.Op.IsComparison() || bin.Op.IsLogical() {
				return types.KindBool
			}
			return types.KindAny
		}
		return res

	case ast.ExprCall:
		return tc.checkCall(id, e, sc)
	}
	return types.KindAny
}

func (tc *typeChecker) checkCall(id ast.ExprID, e *ast.Expr, sc *scope) types.Kind {
	call, _ := tc.builder.Exprs.Call(id)
	args := make([]types.Kind, len(call.Args))
	for i, arg := range call.Args {
		args[i] = tc.valueExpr(arg, sc)
	}

	name := tc.name(call.Callee)
	sig, ok := tc.result.Functions[name]
	if !ok {
		tc.report(diag.SemaUndefinedFunction, call.CalleeSpan, "call to undefined function '%s'", name)
		return types.KindAny
	}
	if len(args) != len(sig.Params) {
		fn, _ := tc.builder.Items.Fn(sig.Item)
		tc.reportWithNote(diag.SemaArgCount, e.Span, fn.NameSpan, "declared here",
			"function '%s' expects %d argument(s), got %d", name, len(sig.Params), len(args))
	} else {
		for i, arg := range args {
			if !arg.AssignableTo(sig.Params[i]) {
				tc.report(diag.SemaArgType, tc.builder.Exprs.Get(call.Args[i]).Span,
					"argument %d of '%s' must be %s, got %s", i+1, name, sig.Params[i], arg)
			}
		}
	}
	tc.noteCall(sig)
	ret := tc.returnType(sig)
	if tc.cur == nil {
		tc.checkReadsAtCall(sig, e.Span)
	}
	return ret
}
