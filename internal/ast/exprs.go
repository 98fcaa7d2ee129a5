package ast

import (
	"resilient/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena    *Arena[Expr]
	Idents   *Arena[ExprIdentData]
	Literals *Arena[ExprLiteralData]
	Binaries *Arena[ExprBinaryData]
	Unaries  *Arena[ExprUnaryData]
	Calls    *Arena[ExprCallData]
	Groups   *Arena[ExprGroupData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:    NewArena[Expr](capHint),
		Idents:   NewArena[ExprIdentData](capHint),
		Literals: NewArena[ExprLiteralData](capHint),
		Binaries: NewArena[ExprBinaryData](capHint),
		Unaries:  NewArena[ExprUnaryData](capHint / 4),
		Calls:    NewArena[ExprCallData](capHint / 4),
		Groups:   NewArena[ExprGroupData](capHint / 4),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(ExprIdentData{Name: name}))
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	p, ok := e.payload(id, ExprIdent)
	if !ok {
		return nil, false
	}
	return e.Idents.Get(p), true
}

func (e *Exprs) NewLiteral(span source.Span, data ExprLiteralData) ExprID {
	return e.new(ExprLit, span, e.Literals.Allocate(data))
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	p, ok := e.payload(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

func (e *Exprs) NewBinary(span source.Span, op ExprBinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) NewUnary(span source.Span, op ExprUnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand}))
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, callee source.StringID, calleeSpan source.Span, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{
		Callee:     callee,
		CalleeSpan: calleeSpan,
		Args:       append([]ExprID(nil), args...),
	}))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewGroup(span source.Span, inner ExprID) ExprID {
	return e.new(ExprGroup, span, e.Groups.Allocate(ExprGroupData{Inner: inner}))
}

func (e *Exprs) Group(id ExprID) (*ExprGroupData, bool) {
	p, ok := e.payload(id, ExprGroup)
	if !ok {
		return nil, false
	}
	return e.Groups.Get(p), true
}
