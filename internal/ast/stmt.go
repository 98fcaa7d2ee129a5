package ast

import (
	"resilient/internal/source"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtLet
	StmtAssign
	StmtAssert
	StmtLive
	StmtIf
	StmtWhile
	StmtReturn
	StmtExpr
	StmtPrint
)

var stmtKindNames = [...]string{
	StmtBlock:  "Block",
	StmtLet:    "Let",
	StmtAssign: "Assign",
	StmtAssert: "Assert",
	StmtLive:   "Live",
	StmtIf:     "If",
	StmtWhile:  "While",
	StmtReturn: "Return",
	StmtExpr:   "Expr",
	StmtPrint:  "Print",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "Stmt(?)"
}

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type BlockStmt struct {
	Stmts []StmtID
}

// LetStmt declares a binding. A static let owns a slot keyed by its StmtID.
type LetStmt struct {
	Name     source.StringID
	NameSpan source.Span
	Value    ExprID
	Static   bool
}

type AssignStmt struct {
	Name     source.StringID
	NameSpan source.Span
	Value    ExprID
}

// AssertStmt has an optional message (NoExprID when absent).
type AssertStmt struct {
	Cond    ExprID
	Message ExprID
}

type LiveStmt struct {
	Body StmtID // StmtBlock
}

// IfStmt: Else is NoStmtID, a StmtBlock, or a nested StmtIf for `else if`.
type IfStmt struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

type WhileStmt struct {
	Cond ExprID
	Body StmtID
}

type ReturnStmt struct {
	Value ExprID // NoExprID for a bare return
}

type ExprStmt struct {
	Expr ExprID
}

type PrintStmt struct {
	Args []ExprID
}

type Stmts struct {
	Arena   *Arena[Stmt]
	Blocks  *Arena[BlockStmt]
	Lets    *Arena[LetStmt]
	Assigns *Arena[AssignStmt]
	Asserts *Arena[AssertStmt]
	Lives   *Arena[LiveStmt]
	Ifs     *Arena[IfStmt]
	Whiles  *Arena[WhileStmt]
	Returns *Arena[ReturnStmt]
	Exprs   *Arena[ExprStmt]
	Prints  *Arena[PrintStmt]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Stmts{
		Arena:   NewArena[Stmt](capHint),
		Blocks:  NewArena[BlockStmt](small),
		Lets:    NewArena[LetStmt](small),
		Assigns: NewArena[AssignStmt](small),
		Asserts: NewArena[AssertStmt](small),
		Lives:   NewArena[LiveStmt](small),
		Ifs:     NewArena[IfStmt](small),
		Whiles:  NewArena[WhileStmt](small),
		Returns: NewArena[ReturnStmt](small),
		Exprs:   NewArena[ExprStmt](small),
		Prints:  NewArena[PrintStmt](small),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) payload(id StmtID, kind StmtKind) (uint32, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != kind {
		return 0, false
	}
	return uint32(st.Payload), true
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	return s.new(StmtBlock, span, s.Blocks.Allocate(BlockStmt{Stmts: append([]StmtID(nil), stmts...)}))
}

func (s *Stmts) Block(id StmtID) (*BlockStmt, bool) {
	p, ok := s.payload(id, StmtBlock)
	if !ok {
		return nil, false
	}
	return s.Blocks.Get(p), true
}

func (s *Stmts) NewLet(span source.Span, name source.StringID, nameSpan source.Span, value ExprID, static bool) StmtID {
	return s.new(StmtLet, span, s.Lets.Allocate(LetStmt{Name: name, NameSpan: nameSpan, Value: value, Static: static}))
}

func (s *Stmts) Let(id StmtID) (*LetStmt, bool) {
	p, ok := s.payload(id, StmtLet)
	if !ok {
		return nil, false
	}
	return s.Lets.Get(p), true
}

func (s *Stmts) NewAssign(span source.Span, name source.StringID, nameSpan source.Span, value ExprID) StmtID {
	return s.new(StmtAssign, span, s.Assigns.Allocate(AssignStmt{Name: name, NameSpan: nameSpan, Value: value}))
}

func (s *Stmts) Assign(id StmtID) (*AssignStmt, bool) {
	p, ok := s.payload(id, StmtAssign)
	if !ok {
		return nil, false
	}
	return s.Assigns.Get(p), true
}

func (s *Stmts) NewAssert(span source.Span, cond, message ExprID) StmtID {
	return s.new(StmtAssert, span, s.Asserts.Allocate(AssertStmt{Cond: cond, Message: message}))
}

func (s *Stmts) Assert(id StmtID) (*AssertStmt, bool) {
	p, ok := s.payload(id, StmtAssert)
	if !ok {
		return nil, false
	}
	return s.Asserts.Get(p), true
}

func (s *Stmts) NewLive(span source.Span, body StmtID) StmtID {
	return s.new(StmtLive, span, s.Lives.Allocate(LiveStmt{Body: body}))
}

func (s *Stmts) Live(id StmtID) (*LiveStmt, bool) {
	p, ok := s.payload(id, StmtLive)
	if !ok {
		return nil, false
	}
	return s.Lives.Get(p), true
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els StmtID) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(IfStmt{Cond: cond, Then: then, Else: els}))
}

func (s *Stmts) If(id StmtID) (*IfStmt, bool) {
	p, ok := s.payload(id, StmtIf)
	if !ok {
		return nil, false
	}
	return s.Ifs.Get(p), true
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body StmtID) StmtID {
	return s.new(StmtWhile, span, s.Whiles.Allocate(WhileStmt{Cond: cond, Body: body}))
}

func (s *Stmts) While(id StmtID) (*WhileStmt, bool) {
	p, ok := s.payload(id, StmtWhile)
	if !ok {
		return nil, false
	}
	return s.Whiles.Get(p), true
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(ReturnStmt{Value: value}))
}

func (s *Stmts) Return(id StmtID) (*ReturnStmt, bool) {
	p, ok := s.payload(id, StmtReturn)
	if !ok {
		return nil, false
	}
	return s.Returns.Get(p), true
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(ExprStmt{Expr: expr}))
}

func (s *Stmts) Expr(id StmtID) (*ExprStmt, bool) {
	p, ok := s.payload(id, StmtExpr)
	if !ok {
		return nil, false
	}
	return s.Exprs.Get(p), true
}

func (s *Stmts) NewPrint(span source.Span, args []ExprID) StmtID {
	return s.new(StmtPrint, span, s.Prints.Allocate(PrintStmt{Args: append([]ExprID(nil), args...)}))
}

func (s *Stmts) Print(id StmtID) (*PrintStmt, bool) {
	p, ok := s.payload(id, StmtPrint)
	if !ok {
		return nil, false
	}
	return s.Prints.Get(p), true
}
