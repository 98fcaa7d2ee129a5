package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"resilient/internal/ast"
	"resilient/internal/source"
)

// CheckSpanInvariants runs span invariants on a parsed file:
// 1) file.Span is non-empty and within file content bounds
// 2) every item span is non-empty and contained in file.Span
// 3) every statement and expression span is contained in its parent's span
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node not found")
	}

	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End > lenContent {
		return fmt.Errorf("file span end beyond content: %d > %d", f.Span.End, lenContent)
	}

	c := checker{b: b}
	for _, it := range f.Items {
		item := b.Items.Get(it)
		if item == nil {
			return fmt.Errorf("nil item for id=%d", it)
		}
		if item.Span.Empty() {
			return fmt.Errorf("empty item span: %v", item.Span)
		}
		if !f.Span.Contains(item.Span) {
			return fmt.Errorf("item span %v is outside file span %v", item.Span, f.Span)
		}
		if fn, ok := b.Items.Fn(it); ok {
			c.stmt(fn.Body, item.Span)
		} else if st, ok := b.Items.Stmt(it); ok {
			c.stmt(st, item.Span)
		}
		if c.err != nil {
			return c.err
		}
	}
	return nil
}

type checker struct {
	b   *ast.Builder
	err error
}

func (c *checker) within(kind string, sp, parent source.Span) bool {
	if c.err != nil {
		return false
	}
	if sp.Empty() || !parent.Contains(sp) {
		c.err = fmt.Errorf("%s span %v is empty or outside parent %v", kind, sp, parent)
		return false
	}
	return true
}

func (c *checker) stmt(id ast.StmtID, parent source.Span) {
	st := c.b.Stmts.Get(id)
	if st == nil {
		c.err = fmt.Errorf("nil stmt for id=%d", id)
		return
	}
	if !c.within("stmt "+st.Kind.String(), st.Span, parent) {
		return
	}
	sp := st.Span
	switch st.Kind {
	case ast.StmtBlock:
		blk, _ := c.b.Stmts.Block(id)
		for _, s := range blk.Stmts {
			c.stmt(s, sp)
		}
	case ast.StmtLet:
		let, _ := c.b.Stmts.Let(id)
		c.expr(let.Value, sp)
	case ast.StmtAssign:
		as, _ := c.b.Stmts.Assign(id)
		c.expr(as.Value, sp)
	case ast.StmtAssert:
		as, _ := c.b.Stmts.Assert(id)
		c.expr(as.Cond, sp)
		if as.Message.IsValid() {
			c.expr(as.Message, sp)
		}
	case ast.StmtLive:
		live, _ := c.b.Stmts.Live(id)
		c.stmt(live.Body, sp)
	case ast.StmtIf:
		ifs, _ := c.b.Stmts.If(id)
		c.expr(ifs.Cond, sp)
		c.stmt(ifs.Then, sp)
		if ifs.Else.IsValid() {
			c.stmt(ifs.Else, sp)
		}
	case ast.StmtWhile:
		w, _ := c.b.Stmts.While(id)
		c.expr(w.Cond, sp)
		c.stmt(w.Body, sp)
	case ast.StmtReturn:
		r, _ := c.b.Stmts.Return(id)
		if r.Value.IsValid() {
			c.expr(r.Value, sp)
		}
	case ast.StmtExpr:
		e, _ := c.b.Stmts.Expr(id)
		c.expr(e.Expr, sp)
	case ast.StmtPrint:
		pr, _ := c.b.Stmts.Print(id)
		for _, a := range pr.Args {
			c.expr(a, sp)
		}
	}
}

func (c *checker) expr(id ast.ExprID, parent source.Span) {
	e := c.b.Exprs.Get(id)
	if e == nil {
		c.err = fmt.Errorf("nil expr for id=%d", id)
		return
	}
	if !c.within("expr "+e.Kind.String(), e.Span, parent) {
		return
	}
	switch e.Kind {
	case ast.ExprBinary:
		bin, _ := c.b.Exprs.Binary(id)
		c.expr(bin.Left, e.Span)
		c.expr(bin.Right, e.Span)
	case ast.ExprUnary:
		un, _ := c.b.Exprs.Unary(id)
		c.expr(un.Operand, e.Span)
	case ast.ExprGroup:
		g, _ := c.b.Exprs.Group(id)
		c.expr(g.Inner, e.Span)
	case ast.ExprCall:
		call, _ := c.b.Exprs.Call(id)
		for _, a := range call.Args {
			c.expr(a, e.Span)
		}
	}
}
