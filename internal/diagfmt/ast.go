package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"resilient/internal/ast"
	"resilient/internal/source"
)

type treeNode struct {
	label    string
	children []*treeNode
}

func (n *treeNode) add(children ...*treeNode) *treeNode {
	n.children = append(n.children, children...)
	return n
}

func leaf(format string, args ...any) *treeNode {
	return &treeNode{label: fmt.Sprintf(format, args...)}
}

// FormatASTTree prints the file as an indented tree:
//
//	main.rsl (span: 1:1-3:2)
//	├─ Item[0]: Fn main (span: 1:1-3:2)
//	│  ├─ Params
//	...
func FormatASTTree(w io.Writer, builder *ast.Builder, fileID ast.FileID, fs *source.FileSet) error {
	root := buildFileTreeNode(builder, fileID, fs)
	var b strings.Builder
	b.WriteString(root.label)
	b.WriteString("\n")
	renderChildren(&b, root, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func renderChildren(b *strings.Builder, n *treeNode, prefix string) {
	for i, child := range n.children {
		last := i == len(n.children)-1
		connector, next := "├─ ", "│  "
		if last {
			connector, next = "└─ ", "   "
		}
		b.WriteString(prefix + connector + child.label + "\n")
		renderChildren(b, child, prefix+next)
	}
}

func buildFileTreeNode(b *ast.Builder, fileID ast.FileID, fs *source.FileSet) *treeNode {
	file := b.Files.Get(fileID)
	if file == nil {
		return leaf("File[%d]: <nil>", fileID)
	}
	header := "File"
	if validSpan(fs, file.Span) {
		header = fs.Get(file.Span.File).FormatPath("auto", fs.BaseDir())
	}
	root := leaf("%s (span: %s)", header, formatSpan(file.Span, fs))
	for idx, itemID := range file.Items {
		root.add(buildItemTreeNode(b, itemID, fs, idx))
	}
	return root
}

func buildItemTreeNode(b *ast.Builder, itemID ast.ItemID, fs *source.FileSet, idx int) *treeNode {
	item := b.Items.Get(itemID)
	if item == nil {
		return leaf("Item[%d]: <nil>", idx)
	}
	if fn, ok := b.Items.Fn(itemID); ok {
		node := leaf("Item[%d]: Fn %s (span: %s)", idx, b.Name(fn.Name), formatSpan(item.Span, fs))
		params := leaf("Params")
		for _, p := range fn.Params {
			params.add(leaf("%s %s", b.Name(p.Type), b.Name(p.Name)))
		}
		return node.add(params, stmtNode(b, fn.Body, fs, "Body"))
	}
	if stmtID, ok := b.Items.Stmt(itemID); ok {
		return stmtNode(b, stmtID, fs, fmt.Sprintf("Item[%d]", idx))
	}
	return leaf("Item[%d]: %s", idx, item.Kind)
}

func stmtNode(b *ast.Builder, id ast.StmtID, fs *source.FileSet, role string) *treeNode {
	st := b.Stmts.Get(id)
	if st == nil {
		return leaf("%s: <none>", role)
	}
	node := leaf("%s: %s (span: %s)", role, st.Kind, formatSpan(st.Span, fs))
	switch st.Kind {
	case ast.StmtBlock:
		blk, _ := b.Stmts.Block(id)
		for i, s := range blk.Stmts {
			node.add(stmtNode(b, s, fs, "["+strconv.Itoa(i)+"]"))
		}
	case ast.StmtLet:
		let, _ := b.Stmts.Let(id)
		node.add(leaf("Name: %s", b.Name(let.Name)))
		if let.Static {
			node.add(leaf("Static: true"))
		}
		node.add(exprNode(b, let.Value, "Value"))
	case ast.StmtAssign:
		as, _ := b.Stmts.Assign(id)
		node.add(leaf("Name: %s", b.Name(as.Name)), exprNode(b, as.Value, "Value"))
	case ast.StmtAssert:
		as, _ := b.Stmts.Assert(id)
		node.add(exprNode(b, as.Cond, "Cond"))
		if as.Message.IsValid() {
			node.add(exprNode(b, as.Message, "Message"))
		}
	case ast.StmtLive:
		live, _ := b.Stmts.Live(id)
		node.add(stmtNode(b, live.Body, fs, "Body"))
	case ast.StmtIf:
		ifs, _ := b.Stmts.If(id)
		node.add(exprNode(b, ifs.Cond, "Cond"), stmtNode(b, ifs.Then, fs, "Then"))
		if ifs.Else.IsValid() {
			node.add(stmtNode(b, ifs.Else, fs, "Else"))
		}
	case ast.StmtWhile:
		w, _ := b.Stmts.While(id)
		node.add(exprNode(b, w.Cond, "Cond"), stmtNode(b, w.Body, fs, "Body"))
	case ast.StmtReturn:
		ret, _ := b.Stmts.Return(id)
		if ret.Value.IsValid() {
			node.add(exprNode(b, ret.Value, "Value"))
		}
	case ast.StmtExpr:
		es, _ := b.Stmts.Expr(id)
		node.add(exprNode(b, es.Expr, "Expr"))
	case ast.StmtPrint:
		pr, _ := b.Stmts.Print(id)
		for i, arg := range pr.Args {
			node.add(exprNode(b, arg, "Arg["+strconv.Itoa(i)+"]"))
		}
	}
	return node
}

func exprNode(b *ast.Builder, id ast.ExprID, role string) *treeNode {
	return leaf("%s: %s", role, FormatExpr(b, id))
}

// FormatExpr renders an expression back to fully parenthesized source form.
func FormatExpr(b *ast.Builder, id ast.ExprID) string {
	e := b.Exprs.Get(id)
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ast.ExprIdent:
		ident, _ := b.Exprs.Ident(id)
		return b.Name(ident.Name)
	case ast.ExprLit:
		lit, _ := b.Exprs.Literal(id)
		return b.Name(lit.Raw)
	case ast.ExprBinary:
		bin, _ := b.Exprs.Binary(id)
		return "(" + FormatExpr(b, bin.Left) + " " + bin.Op.String() + " " + FormatExpr(b, bin.Right) + ")"
	case ast.ExprUnary:
		un, _ := b.Exprs.Unary(id)
		return un.Op.String() + FormatExpr(b, un.Operand)
	case ast.ExprGroup:
		g, _ := b.Exprs.Group(id)
		return FormatExpr(b, g.Inner)
	case ast.ExprCall:
		call, _ := b.Exprs.Call(id)
		args := make([]string, len(call.Args))
		for i, a := range call.Args {
			args[i] = FormatExpr(b, a)
		}
		return b.Name(call.Callee) + "(" + strings.Join(args, ", ") + ")"
	}
	return e.Kind.String()
}

func formatSpan(sp source.Span, fs *source.FileSet) string {
	if !validSpan(fs, sp) {
		return fmt.Sprintf("%d..%d", sp.Start, sp.End)
	}
	start, end := fs.Resolve(sp)
	return fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
}
