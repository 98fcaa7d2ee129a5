package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilient/internal/source"
)

func TestArenaIsOneBased(t *testing.T) {
	a := NewArena[int](0)
	require.Nil(t, a.Get(0))
	id := a.Allocate(7)
	assert.Equal(t, uint32(1), id)
	assert.Equal(t, 7, *a.Get(id))
	assert.Nil(t, a.Get(2))
	assert.Equal(t, 1, a.Len())
}

func TestBuilderRoundTrip(t *testing.T) {
	b := NewBuilder(Hints{})
	sp := source.Span{Start: 0, End: 10}
	x := b.StringsInterner.Intern("x")

	lit := b.Exprs.NewLiteral(sp, ExprLiteralData{Kind: ExprLitInt, Int: 1})
	let := b.Stmts.NewLet(sp, x, sp, lit, true)
	block := b.Stmts.NewBlock(sp, []StmtID{let})
	live := b.Stmts.NewLive(sp, block)

	file := b.NewFile(sp)
	b.PushItem(file, b.Items.NewStmtItem(live, sp))

	f := b.Files.Get(file)
	require.Len(t, f.Items, 1)
	stmtID, ok := b.Items.Stmt(f.Items[0])
	require.True(t, ok)
	l, ok := b.Stmts.Live(stmtID)
	require.True(t, ok)
	blk, ok := b.Stmts.Block(l.Body)
	require.True(t, ok)
	letData, ok := b.Stmts.Let(blk.Stmts[0])
	require.True(t, ok)
	assert.True(t, letData.Static)
	assert.Equal(t, "x", b.Name(letData.Name))

	_, ok = b.Stmts.If(stmtID)
	assert.False(t, ok, "kind-checked accessors must reject other kinds")
	_, ok = b.Items.Fn(f.Items[0])
	assert.False(t, ok)
}

func TestBinaryOpClassification(t *testing.T) {
	assert.True(t, ExprBinaryLessEq.IsComparison())
	assert.False(t, ExprBinaryAdd.IsComparison())
	assert.True(t, ExprBinaryLogicalOr.IsLogical())
	assert.Equal(t, "%", ExprBinaryMod.String())
	assert.Equal(t, "!", ExprUnaryNot.String())
}
