package ast

import (
	"resilient/internal/source"
)

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	// ItemStmt wraps a top-level statement; Payload holds its StmtID.
	ItemStmt
)

func (k ItemKind) String() string {
	switch k {
	case ItemFn:
		return "Fn"
	case ItemStmt:
		return "Stmt"
	}
	return "Item(?)"
}

type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

type Items struct {
	Arena *Arena[Item]
	Fns   *Arena[FnItem]
}

func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Items{
		Arena: NewArena[Item](capHint),
		Fns:   NewArena[FnItem](capHint),
	}
}

func (i *Items) New(kind ItemKind, span source.Span, payload PayloadID) ItemID {
	return ItemID(i.Arena.Allocate(Item{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

// NewStmtItem wraps a top-level statement.
func (i *Items) NewStmtItem(stmt StmtID, span source.Span) ItemID {
	return i.New(ItemStmt, span, PayloadID(stmt))
}

// Stmt returns the wrapped statement of an ItemStmt.
func (i *Items) Stmt(id ItemID) (StmtID, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemStmt {
		return NoStmtID, false
	}
	return StmtID(item.Payload), true
}
