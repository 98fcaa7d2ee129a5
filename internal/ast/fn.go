package ast

import "resilient/internal/source"

// FnParam is a typed positional parameter, written `TYPE name`.
type FnParam struct {
	Name     source.StringID
	Type     source.StringID
	Span     source.Span
	TypeSpan source.Span
}

type FnItem struct {
	Name     source.StringID
	NameSpan source.Span
	Params   []FnParam
	Body     StmtID // StmtBlock
	Span     source.Span
}

func (i *Items) Fn(id ItemID) (*FnItem, bool) {
	item := i.Arena.Get(uint32(id))
	if item == nil || item.Kind != ItemFn {
		return nil, false
	}
	return i.Fns.Get(uint32(item.Payload)), true
}

func (i *Items) NewFn(name source.StringID, nameSpan source.Span, params []FnParam, body StmtID, span source.Span) ItemID {
	payload := i.Fns.Allocate(FnItem{
		Name:     name,
		NameSpan: nameSpan,
		Params:   append([]FnParam(nil), params...),
		Body:     body,
		Span:     span,
	})
	return i.New(ItemFn, span, PayloadID(payload))
}
