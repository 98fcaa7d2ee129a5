package sema

import (
	"resilient/internal/source"
	"resilient/internal/types"
)

type binding struct {
	typ  types.Kind
	decl source.Span
}

// scope is one lexical frame. Function bodies are parented to the global
// scope, never to the caller's.
type scope struct {
	parent *scope
	vars   map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]binding)}
}

func (s *scope) declare(name string, b binding) {
	s.vars[name] = b
}

func (s *scope) lookup(name string) (binding, bool) {
	b, _, ok := s.resolve(name)
	return b, ok
}

// resolve also returns the frame that declares name.
func (s *scope) resolve(name string) (binding, *scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, cur, true
		}
	}
	return binding{}, nil, false
}
