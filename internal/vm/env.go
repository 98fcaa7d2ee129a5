package vm

import (
	"resilient/internal/ast"
)

// Binding is what a name resolves to in a frame: either a plain value or a
// reference to the static slot of a `static let` declaration.
type Binding struct {
	Value  Value
	Static bool
	Slot   ast.StmtID
}

// Env is one scope frame. The global frame has no parent; a call frame is
// parented directly to the global frame; block bodies get child frames.
type Env struct {
	Vars   map[string]Binding
	Parent *Env
}

func NewEnv(parent *Env) *Env {
	return &Env{Vars: make(map[string]Binding), Parent: parent}
}

// lookup finds the frame that binds name.
func (e *Env) lookup(name string) (*Env, Binding, bool) {
	for cur := e; cur != nil; cur = cur.Parent {
		if b, ok := cur.Vars[name]; ok {
			return cur, b, true
		}
	}
	return nil, Binding{}, false
}

// chain lists e and its ancestors, innermost first.
func (e *Env) chain() []*Env {
	var out []*Env
	for cur := e; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// StaticSlots is the persistent storage of `static let` variables, keyed by
// the declaring statement. It is never snapshotted or rolled back.
type StaticSlots map[ast.StmtID]Value

func (vm *VM) read(env *Env, name string) (Value, bool) {
	_, b, ok := env.lookup(name)
	if !ok {
		return Value{}, false
	}
	if b.Static {
		return vm.statics[b.Slot], true
	}
	return b.Value, true
}

// write stores v into the existing binding of name. The stored kind never
// changes; int widens into a float binding.
func (vm *VM) write(env *Env, name string, v Value) (found, typed bool) {
	frame, b, ok := env.lookup(name)
	if !ok {
		return false, false
	}
	current := b.Value
	if b.Static {
		current = vm.statics[b.Slot]
	}
	v, ok = coerce(v, current.Kind)
	if !ok {
		return true, false
	}
	if b.Static {
		vm.statics[b.Slot] = v
		return true, true
	}
	b.Value = v
	frame.Vars[name] = b
	return true, true
}
