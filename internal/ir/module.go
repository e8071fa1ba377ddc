package ir

import "cinder/internal/types"

// Module owns functions and the type interner they share.
type Module struct {
	Types *types.Interner

	funcs  []*Func
	byName map[string]*Func
}

// NewModule creates an empty module over the given interner.
func NewModule(in *types.Interner) *Module {
	return &Module{
		Types:  in,
		byName: make(map[string]*Func, 8),
	}
}

// NewFunc registers an empty function body under name.
func (m *Module) NewFunc(name string) *Func {
	f := &Func{Name: name, mod: m}
	m.funcs = append(m.funcs, f)
	m.byName[name] = f
	return f
}

// Funcs returns the functions in registration order.
func (m *Module) Funcs() []*Func { return m.funcs }

// FuncByName returns the function registered under name, nil when absent.
func (m *Module) FuncByName(name string) *Func { return m.byName[name] }
