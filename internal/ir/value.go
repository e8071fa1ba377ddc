package ir

import "cinder/internal/types"

// Value is a node of the def-use graph producing zero or one typed result.
// The two implementations are *Instr and *Argument. A Value's identity is
// its pointer; structural content is immutable once observable except
// through the explicit replace and erase operations.
type Value interface {
	// Type returns the result type, NoTypeID when the value produces
	// nothing.
	Type() types.TypeID
	// Ownership returns the lifetime discipline tag of the result.
	Ownership() Ownership
	// Uses returns the operands currently referencing this value. The
	// returned slice is the live use list; callers that mutate the graph
	// while iterating must copy it first.
	Uses() []*Operand
	// Parent returns the block the value belongs to, nil once erased.
	Parent() *Block

	addUse(op *Operand)
	removeUse(op *Operand)
}

// ReplaceAllUses rewires every use of old to point at v.
func ReplaceAllUses(old, v Value) {
	for {
		uses := old.Uses()
		if len(uses) == 0 {
			return
		}
		uses[len(uses)-1].Set(v)
	}
}

// AsPhi returns v as an argument if it is a true phi, nil otherwise.
func AsPhi(v Value) *Argument {
	if arg, ok := v.(*Argument); ok && arg.IsPhi() {
		return arg
	}
	return nil
}

// AsTerminatorResult returns v as an argument if it is a terminator result,
// nil otherwise.
func AsTerminatorResult(v Value) *Argument {
	if arg, ok := v.(*Argument); ok && arg.IsTerminatorResult() {
		return arg
	}
	return nil
}
