package ir

// Operand is a directed use edge from a user instruction to a used value.
// Operands are owned by their user and stay at a stable address for the
// user's lifetime.
type Operand struct {
	user           *Instr
	index          int
	value          Value
	lifetimeEnding bool
}

// User returns the instruction holding this operand.
func (op *Operand) User() *Instr {
	return op.user
}

// Index returns the operand's position in the user's operand list.
func (op *Operand) Index() int {
	return op.index
}

// Get resolves the used value. For an operand attached to a live user the
// result is always a live value.
func (op *Operand) Get() Value {
	return op.value
}

// IsLifetimeEnding reports whether this use consumes the value: after it,
// the value may not be referenced again without a prior duplication.
func (op *Operand) IsLifetimeEnding() bool {
	return op.lifetimeEnding
}

// Set rewires the edge to v: the previous value loses this use, v gains it.
// Both use lists are consistent when Set returns. The lifetime-ending flag
// is recomputed for v's ownership.
func (op *Operand) Set(v Value) {
	if op.value == v {
		return
	}
	if op.value != nil {
		op.value.removeUse(op)
	}
	op.value = v
	if v != nil {
		v.addUse(op)
		op.lifetimeEnding = op.user.consumesOperandAt(op.index) && v.Ownership() == OwnershipOwned
	} else {
		op.lifetimeEnding = false
	}
}
