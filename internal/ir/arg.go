package ir

import (
	"cinder/internal/source"
	"cinder/internal/types"
)

// ArgKind discriminates the stored variants of a block argument.
type ArgKind uint8

const (
	// ArgBlock is an argument of a non-entry block. Whether it is a phi
	// or a terminator result is a structural property of the parent
	// block's predecessor terminators, never stored.
	ArgBlock ArgKind = iota
	// ArgFunction is an argument of the function entry block.
	ArgFunction
)

// LifetimeAnnotation is an explicit lifetime marker on a function argument.
type LifetimeAnnotation uint8

const (
	LifetimeDefault LifetimeAnnotation = iota
	LifetimeEagerMove
	LifetimeLexical
)

// Argument is a basic-block argument. For a phi, the value is selected by
// the predecessor actually taken; for a terminator result, the value is an
// intrinsic output of a multi-way terminator such as a switch_enum payload.
//
// Erasing an argument unlinks it from its block without deallocating it, so
// a pointer held across a transformation stays dereferenceable; re-check
// IsErased before reusing it.
type Argument struct {
	kind  ArgKind
	block *Block
	index int
	typ   types.TypeID
	own   Ownership
	loc   source.Span
	uses  []*Operand

	// Function-argument attributes.
	noImplicitCopy bool
	lifetime       LifetimeAnnotation
}

func (a *Argument) Kind() ArgKind        { return a.kind }
func (a *Argument) Type() types.TypeID   { return a.typ }
func (a *Argument) Ownership() Ownership { return a.own }
func (a *Argument) Loc() source.Span     { return a.loc }

// Parent returns the owning block, nil once erased.
func (a *Argument) Parent() *Block { return a.block }

// Index returns the argument's slot in its block. Only meaningful while
// not erased.
func (a *Argument) Index() int { return a.index }

// Uses returns the operands referencing this argument. The slice is the
// live use list.
func (a *Argument) Uses() []*Operand { return a.uses }

// IsErased reports whether the argument was unlinked from its block.
func (a *Argument) IsErased() bool { return a.block == nil }

func (a *Argument) NoImplicitCopy() bool            { return a.noImplicitCopy }
func (a *Argument) SetNoImplicitCopy(v bool)        { a.noImplicitCopy = v }
func (a *Argument) Lifetime() LifetimeAnnotation    { return a.lifetime }
func (a *Argument) SetLifetime(l LifetimeAnnotation) { a.lifetime = l }

// IsPhi reports whether every predecessor supplies this argument through an
// ordinary branch, as opposed to the argument being synthesized as a
// terminator's side output. A block without predecessors holds phis
// vacuously.
func (a *Argument) IsPhi() bool {
	if a.kind != ArgBlock || a.block == nil {
		return false
	}
	for _, pred := range a.block.preds {
		if !branchesTo(pred.Terminator()) {
			return false
		}
	}
	return true
}

// IsTerminatorResult reports whether this argument is produced as an
// intrinsic output of a multi-way terminator.
func (a *Argument) IsTerminatorResult() bool {
	if a.kind != ArgBlock || a.block == nil {
		return false
	}
	return !a.IsPhi()
}

// branchesTo classifies a predecessor terminator. Any terminator that can
// reach a successor must be an ordinary branch or a multi-way dispatch;
// anything else signals a broken CFG invariant elsewhere.
func branchesTo(t *Instr) bool {
	if t == nil {
		panic("ir: predecessor block without terminator")
	}
	switch t.op {
	case OpBr, OpCondBr:
		return true
	case OpSwitchEnum:
		return false
	default:
		panic("ir: block argument fed by non-branching terminator " + t.op.String())
	}
}

// IncomingPhiValue returns the value supplied by pred, or nil if the
// argument is not a phi or pred is not a predecessor.
func (a *Argument) IncomingPhiValue(pred *Block) Value {
	op := a.IncomingPhiOperand(pred)
	if op == nil {
		return nil
	}
	return op.Get()
}

// IncomingPhiOperand returns the operand in pred's terminator that supplies
// this argument, or nil if the argument is not a phi or pred is not a
// predecessor.
func (a *Argument) IncomingPhiOperand(pred *Block) *Operand {
	if !a.IsPhi() {
		return nil
	}
	if pred == nil || !a.block.hasPred(pred) {
		return nil
	}
	return pred.Terminator().branchOperandFor(a.block, a.index)
}

// IncomingPhiValues returns the incoming value per predecessor, in the
// block's stored predecessor order. ok is false when the argument is not a
// phi; a phi of a predecessor-less block yields an empty slice.
func (a *Argument) IncomingPhiValues() (values []Value, ok bool) {
	ok = a.VisitIncomingPhiOperands(func(op *Operand) bool {
		values = append(values, op.Get())
		return true
	})
	if !ok {
		return nil, false
	}
	return values, true
}

// IncomingPhiOperands returns the operand per predecessor supplying this
// argument, in the block's stored predecessor order. ok is false when the
// argument is not a phi.
func (a *Argument) IncomingPhiOperands() (operands []*Operand, ok bool) {
	ok = a.VisitIncomingPhiOperands(func(op *Operand) bool {
		operands = append(operands, op)
		return true
	})
	if !ok {
		return nil, false
	}
	return operands, true
}

// VisitIncomingPhiOperands calls visit with the incoming operand of every
// predecessor, in stored predecessor order. Iteration stops early when
// visit returns false. Returns false when the argument is not a phi or the
// visitor stopped the iteration.
func (a *Argument) VisitIncomingPhiOperands(visit func(*Operand) bool) bool {
	if !a.IsPhi() {
		return false
	}
	for _, pred := range a.block.preds {
		op := pred.Terminator().branchOperandFor(a.block, a.index)
		if op == nil {
			return false
		}
		if !visit(op) {
			return false
		}
	}
	return true
}

// SingleTerminatorOperands resolves, for each predecessor, the single
// concrete operand determining this argument's value. Unlike the phi
// queries this also works for terminator results by peeking through the
// terminator's payload projection: the value reported for a switch_enum
// payload argument is the switched enum itself, not the payload. ok is
// false when any predecessor cannot yield exactly one such operand.
func (a *Argument) SingleTerminatorOperands() (values []Value, ok bool) {
	if a.kind != ArgBlock || a.block == nil {
		return nil, false
	}
	for _, pred := range a.block.preds {
		t := pred.Terminator()
		switch t.op {
		case OpBr, OpCondBr:
			op := t.branchOperandFor(a.block, a.index)
			if op == nil {
				return nil, false
			}
			values = append(values, op.Get())
		case OpSwitchEnum:
			if a.index != 0 {
				return nil, false
			}
			values = append(values, t.operands[0].Get())
		default:
			return nil, false
		}
	}
	return values, true
}

// SingleTerminator returns the predecessor terminator when the parent block
// has exactly one predecessor whose terminator carries exactly one operand,
// nil otherwise. Fast path in front of SingleTerminatorOperands.
func (a *Argument) SingleTerminator() *Instr {
	if a.block == nil || len(a.block.preds) != 1 {
		return nil
	}
	t := a.block.preds[0].Terminator()
	if t == nil || len(t.operands) != 1 {
		return nil
	}
	return t
}

// TerminatorForResult returns the terminator producing this argument when
// it is a terminator result, nil otherwise.
func (a *Argument) TerminatorForResult() *Instr {
	if !a.IsTerminatorResult() {
		return nil
	}
	if len(a.block.preds) != 1 {
		return nil
	}
	return a.block.preds[0].Terminator()
}

// ForwardedTerminatorOperand returns the operand this terminator result
// forwards, nil when there is none. The argument must be a terminator
// result.
func (a *Argument) ForwardedTerminatorOperand() *Operand {
	t := a.TerminatorForResult()
	if t == nil {
		return nil
	}
	if t.op == OpSwitchEnum && a.index == 0 {
		return t.operands[0]
	}
	return nil
}

// ReplaceAllUsesWith rewires every use of the argument to v.
func (a *Argument) ReplaceAllUsesWith(v Value) {
	ReplaceAllUses(a, v)
}

func (a *Argument) addUse(op *Operand) {
	a.uses = append(a.uses, op)
}

func (a *Argument) removeUse(op *Operand) {
	for i, u := range a.uses {
		if u == op {
			a.uses[i] = a.uses[len(a.uses)-1]
			a.uses = a.uses[:len(a.uses)-1]
			return
		}
	}
	panic("ir: removing an operand that is not a registered use")
}
