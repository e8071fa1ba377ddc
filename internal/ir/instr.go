package ir

import (
	"fmt"

	"cinder/internal/source"
	"cinder/internal/types"
)

// Opcode enumerates instruction kinds. Terminators are instructions too and
// occupy the last slot of their block.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// OpConst materializes an integer or boolean literal.
	OpConst
	// OpBinary is a pure two-operand arithmetic or comparison operation.
	OpBinary
	// OpStructMake builds an aggregate from per-field values.
	OpStructMake
	// OpStructExtract projects a single field out of a struct value.
	OpStructExtract
	// OpEnumMake builds a tagged-union value, optionally with a payload.
	OpEnumMake
	// OpAlloc allocates storage. Every execution yields a fresh identity.
	OpAlloc
	// OpLoad reads through an allocated cell.
	OpLoad
	// OpStore writes through an allocated cell.
	OpStore
	// OpCall invokes a named function; it may read and write memory.
	OpCall
	// OpCopyValue duplicates an owned value, yielding a new owned value.
	OpCopyValue
	// OpDestroyValue ends the lifetime of an owned value.
	OpDestroyValue
	// OpDebugValue observes a value for diagnostics; no runtime effect.
	OpDebugValue

	// Terminators.

	// OpBr branches unconditionally, forwarding one value per destination
	// argument.
	OpBr
	// OpCondBr branches on a boolean condition, forwarding values to
	// either destination's arguments.
	OpCondBr
	// OpSwitchEnum dispatches on an enum tag. A destination block may
	// declare one argument receiving the case payload; that argument is a
	// terminator result, not a phi.
	OpSwitchEnum
	// OpReturn leaves the function, optionally consuming a result value.
	OpReturn
	// OpUnreachable marks a point control flow can never reach.
	OpUnreachable
)

// IsTerminator reports whether the opcode ends a block.
func (op Opcode) IsTerminator() bool {
	return op >= OpBr
}

func (op Opcode) String() string {
	switch op {
	case OpConst:
		return "const"
	case OpBinary:
		return "binary"
	case OpStructMake:
		return "struct_make"
	case OpStructExtract:
		return "struct_extract"
	case OpEnumMake:
		return "enum_make"
	case OpAlloc:
		return "alloc"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpCall:
		return "call"
	case OpCopyValue:
		return "copy_value"
	case OpDestroyValue:
		return "destroy_value"
	case OpDebugValue:
		return "debug_value"
	case OpBr:
		return "br"
	case OpCondBr:
		return "cond_br"
	case OpSwitchEnum:
		return "switch_enum"
	case OpReturn:
		return "return"
	case OpUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
}

// BinaryOp selects the operation performed by OpBinary.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinEq
	BinLt
)

func (b BinaryOp) String() string {
	switch b {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	case BinEq:
		return "eq"
	case BinLt:
		return "lt"
	default:
		return fmt.Sprintf("BinaryOp(%d)", uint8(b))
	}
}

// MemBehavior describes how an instruction interacts with memory.
type MemBehavior uint8

const (
	MemNone MemBehavior = iota
	MemRead
	MemWrite
	MemReadWrite
)

// Instr is a single IR instruction. Result-producing instructions are
// Values; terminators additionally carry successor edges.
type Instr struct {
	op    Opcode
	block *Block
	typ   types.TypeID
	own   Ownership
	loc   source.Span

	operands []*Operand
	uses     []*Operand

	// Attributes, meaningful per opcode.
	constVal    int64
	binop       BinaryOp
	field       int
	name        string
	numTrueArgs int
	succs       []*Block
	caseTags    []int
}

func (in *Instr) Op() Opcode            { return in.op }
func (in *Instr) Type() types.TypeID    { return in.typ }
func (in *Instr) Ownership() Ownership  { return in.own }
func (in *Instr) Loc() source.Span      { return in.loc }
func (in *Instr) Parent() *Block        { return in.block }
func (in *Instr) NumOperands() int      { return len(in.operands) }
func (in *Instr) Operands() []*Operand  { return in.operands }
func (in *Instr) Operand(i int) *Operand { return in.operands[i] }

// Uses returns the operands referencing this instruction's result. The
// slice is the live use list.
func (in *Instr) Uses() []*Operand { return in.uses }

// IsErased reports whether the instruction was unlinked from its block.
func (in *Instr) IsErased() bool { return in.block == nil }

// ConstValue returns the literal of an OpConst.
func (in *Instr) ConstValue() int64 { return in.constVal }

// BinOp returns the operation of an OpBinary.
func (in *Instr) BinOp() BinaryOp { return in.binop }

// FieldIndex returns the projected field of an OpStructExtract, or the
// constructed tag of an OpEnumMake.
func (in *Instr) FieldIndex() int { return in.field }

// Callee returns the target name of an OpCall, or the variable name of an
// OpDebugValue.
func (in *Instr) Callee() string { return in.name }

// Succs returns the successor blocks of a terminator, nil otherwise.
func (in *Instr) Succs() []*Block { return in.succs }

// CaseTags returns the enum tags dispatched by an OpSwitchEnum, aligned
// with Succs.
func (in *Instr) CaseTags() []int { return in.caseTags }

// Dest returns the single destination of an OpBr.
func (in *Instr) Dest() *Block { return in.succs[0] }

// TrueDest and FalseDest return the destinations of an OpCondBr.
func (in *Instr) TrueDest() *Block  { return in.succs[0] }
func (in *Instr) FalseDest() *Block { return in.succs[1] }

// NumTrueArgs returns how many forwarded operands of an OpCondBr belong to
// the true destination.
func (in *Instr) NumTrueArgs() int { return in.numTrueArgs }

// MemBehavior returns the memory interaction of the instruction.
func (in *Instr) MemBehavior() MemBehavior {
	switch in.op {
	case OpLoad:
		return MemRead
	case OpStore, OpDestroyValue:
		return MemWrite
	case OpCall:
		return MemReadWrite
	default:
		return MemNone
	}
}

// IsAllocation reports whether the instruction mints a fresh identity on
// every execution. Allocations never compare equal to anything, themselves
// included.
func (in *Instr) IsAllocation() bool {
	return in.op == OpAlloc
}

// IdenticalTo reports whether the two instructions perform the same
// operation on operands that visitPair accepts pairwise. Opcode, result
// type, attributes and arity must all match; operand comparison is
// delegated so callers can run it through their own equivalence relation.
func (in *Instr) IdenticalTo(other *Instr, visitPair func(v1, v2 Value) bool) bool {
	if in.op != other.op || in.typ != other.typ || in.own != other.own {
		return false
	}
	if in.constVal != other.constVal || in.binop != other.binop ||
		in.field != other.field || in.name != other.name {
		return false
	}
	if len(in.operands) != len(other.operands) {
		return false
	}
	for i, op := range in.operands {
		if !visitPair(op.Get(), other.operands[i].Get()) {
			return false
		}
	}
	return true
}

// DestArgForOperand returns the destination block argument receiving op, or
// nil when op is not an outgoing branch argument (for example a cond_br
// condition). op must belong to this instruction.
func (in *Instr) DestArgForOperand(op *Operand) *Argument {
	if op.user != in {
		panic("ir: operand does not belong to this instruction")
	}
	switch in.op {
	case OpBr:
		if op.index < in.succs[0].NumArgs() {
			return in.succs[0].Arg(op.index)
		}
	case OpCondBr:
		if op.index == 0 {
			return nil
		}
		i := op.index - 1
		if i < in.numTrueArgs {
			if i < in.succs[0].NumArgs() {
				return in.succs[0].Arg(i)
			}
			return nil
		}
		i -= in.numTrueArgs
		if i < in.succs[1].NumArgs() {
			return in.succs[1].Arg(i)
		}
	}
	return nil
}

// branchOperandFor returns the operand feeding dest's argument slot index,
// or nil when this terminator does not supply it through ordinary
// branching.
func (in *Instr) branchOperandFor(dest *Block, index int) *Operand {
	switch in.op {
	case OpBr:
		if in.succs[0] == dest && index < len(in.operands) {
			return in.operands[index]
		}
	case OpCondBr:
		if in.succs[0] == dest && index < in.numTrueArgs {
			return in.operands[1+index]
		}
		if in.succs[1] == dest {
			pos := 1 + in.numTrueArgs + index
			if pos < len(in.operands) {
				return in.operands[pos]
			}
		}
	}
	return nil
}

// removeBranchOperand deletes the operand feeding dest's argument slot
// index and renumbers the remaining operands.
func (in *Instr) removeBranchOperand(dest *Block, index int) {
	var pos int
	switch in.op {
	case OpBr:
		if in.succs[0] != dest {
			panic("ir: branch does not target the argument's block")
		}
		pos = index
	case OpCondBr:
		switch dest {
		case in.succs[0]:
			pos = 1 + index
			in.numTrueArgs--
		case in.succs[1]:
			pos = 1 + in.numTrueArgs + index
		default:
			panic("ir: branch does not target the argument's block")
		}
	default:
		panic("ir: removing a phi operand from a non-branching terminator")
	}
	op := in.operands[pos]
	if op.value != nil {
		op.value.removeUse(op)
	}
	in.operands = append(in.operands[:pos], in.operands[pos+1:]...)
	for i := pos; i < len(in.operands); i++ {
		in.operands[i].index = i
	}
}

// ReplaceAllUsesWith rewires every use of the instruction's result to v.
func (in *Instr) ReplaceAllUsesWith(v Value) {
	ReplaceAllUses(in, v)
}

// Erase unlinks the instruction from its block and releases its operand
// edges. The instruction must have no remaining uses; it stays allocated so
// outstanding pointers can still check IsErased.
func (in *Instr) Erase() {
	if len(in.uses) > 0 {
		panic("ir: erasing an instruction that still has uses")
	}
	if in.block == nil {
		return
	}
	for _, op := range in.operands {
		if op.value != nil {
			op.value.removeUse(op)
			op.value = nil
		}
	}
	if in.op.IsTerminator() {
		for _, s := range in.succs {
			s.removePred(in.block)
		}
	}
	in.block.removeInstr(in)
	in.block = nil
}

func (in *Instr) addUse(op *Operand) {
	in.uses = append(in.uses, op)
}

func (in *Instr) removeUse(op *Operand) {
	for i, u := range in.uses {
		if u == op {
			in.uses[i] = in.uses[len(in.uses)-1]
			in.uses = in.uses[:len(in.uses)-1]
			return
		}
	}
	panic("ir: removing an operand that is not a registered use")
}

// consumesOperands reports whether the opcode forwards or consumes its
// operands' ownership, making uses of owned values lifetime-ending.
func consumesOperands(op Opcode) bool {
	switch op {
	case OpBr, OpCondBr, OpSwitchEnum, OpReturn, OpDestroyValue, OpStructMake, OpEnumMake, OpStore:
		return true
	default:
		return false
	}
}

// consumesOperandAt reports whether the operand slot at index consumes the
// ownership of its value.
func (in *Instr) consumesOperandAt(index int) bool {
	if in.op == OpStore && index > 0 {
		return false // only the stored value is consumed, not the address
	}
	return consumesOperands(in.op)
}

// appendOperand attaches v as the next operand of in, updating v's use
// list. The lifetime-ending flag follows the opcode's consumption rule.
func (in *Instr) appendOperand(v Value) *Operand {
	op := &Operand{
		user:           in,
		index:          len(in.operands),
		lifetimeEnding: in.consumesOperandAt(len(in.operands)) && v.Ownership() == OwnershipOwned,
	}
	in.operands = append(in.operands, op)
	op.value = v
	v.addUse(op)
	return op
}
