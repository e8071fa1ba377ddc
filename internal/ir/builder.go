package ir

import (
	"cinder/internal/source"
	"cinder/internal/types"
)

// Builder inserts instructions at a fixed position inside a block.
// Consecutive creations keep their relative order. Every creation leaves
// use lists and predecessor links consistent before returning, so a pass
// may immediately re-query the mutated graph.
type Builder struct {
	block *Block
	pos   int
}

// NewBuilder returns a builder appending at the end of b.
func NewBuilder(b *Block) *Builder {
	return &Builder{block: b, pos: len(b.instrs)}
}

// NewBuilderBefore returns a builder inserting immediately before in.
func NewBuilderBefore(in *Instr) *Builder {
	b := in.block
	if b == nil {
		panic("ir: building before an erased instruction")
	}
	for i, cur := range b.instrs {
		if cur == in {
			return &Builder{block: b, pos: i}
		}
	}
	panic("ir: instruction not in its parent block")
}

// NewBuilderAtFront returns a builder inserting before the first
// instruction of b.
func NewBuilderAtFront(b *Block) *Builder {
	return &Builder{block: b}
}

func (bld *Builder) insert(in *Instr) *Instr {
	if in.op.IsTerminator() {
		if bld.block.Terminated() {
			panic("ir: block already terminated")
		}
		if bld.pos != len(bld.block.instrs) {
			panic("ir: terminator must be inserted last")
		}
	} else if t := bld.block.Terminator(); t != nil && bld.pos > len(bld.block.instrs)-1 {
		panic("ir: inserting past the terminator")
	}
	in.block = bld.block
	bld.block.instrs = append(bld.block.instrs, nil)
	copy(bld.block.instrs[bld.pos+1:], bld.block.instrs[bld.pos:])
	bld.block.instrs[bld.pos] = in
	bld.pos++
	return in
}

func (bld *Builder) newInstr(op Opcode, loc source.Span, typ types.TypeID, own Ownership, operands ...Value) *Instr {
	in := &Instr{op: op, loc: loc, typ: typ, own: own}
	bld.insert(in)
	for _, v := range operands {
		in.appendOperand(v)
	}
	return in
}

// CreateConst materializes an integer or boolean literal. Literals carry no
// ownership.
func (bld *Builder) CreateConst(loc source.Span, typ types.TypeID, val int64) *Instr {
	in := bld.newInstr(OpConst, loc, typ, OwnershipNone)
	in.constVal = val
	return in
}

// CreateBinary creates a pure two-operand operation.
func (bld *Builder) CreateBinary(loc source.Span, op BinaryOp, typ types.TypeID, lhs, rhs Value) *Instr {
	in := bld.newInstr(OpBinary, loc, typ, OwnershipNone, lhs, rhs)
	in.binop = op
	return in
}

// CreateStructMake builds an aggregate of the given type from field values.
func (bld *Builder) CreateStructMake(loc source.Span, typ types.TypeID, own Ownership, fields ...Value) *Instr {
	return bld.newInstr(OpStructMake, loc, typ, own, fields...)
}

// CreateStructExtract projects field out of agg. The projection borrows
// from a guaranteed aggregate and is trivial otherwise.
func (bld *Builder) CreateStructExtract(loc source.Span, agg Value, field int, typ types.TypeID) *Instr {
	own := OwnershipNone
	if agg.Ownership() == OwnershipGuaranteed {
		own = OwnershipGuaranteed
	}
	in := bld.newInstr(OpStructExtract, loc, typ, own, agg)
	in.field = field
	return in
}

// CreateEnumMake builds a tagged-union value. payload may be nil for
// payload-less cases.
func (bld *Builder) CreateEnumMake(loc source.Span, typ types.TypeID, own Ownership, tag int, payload Value) *Instr {
	var in *Instr
	if payload != nil {
		in = bld.newInstr(OpEnumMake, loc, typ, own, payload)
	} else {
		in = bld.newInstr(OpEnumMake, loc, typ, own)
	}
	in.field = tag
	return in
}

// CreateAlloc allocates a fresh cell of the given type.
func (bld *Builder) CreateAlloc(loc source.Span, typ types.TypeID) *Instr {
	return bld.newInstr(OpAlloc, loc, typ, OwnershipOwned)
}

// CreateLoad reads through addr.
func (bld *Builder) CreateLoad(loc source.Span, typ types.TypeID, addr Value) *Instr {
	return bld.newInstr(OpLoad, loc, typ, OwnershipNone, addr)
}

// CreateStore writes val through addr. No result.
func (bld *Builder) CreateStore(loc source.Span, val, addr Value) *Instr {
	return bld.newInstr(OpStore, loc, types.NoTypeID, OwnershipNone, val, addr)
}

// CreateCall invokes callee. typ may be NoTypeID for void calls.
func (bld *Builder) CreateCall(loc source.Span, typ types.TypeID, own Ownership, callee string, args ...Value) *Instr {
	in := bld.newInstr(OpCall, loc, typ, own, args...)
	in.name = callee
	return in
}

// CreateCopyValue duplicates v, yielding a new owned value.
func (bld *Builder) CreateCopyValue(loc source.Span, v Value) *Instr {
	return bld.newInstr(OpCopyValue, loc, v.Type(), OwnershipOwned, v)
}

// CreateDestroyValue ends the lifetime of v. The operand is
// lifetime-ending when v is owned.
func (bld *Builder) CreateDestroyValue(loc source.Span, v Value) *Instr {
	return bld.newInstr(OpDestroyValue, loc, types.NoTypeID, OwnershipNone, v)
}

// CreateDebugValue records a debug observation of v under name.
func (bld *Builder) CreateDebugValue(loc source.Span, v Value, name string) *Instr {
	in := bld.newInstr(OpDebugValue, loc, types.NoTypeID, OwnershipNone, v)
	in.name = name
	return in
}

// CreateBr terminates the block with an unconditional branch forwarding
// args to dest's arguments.
func (bld *Builder) CreateBr(loc source.Span, dest *Block, args ...Value) *Instr {
	in := bld.newInstr(OpBr, loc, types.NoTypeID, OwnershipNone, args...)
	in.succs = []*Block{dest}
	dest.addPred(bld.block)
	return in
}

// CreateCondBr terminates the block with a conditional branch. trueArgs and
// falseArgs are forwarded to the respective destination's arguments. The
// two destinations must differ, otherwise incoming phi operands would be
// ambiguous.
func (bld *Builder) CreateCondBr(loc source.Span, cond Value, trueDest *Block, trueArgs []Value, falseDest *Block, falseArgs []Value) *Instr {
	if trueDest == falseDest {
		panic("ir: cond_br with identical destinations")
	}
	operands := make([]Value, 0, 1+len(trueArgs)+len(falseArgs))
	operands = append(operands, cond)
	operands = append(operands, trueArgs...)
	operands = append(operands, falseArgs...)
	in := bld.newInstr(OpCondBr, loc, types.NoTypeID, OwnershipNone, operands...)
	in.numTrueArgs = len(trueArgs)
	in.succs = []*Block{trueDest, falseDest}
	trueDest.addPred(bld.block)
	falseDest.addPred(bld.block)
	return in
}

// CreateSwitchEnum terminates the block with a multi-way dispatch on value.
// caseTags aligns with dests; a destination block may declare a single
// argument receiving the case payload.
func (bld *Builder) CreateSwitchEnum(loc source.Span, value Value, caseTags []int, dests []*Block) *Instr {
	if len(caseTags) != len(dests) {
		panic("ir: switch_enum case/destination mismatch")
	}
	in := bld.newInstr(OpSwitchEnum, loc, types.NoTypeID, OwnershipNone, value)
	in.caseTags = append([]int(nil), caseTags...)
	in.succs = append([]*Block(nil), dests...)
	for _, d := range dests {
		d.addPred(bld.block)
	}
	return in
}

// CreateReturn terminates the block returning v, which may be nil for void
// functions.
func (bld *Builder) CreateReturn(loc source.Span, v Value) *Instr {
	if v != nil {
		return bld.newInstr(OpReturn, loc, types.NoTypeID, OwnershipNone, v)
	}
	return bld.newInstr(OpReturn, loc, types.NoTypeID, OwnershipNone)
}

// CreateUnreachable terminates the block with an unreachable marker.
func (bld *Builder) CreateUnreachable(loc source.Span) *Instr {
	return bld.newInstr(OpUnreachable, loc, types.NoTypeID, OwnershipNone)
}
