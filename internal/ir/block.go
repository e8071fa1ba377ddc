package ir

import (
	"cinder/internal/types"
)

// Block is a basic block: an ordered argument list, an ordered instruction
// list ending in exactly one terminator, and the stored predecessor order
// the phi queries report incoming values in.
type Block struct {
	fn     *Func
	id     int
	args   []*Argument
	instrs []*Instr
	preds  []*Block
}

// Parent returns the owning function.
func (b *Block) Parent() *Func { return b.fn }

// ID returns a function-unique block number, stable across argument and
// instruction mutation.
func (b *Block) ID() int { return b.id }

func (b *Block) Args() []*Argument  { return b.args }
func (b *Block) Arg(i int) *Argument { return b.args[i] }
func (b *Block) NumArgs() int       { return len(b.args) }

func (b *Block) Instrs() []*Instr { return b.instrs }

// Terminator returns the block's terminator, nil while the block is still
// being built.
func (b *Block) Terminator() *Instr {
	if n := len(b.instrs); n > 0 && b.instrs[n-1].op.IsTerminator() {
		return b.instrs[n-1]
	}
	return nil
}

// Terminated reports whether the block ends in a terminator.
func (b *Block) Terminated() bool {
	return b.Terminator() != nil
}

// Preds returns the predecessor blocks in stored order.
func (b *Block) Preds() []*Block { return b.preds }

// Succs returns the successor blocks, taken from the terminator.
func (b *Block) Succs() []*Block {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	return t.succs
}

// IsEntry reports whether this is the function's entry block.
func (b *Block) IsEntry() bool {
	return b.fn != nil && b.fn.entry == b
}

// NewArg appends an argument of the given type and ownership. Entry-block
// arguments are function arguments; all others are block arguments.
func (b *Block) NewArg(typ types.TypeID, own Ownership) *Argument {
	kind := ArgBlock
	if b.IsEntry() {
		kind = ArgFunction
	}
	arg := &Argument{
		kind:  kind,
		block: b,
		index: len(b.args),
		typ:   typ,
		own:   own,
	}
	b.args = append(b.args, arg)
	return arg
}

// EraseArg removes the argument at index from the block and deletes the
// corresponding operand from every predecessor branch. Later arguments
// shift down one slot. The argument itself stays allocated and reports
// IsErased; it must have no remaining uses.
func (b *Block) EraseArg(index int) {
	arg := b.args[index]
	if len(arg.uses) > 0 {
		panic("ir: erasing a block argument that still has uses")
	}
	for _, pred := range b.preds {
		pred.Terminator().removeBranchOperand(b, index)
	}
	copy(b.args[index:], b.args[index+1:])
	b.args = b.args[:len(b.args)-1]
	for i := index; i < len(b.args); i++ {
		b.args[i].index = i
	}
	arg.block = nil
}

// ReplaceArg replaces the argument at index with a fresh argument of the
// given type and ownership, rewiring all uses of the old argument to the
// new one. Incoming branch operands keep their slot and are not touched;
// the caller is responsible for re-typing them. The old argument reports
// IsErased afterwards.
func (b *Block) ReplaceArg(index int, typ types.TypeID, own Ownership) *Argument {
	old := b.args[index]
	arg := &Argument{
		kind:  old.kind,
		block: b,
		index: index,
		typ:   typ,
		own:   own,
		loc:   old.loc,
	}
	b.args[index] = arg
	ReplaceAllUses(old, arg)
	old.block = nil
	return arg
}

func (b *Block) hasPred(pred *Block) bool {
	for _, p := range b.preds {
		if p == pred {
			return true
		}
	}
	return false
}

func (b *Block) addPred(pred *Block) {
	if b.hasPred(pred) {
		panic("ir: duplicate edge into block")
	}
	b.preds = append(b.preds, pred)
}

func (b *Block) removePred(pred *Block) {
	for i, p := range b.preds {
		if p == pred {
			b.preds = append(b.preds[:i], b.preds[i+1:]...)
			return
		}
	}
}

// removeInstr unlinks in from the instruction list, keeping order.
func (b *Block) removeInstr(in *Instr) {
	for i, cur := range b.instrs {
		if cur == in {
			b.instrs = append(b.instrs[:i], b.instrs[i+1:]...)
			return
		}
	}
	panic("ir: instruction not in its parent block")
}
