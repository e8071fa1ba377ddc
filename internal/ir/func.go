package ir

// Func is a function body: an entry block plus the blocks created after it,
// in creation order.
type Func struct {
	Name string

	mod    *Module
	blocks []*Block
	entry  *Block

	hasOwnership bool
	optimizeNone bool
	nextBlockID  int
}

// Module returns the owning module.
func (f *Func) Module() *Module { return f.mod }

// Blocks returns the function's blocks in creation order. The entry block
// is first.
func (f *Func) Blocks() []*Block { return f.blocks }

// Entry returns the entry block, nil until the first NewBlock call.
func (f *Func) Entry() *Block { return f.entry }

// NewBlock appends a fresh block. The first block created becomes the
// entry.
func (f *Func) NewBlock() *Block {
	b := &Block{fn: f, id: f.nextBlockID}
	f.nextBlockID++
	f.blocks = append(f.blocks, b)
	if f.entry == nil {
		f.entry = b
	}
	return b
}

// HasOwnership reports whether the linear ownership discipline is tracked
// for this body. Passes that delete owned values must compensate with
// destroys while it is set.
func (f *Func) HasOwnership() bool { return f.hasOwnership }

func (f *Func) SetHasOwnership(v bool) { f.hasOwnership = v }

// ShouldOptimize reports whether optimization passes may transform the
// body. A function opted out is left untouched by every pass.
func (f *Func) ShouldOptimize() bool { return !f.optimizeNone }

func (f *Func) SetOptimizeNone(v bool) { f.optimizeNone = v }
