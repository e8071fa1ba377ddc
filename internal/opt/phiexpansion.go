package opt

import (
	"cinder/internal/ir"
	"cinder/internal/source"
	"cinder/internal/types"
)

// PhiExpansion replaces a struct phi argument by the single field the
// program actually reads, sinking the extraction to the predecessors:
//
//	  br bb(%str)
//	bb(%phi):
//	  %f = struct_extract %phi, #field  // the only use of %phi
//	  use %f
//
// becomes
//
//	  %f = struct_extract %str, #field
//	  br bb(%f)
//	bb(%phi):
//	  use %phi
//
// This also works when the phi sits in a def-use cycle, and applies
// repeatedly for nested structs.
type PhiExpansion struct{}

func NewPhiExpansion() *PhiExpansion { return &PhiExpansion{} }

func (p *PhiExpansion) Name() string { return "phi-expansion" }

func (p *PhiExpansion) Run(f *ir.Func) bool {
	changed := false
	for _, b := range f.Blocks() {
		for idx := 0; idx < b.NumArgs(); idx++ {
			if !b.Arg(idx).IsPhi() {
				continue
			}
			// Retry on the same slot to peel nested structs one level
			// at a time.
			for p.optimizeArg(b.Arg(idx)) {
				changed = true
			}
		}
	}
	return changed
}

func (p *PhiExpansion) optimizeArg(initialArg *ir.Argument) bool {
	collected := []*ir.Argument{initialArg}
	handled := map[*ir.Argument]bool{initialArg: true}

	haveField := false
	var field int
	var newType types.TypeID
	var loc source.Span

	// First step: collect the connected phi component and check that the
	// only real use across it is the extraction of one single field.
	for workIdx := 0; workIdx < len(collected); workIdx++ {
		arg := collected[workIdx]
		for _, use := range arg.Uses() {
			user := use.User()
			switch user.Op() {
			case ir.OpDebugValue:
				continue
			case ir.OpStructExtract:
				if haveField && user.FieldIndex() != field {
					return false
				}
				haveField = true
				field = user.FieldIndex()
				newType = user.Type()
				loc = user.Loc()
			case ir.OpBr, ir.OpCondBr:
				destArg := user.DestArgForOperand(use)
				// destArg is nil when the use is the branch condition
				// and not a forwarded block argument.
				if destArg == nil || !destArg.IsPhi() {
					return false
				}
				if !handled[destArg] {
					handled[destArg] = true
					collected = append(collected, destArg)
				}
			default:
				// An unexpected use, bail.
				return false
			}
		}
	}

	if !haveField {
		return false
	}

	// Second step: do the transformation.
	for _, arg := range collected {
		block := arg.Parent()
		newArg := block.ReplaceArg(arg.Index(), newType, arg.Ownership())

		// Collect the users first; the rewrite below mutates the use
		// list being iterated.
		var debugValueUsers []*ir.Instr
		var extractUsers []*ir.Instr
		for _, use := range newArg.Uses() {
			user := use.User()
			switch user.Op() {
			case ir.OpDebugValue:
				debugValueUsers = append(debugValueUsers, user)
			case ir.OpStructExtract:
				extractUsers = append(extractUsers, user)
			}
			// Branches are handled below through the incoming phi
			// operands.
		}

		for _, dvi := range debugValueUsers {
			dvi.Erase()
		}
		for _, sei := range extractUsers {
			sei.ReplaceAllUsesWith(sei.Operand(0).Get())
			sei.Erase()
		}

		// Move the extraction to the predecessors.
		incoming, ok := newArg.IncomingPhiOperands()
		if !ok {
			panic("opt: collected phi lost its incoming operands")
		}
		for _, op := range incoming {
			// Already rewritten through another collected phi?
			if op.Get().Type() == newType {
				continue
			}
			branch := op.User()
			extract := ir.NewBuilderBefore(branch).
				CreateStructExtract(loc, op.Get(), field, newType)
			op.Set(extract)
		}
	}
	return true
}
