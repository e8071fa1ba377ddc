package opt

import (
	"cinder/internal/ir"
	"cinder/internal/source"
)

// RedundantPhiElimination removes block arguments that carry the same value
// as another argument of the same block. It handles cycles, so two
// equivalent loop induction variables collapse into one:
//
//	preheader:
//	  br header(%init, %init)
//	header(%phi1, %phi2):
//	  %next1 = add %phi1, %one
//	  %next2 = add %phi2, %one
//	  cond_br %cond, header(%next1, %next2), exit
//
// becomes
//
//	preheader:
//	  br header(%init)
//	header(%phi1):
//	  %next1 = add %phi1, %one
//	  %next2 = add %phi1, %one   // dead, left for later cleanup
//	  cond_br %cond, header(%next1), exit
//
// Dead or trivially equivalent leftovers are the business of DCE and CSE.
type RedundantPhiElimination struct {
	maxArgCombinations int
	maxEqualityChecks  int
}

func NewRedundantPhiElimination(cfg Config) *RedundantPhiElimination {
	return &RedundantPhiElimination{
		maxArgCombinations: cfg.MaxArgCombinations,
		maxEqualityChecks:  cfg.MaxEqualityChecks,
	}
}

func (e *RedundantPhiElimination) Name() string { return "redundant-phi-elim" }

func (e *RedundantPhiElimination) Run(f *ir.Func) bool {
	changed := false
	for _, b := range f.Blocks() {
		if e.optimizeArgs(b) {
			changed = true
		}
	}
	return changed
}

func (e *RedundantPhiElimination) optimizeArgs(block *ir.Block) bool {
	changed := false

	// The pairwise scan is quadratic in the argument count. Blocks with
	// many arguments are rare, so a flat combination budget keeps the
	// worst case bounded.
	numCombinations := 0
	for i1 := 0; i1 < block.NumArgs(); i1++ {
		for i2 := i1 + 1; i2 < block.NumArgs(); {
			numCombinations++
			if numCombinations > e.maxArgCombinations {
				return changed
			}

			arg1 := block.Arg(i1)
			arg2 := block.Arg(i2)
			if !arg1.IsPhi() || !arg2.IsPhi() {
				i2++
				continue
			}

			if !e.valuesAreEqual(arg1, arg2) {
				i2++
				continue
			}

			if !e.mergeArgs(block, i1, i2) {
				i2++
				continue
			}
			changed = true
		}
	}
	return changed
}

// mergeArgs rewires one of the two equal arguments onto the other and
// erases it. Which one survives depends on ownership: a none-ownership
// argument always wins over an owned one, since its uses need no lifetime
// bookkeeping. Reports false when the pair has to stay untouched.
func (e *RedundantPhiElimination) mergeArgs(block *ir.Block, i1, i2 int) bool {
	arg1 := block.Arg(i1)
	arg2 := block.Arg(i2)

	if !block.Parent().HasOwnership() {
		arg2.ReplaceAllUsesWith(arg1)
		block.EraseArg(i2)
		return true
	}

	own1 := arg1.Ownership()
	own2 := arg2.Ownership()
	switch {
	case own1 == ir.OwnershipOwned && own2 == ir.OwnershipOwned:
		// Two owned phis can only be equal if all incoming values have
		// none ownership; anything else would make the surviving phi
		// consumed twice. Replace the duplicate with a copy so each
		// former consumer still ends a distinct lifetime.
		if !hasOnlyNoneOwnershipIncomingValues(arg1) ||
			!hasOnlyNoneOwnershipIncomingValues(arg2) {
			return false
		}
		cp := ir.NewBuilderAtFront(block).CreateCopyValue(source.Synthesized(), arg1)
		arg2.ReplaceAllUsesWith(cp)
		eraseOwnedPhiArg(block, i2)
	case own1 == ir.OwnershipOwned && own2 == ir.OwnershipNone:
		if !hasOnlyNoneOwnershipIncomingValues(arg1) {
			return false
		}
		arg1.ReplaceAllUsesWith(arg2)
		eraseOwnedPhiArg(block, i1)
	case own1 == ir.OwnershipNone && own2 == ir.OwnershipOwned:
		if !hasOnlyNoneOwnershipIncomingValues(arg2) {
			return false
		}
		arg2.ReplaceAllUsesWith(arg1)
		eraseOwnedPhiArg(block, i2)
	default:
		arg2.ReplaceAllUsesWith(arg1)
		block.EraseArg(i2)
	}
	return true
}

// hasOnlyNoneOwnershipIncomingValues reports whether every incoming value
// of phi has none ownership, looking through incoming phis transitively.
func hasOnlyNoneOwnershipIncomingValues(phi *ir.Argument) bool {
	worklist := []*ir.Argument{phi}
	seen := map[*ir.Argument]bool{phi: true}

	for idx := 0; idx < len(worklist); idx++ {
		values, ok := worklist[idx].IncomingPhiValues()
		if !ok {
			return false
		}
		for _, incoming := range values {
			if incoming.Ownership() == ir.OwnershipNone {
				continue
			}
			if incomingPhi := ir.AsPhi(incoming); incomingPhi != nil {
				if !seen[incomingPhi] {
					seen[incomingPhi] = true
					worklist = append(worklist, incomingPhi)
				}
				continue
			}
			return false
		}
	}
	return true
}

// eraseOwnedPhiArg erases an owned phi argument, compensating each
// lifetime-ending incoming operand with a destroy in front of its branch.
// The argument must already be use-free.
func eraseOwnedPhiArg(block *ir.Block, idx int) {
	phi := block.Arg(idx)
	phi.VisitIncomingPhiOperands(func(op *ir.Operand) bool {
		if op.IsLifetimeEnding() {
			ir.NewBuilderBefore(op.User()).CreateDestroyValue(source.Synthesized(), op.Get())
		}
		return true
	})
	block.EraseArg(idx)
}

// valuePair keys a visited set of value pairs. Order matters: (a,b) and
// (b,a) are distinct, which only costs a few extra checks.
type valuePair struct {
	a, b ir.Value
}

// valuesAreEqual reports whether two values are structurally guaranteed to
// hold the same value on every execution. It walks the defs of both values
// in lockstep, so equal phi cycles compare equal. The check is
// conservative: exceeding the pair budget, side-effecting instructions, and
// allocations all report false.
func (e *RedundantPhiElimination) valuesAreEqual(val1, val2 ir.Value) bool {
	workList := []valuePair{{val1, val2}}
	handled := map[valuePair]bool{{val1, val2}: true}

	for len(workList) > 0 {
		// Cycles and long chains of defs would make this walk quadratic
		// over the whole scan, so cap the number of distinct pairs.
		if len(handled) > e.maxEqualityChecks {
			return false
		}

		pair := workList[len(workList)-1]
		workList = workList[:len(workList)-1]
		v1, v2 := pair.a, pair.b

		if v1 == v2 {
			continue
		}

		switch x1 := v1.(type) {
		case *ir.Argument:
			x2, ok := v2.(*ir.Argument)
			if !ok {
				return false
			}
			// Two distinct function arguments never hold the same value.
			if x1.Kind() != ir.ArgBlock || x2.Kind() != ir.ArgBlock {
				return false
			}
			argBlock := x1.Parent()
			if argBlock != x2.Parent() {
				return false
			}
			if x1.Type() != x2.Type() {
				return false
			}
			// A guaranteed phi could only be redundant if all incoming
			// values had none ownership, and eliminating it would need a
			// rebuilt borrow scope around the former consumers. Not
			// handled.
			if x1.Ownership() == ir.OwnershipGuaranteed ||
				x2.Ownership() == ir.OwnershipGuaranteed {
				return false
			}
			// All incoming values must be pairwise equal.
			for _, pred := range argBlock.Preds() {
				in1 := x1.IncomingPhiValue(pred)
				in2 := x2.IncomingPhiValue(pred)
				if in1 == nil || in2 == nil {
					return false
				}
				next := valuePair{in1, in2}
				if !handled[next] {
					handled[next] = true
					workList = append(workList, next)
				}
			}
		case *ir.Instr:
			x2, ok := v2.(*ir.Instr)
			if !ok {
				return false
			}
			// Side effects make the result depend on when the
			// instruction runs, not only on its operands.
			if x1.MemBehavior() != ir.MemNone {
				return false
			}
			// Two allocations never yield the same value, even when the
			// instructions look the same.
			if x1.IsAllocation() {
				return false
			}
			// Defer the operand comparison to the worklist.
			if !x1.IdenticalTo(x2, func(op1, op2 ir.Value) bool {
				next := valuePair{op1, op2}
				if !handled[next] {
					handled[next] = true
					workList = append(workList, next)
				}
				return true
			}) {
				return false
			}
		default:
			return false
		}
	}

	return true
}
