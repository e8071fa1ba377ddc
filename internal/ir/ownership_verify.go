package ir

import (
	"errors"
	"fmt"

	"cinder/internal/types"
)

// VerifyOwnership checks the linear lifetime discipline of a function with
// ownership tracking: every owned value is consumed exactly once on every
// path from its definition to a return, and never referenced after a
// lifetime-ending use. Blocks ending in unreachable are exempt from the
// consumption requirement.
func VerifyOwnership(f *Func) error {
	if f == nil || !f.HasOwnership() {
		return nil
	}
	var errs []error
	for _, b := range f.Blocks() {
		for _, a := range b.Args() {
			if a.Ownership() == OwnershipOwned {
				errs = append(errs, checkOwnedValue(f, a, b, 0)...)
			}
		}
		for i, in := range b.Instrs() {
			if in.Type() != types.NoTypeID && in.Ownership() == OwnershipOwned {
				errs = append(errs, checkOwnedValue(f, in, b, i+1)...)
			}
		}
	}
	return errors.Join(errs...)
}

type ownershipState struct {
	block    *Block
	consumed bool
}

// checkOwnedValue walks every path from the definition of v, tracking
// whether v has been consumed. start is the instruction index the scan
// begins at inside def.
func checkOwnedValue(f *Func, v Value, def *Block, start int) []error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	visited := make(map[ownershipState]bool)
	type frame struct {
		state ownershipState
		start int
	}
	stack := []frame{{ownershipState{def, false}, start}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[fr.state] {
			continue
		}
		visited[fr.state] = true

		b := fr.state.block
		consumed := fr.state.consumed
		instrs := b.Instrs()
		for i := fr.start; i < len(instrs); i++ {
			in := instrs[i]
			for _, op := range in.Operands() {
				if op.Get() != v {
					continue
				}
				if op.IsLifetimeEnding() {
					if consumed {
						report("bb%d: owned value consumed twice", b.ID())
						return errs
					}
					consumed = true
				} else if consumed {
					report("bb%d: owned value used after being consumed", b.ID())
					return errs
				}
			}
		}
		t := b.Terminator()
		switch t.Op() {
		case OpReturn:
			if !consumed {
				report("bb%d: owned value leaks at return", b.ID())
			}
		case OpUnreachable:
			// No consumption requirement on dead ends.
		default:
			for _, succ := range t.Succs() {
				stack = append(stack, frame{ownershipState{succ, consumed}, 0})
			}
		}
	}
	return errs
}
