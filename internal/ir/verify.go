package ir

import (
	"errors"
	"fmt"

	"cinder/internal/types"
)

// Verify checks module invariants. Returns a joined error listing every
// violation found, nil when the module is well formed.
func Verify(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs() {
		if err := VerifyFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// VerifyFunc checks the invariants of a single function body: every block
// terminated, successor/predecessor symmetry, operand and use-list linkage,
// argument slots consistent, branch argument counts matching destination
// argument counts, and no reference to an erased node.
func VerifyFunc(f *Func) error {
	if f == nil || len(f.Blocks()) == 0 {
		return nil
	}
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(f.Entry().Preds()) > 0 {
		report("entry bb%d has predecessors", f.Entry().ID())
	}
	for _, b := range f.Blocks() {
		verifyBlock(f, b, report)
	}
	return errors.Join(errs...)
}

func verifyBlock(f *Func, b *Block, report func(string, ...any)) {
	t := b.Terminator()
	if t == nil {
		report("bb%d: unterminated block", b.ID())
		return
	}
	for i, in := range b.Instrs() {
		if in.Op().IsTerminator() != (i == len(b.Instrs())-1) {
			report("bb%d: terminator %s not in last position", b.ID(), in.Op())
		}
		verifyInstr(b, in, report)
	}
	for i, a := range b.Args() {
		if a.Parent() != b {
			report("bb%d: argument %d has wrong parent", b.ID(), i)
		}
		if a.Index() != i {
			report("bb%d: argument slot %d records index %d", b.ID(), i, a.Index())
		}
		if (a.Kind() == ArgFunction) != b.IsEntry() {
			report("bb%d: argument %d has kind inconsistent with block position", b.ID(), i)
		}
		verifyUseList(a, report)
	}
	for _, succ := range t.Succs() {
		if !succ.hasPred(b) {
			report("bb%d: successor bb%d does not record it as predecessor", b.ID(), succ.ID())
		}
	}
	for _, pred := range b.Preds() {
		found := false
		for _, s := range pred.Succs() {
			if s == b {
				found = true
			}
		}
		if !found {
			report("bb%d: predecessor bb%d does not branch to it", b.ID(), pred.ID())
		}
	}
	verifyTerminator(f, b, t, report)
}

func verifyInstr(b *Block, in *Instr, report func(string, ...any)) {
	if in.Parent() != b {
		report("bb%d: instruction %s has wrong parent", b.ID(), in.Op())
	}
	for i, op := range in.Operands() {
		if op.User() != in {
			report("bb%d: %s operand %d has wrong user", b.ID(), in.Op(), i)
		}
		if op.Index() != i {
			report("bb%d: %s operand slot %d records index %d", b.ID(), in.Op(), i, op.Index())
		}
		v := op.Get()
		if v == nil {
			report("bb%d: %s operand %d resolves to nothing", b.ID(), in.Op(), i)
			continue
		}
		if v.Parent() == nil {
			report("bb%d: %s operand %d references an erased value", b.ID(), in.Op(), i)
		}
		registered := false
		for _, u := range v.Uses() {
			if u == op {
				registered = true
			}
		}
		if !registered {
			report("bb%d: %s operand %d missing from the value's use list", b.ID(), in.Op(), i)
		}
	}
	if in.Type() != types.NoTypeID {
		verifyUseList(in, report)
	}
}

func verifyUseList(v Value, report func(string, ...any)) {
	for _, u := range v.Uses() {
		if u.Get() != v {
			report("use list entry does not point back at its value")
		}
		if u.User() == nil || u.User().IsErased() {
			report("use list entry held by an erased instruction")
		}
	}
}

func verifyTerminator(f *Func, b *Block, t *Instr, report func(string, ...any)) {
	switch t.Op() {
	case OpBr:
		if t.NumOperands() != t.Dest().NumArgs() {
			report("bb%d: br forwards %d values, bb%d declares %d arguments",
				b.ID(), t.NumOperands(), t.Dest().ID(), t.Dest().NumArgs())
		}
	case OpCondBr:
		if t.NumTrueArgs() != t.TrueDest().NumArgs() {
			report("bb%d: cond_br forwards %d values, bb%d declares %d arguments",
				b.ID(), t.NumTrueArgs(), t.TrueDest().ID(), t.TrueDest().NumArgs())
		}
		falseArgs := t.NumOperands() - 1 - t.NumTrueArgs()
		if falseArgs != t.FalseDest().NumArgs() {
			report("bb%d: cond_br forwards %d values, bb%d declares %d arguments",
				b.ID(), falseArgs, t.FalseDest().ID(), t.FalseDest().NumArgs())
		}
	case OpSwitchEnum:
		enum := t.Operand(0).Get()
		cases := f.Module().Types.EnumCases(enum.Type())
		if cases == nil {
			report("bb%d: switch_enum over non-enum value", b.ID())
		}
		for i, dest := range t.Succs() {
			tag := t.CaseTags()[i]
			if cases != nil && (tag < 0 || tag >= len(cases)) {
				report("bb%d: switch_enum case tag #%d out of range", b.ID(), tag)
			}
			if dest.NumArgs() > 1 {
				report("bb%d: switch_enum destination bb%d declares %d arguments",
					b.ID(), dest.ID(), dest.NumArgs())
			}
		}
	}
}
