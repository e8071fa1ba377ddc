package ir

import (
	"fmt"
	"io"
	"strings"

	"cinder/internal/types"
)

// Fprint writes a deterministic textual rendering of the module.
func Fprint(w io.Writer, m *Module) error {
	for i, f := range m.Funcs() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := FprintFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

// FprintFunc writes a textual rendering of a single function. Values are
// numbered in block order, arguments before instruction results.
func FprintFunc(w io.Writer, f *Func) error {
	p := printer{f: f, names: make(map[Value]string)}
	p.number()
	return p.print(w)
}

// SprintFunc renders f to a string, for tests and debug logging.
func SprintFunc(f *Func) string {
	var sb strings.Builder
	if err := FprintFunc(&sb, f); err != nil {
		return "<print error: " + err.Error() + ">"
	}
	return sb.String()
}

type printer struct {
	f     *Func
	names map[Value]string
	next  int
}

func (p *printer) number() {
	for _, b := range p.f.Blocks() {
		for _, a := range b.Args() {
			p.names[a] = fmt.Sprintf("%%%d", p.next)
			p.next++
		}
		for _, in := range b.Instrs() {
			if in.Type() != types.NoTypeID {
				p.names[in] = fmt.Sprintf("%%%d", p.next)
				p.next++
			}
		}
	}
}

func (p *printer) name(v Value) string {
	if n, ok := p.names[v]; ok {
		return n
	}
	return "%?"
}

func (p *printer) typeName(v Value) string {
	return p.f.Module().Types.Name(v.Type())
}

func (p *printer) print(w io.Writer) error {
	attrs := ""
	if p.f.HasOwnership() {
		attrs = " [ossa]"
	}
	if !p.f.ShouldOptimize() {
		attrs += " [no_opt]"
	}
	if _, err := fmt.Fprintf(w, "func @%s%s {\n", p.f.Name, attrs); err != nil {
		return err
	}
	for _, b := range p.f.Blocks() {
		if err := p.printBlock(w, b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func (p *printer) printBlock(w io.Writer, b *Block) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bb%d", b.ID())
	if b.NumArgs() > 0 {
		sb.WriteByte('(')
		for i, a := range b.Args() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.name(a))
			sb.WriteString(" : ")
			if a.Ownership() != OwnershipNone {
				sb.WriteString("@" + a.Ownership().String() + " ")
			}
			sb.WriteString(p.f.Module().Types.Name(a.Type()))
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(':')
	if _, err := fmt.Fprintln(w, sb.String()); err != nil {
		return err
	}
	for _, in := range b.Instrs() {
		if _, err := fmt.Fprintf(w, "  %s\n", p.instrString(in)); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) operandList(in *Instr, from, to int) string {
	parts := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		parts = append(parts, p.name(in.Operand(i).Get()))
	}
	return strings.Join(parts, ", ")
}

func (p *printer) instrString(in *Instr) string {
	prefix := ""
	if in.Type() != types.NoTypeID {
		prefix = p.name(in) + " = "
	}
	switch in.Op() {
	case OpConst:
		return fmt.Sprintf("%sconst %d : %s", prefix, in.ConstValue(), p.typeName(in))
	case OpBinary:
		return fmt.Sprintf("%s%s %s : %s", prefix, in.BinOp(), p.operandList(in, 0, in.NumOperands()), p.typeName(in))
	case OpStructMake:
		return fmt.Sprintf("%sstruct_make (%s) : %s", prefix, p.operandList(in, 0, in.NumOperands()), p.typeName(in))
	case OpStructExtract:
		return fmt.Sprintf("%sstruct_extract %s, #%d : %s", prefix, p.name(in.Operand(0).Get()), in.FieldIndex(), p.typeName(in))
	case OpEnumMake:
		if in.NumOperands() > 0 {
			return fmt.Sprintf("%senum_make #%d (%s) : %s", prefix, in.FieldIndex(), p.name(in.Operand(0).Get()), p.typeName(in))
		}
		return fmt.Sprintf("%senum_make #%d : %s", prefix, in.FieldIndex(), p.typeName(in))
	case OpAlloc:
		return fmt.Sprintf("%salloc : %s", prefix, p.typeName(in))
	case OpLoad:
		return fmt.Sprintf("%sload %s : %s", prefix, p.name(in.Operand(0).Get()), p.typeName(in))
	case OpStore:
		return fmt.Sprintf("store %s to %s", p.name(in.Operand(0).Get()), p.name(in.Operand(1).Get()))
	case OpCall:
		return fmt.Sprintf("%scall @%s(%s)", prefix, in.Callee(), p.operandList(in, 0, in.NumOperands()))
	case OpCopyValue:
		return fmt.Sprintf("%scopy_value %s", prefix, p.name(in.Operand(0).Get()))
	case OpDestroyValue:
		return fmt.Sprintf("destroy_value %s", p.name(in.Operand(0).Get()))
	case OpDebugValue:
		return fmt.Sprintf("debug_value %s, name %q", p.name(in.Operand(0).Get()), in.Callee())
	case OpBr:
		if in.NumOperands() > 0 {
			return fmt.Sprintf("br bb%d(%s)", in.Dest().ID(), p.operandList(in, 0, in.NumOperands()))
		}
		return fmt.Sprintf("br bb%d", in.Dest().ID())
	case OpCondBr:
		trueEnd := 1 + in.NumTrueArgs()
		t := fmt.Sprintf("bb%d", in.TrueDest().ID())
		if in.NumTrueArgs() > 0 {
			t += "(" + p.operandList(in, 1, trueEnd) + ")"
		}
		fd := fmt.Sprintf("bb%d", in.FalseDest().ID())
		if in.NumOperands() > trueEnd {
			fd += "(" + p.operandList(in, trueEnd, in.NumOperands()) + ")"
		}
		return fmt.Sprintf("cond_br %s, %s, %s", p.name(in.Operand(0).Get()), t, fd)
	case OpSwitchEnum:
		var sb strings.Builder
		fmt.Fprintf(&sb, "switch_enum %s", p.name(in.Operand(0).Get()))
		for i, dest := range in.Succs() {
			fmt.Fprintf(&sb, ", case #%d: bb%d", in.CaseTags()[i], dest.ID())
		}
		return sb.String()
	case OpReturn:
		if in.NumOperands() > 0 {
			return "return " + p.name(in.Operand(0).Get())
		}
		return "return"
	case OpUnreachable:
		return "unreachable"
	default:
		return in.Op().String()
	}
}
