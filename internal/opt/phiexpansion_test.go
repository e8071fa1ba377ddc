package opt_test

import (
	"testing"

	"cinder/internal/ir"
	"cinder/internal/opt"
	"cinder/internal/types"
)

func registerPoint(m *ir.Module, bt types.Builtins) types.TypeID {
	point := m.Types.RegisterStruct("Point")
	m.Types.SetStructFields(point, []types.StructField{
		{Name: "x", Type: bt.Int},
		{Name: "y", Type: bt.Int},
	})
	return point
}

func TestSinksSingleFieldExtraction(t *testing.T) {
	m, bt := newTestModule()
	point := registerPoint(m, bt)

	f := m.NewFunc("f")
	entry := f.NewBlock()
	bb1 := f.NewBlock()
	phi := bb1.NewArg(point, ir.OwnershipNone)

	x := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 1)
	y := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 2)
	str := ir.NewBuilder(entry).CreateStructMake(noLoc, point, ir.OwnershipNone, x, y)
	ir.NewBuilder(entry).CreateBr(noLoc, bb1, str)

	extr := ir.NewBuilder(bb1).CreateStructExtract(noLoc, phi, 1, bt.Int)
	ir.NewBuilder(bb1).CreateReturn(noLoc, extr)

	if !opt.NewPhiExpansion().Run(f) {
		t.Fatal("single-field struct phi not expanded")
	}

	newArg := bb1.Arg(0)
	if newArg.Type() != bt.Int {
		t.Fatalf("argument type is %d, want the field type", newArg.Type())
	}
	if !phi.IsErased() {
		t.Fatal("original struct phi not erased")
	}
	if !extr.IsErased() {
		t.Fatal("consumer-side extraction not deleted")
	}
	// The extraction moved in front of the branch.
	br := entry.Terminator()
	sunk, ok := br.Operand(0).Get().(*ir.Instr)
	if !ok || sunk.Op() != ir.OpStructExtract {
		t.Fatalf("branch now forwards %T, want a sunk extraction", br.Operand(0).Get())
	}
	if sunk.Operand(0).Get() != ir.Value(str) || sunk.FieldIndex() != 1 {
		t.Fatal("sunk extraction reads the wrong aggregate or field")
	}
	if bb1.Terminator().Operand(0).Get() != ir.Value(newArg) {
		t.Fatal("return not rewired to the narrowed argument")
	}
	if err := ir.VerifyFunc(f); err != nil {
		t.Fatalf("expansion broke the function: %v", err)
	}
}

func TestExpandsPhiInCycle(t *testing.T) {
	m, bt := newTestModule()
	point := registerPoint(m, bt)

	f := m.NewFunc("f")
	entry := f.NewBlock()
	header := f.NewBlock()
	exit := f.NewBlock()
	phi := header.NewArg(point, ir.OwnershipNone)

	x := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 1)
	y := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 2)
	str := ir.NewBuilder(entry).CreateStructMake(noLoc, point, ir.OwnershipNone, x, y)
	ir.NewBuilder(entry).CreateBr(noLoc, header, str)

	// The phi feeds itself around the loop.
	fx := ir.NewBuilder(header).CreateStructExtract(noLoc, phi, 0, bt.Int)
	limit := ir.NewBuilder(header).CreateConst(noLoc, bt.Int, 10)
	cond := ir.NewBuilder(header).CreateBinary(noLoc, ir.BinLt, bt.Bool, fx, limit)
	ir.NewBuilder(header).CreateCondBr(noLoc, cond, header, []ir.Value{phi}, exit, nil)
	ir.NewBuilder(exit).CreateReturn(noLoc, nil)

	if !opt.NewPhiExpansion().Run(f) {
		t.Fatal("cyclic struct phi not expanded")
	}

	newArg := header.Arg(0)
	if newArg.Type() != bt.Int {
		t.Fatalf("argument type is %d, want the field type", newArg.Type())
	}
	// Around the back edge the narrowed value is forwarded as is; only
	// the loop entry extracts.
	if got := newArg.IncomingPhiValue(header); got != ir.Value(newArg) {
		t.Fatalf("back edge forwards %v, want the argument itself", got)
	}
	enter, ok := newArg.IncomingPhiValue(entry).(*ir.Instr)
	if !ok || enter.Op() != ir.OpStructExtract || enter.Operand(0).Get() != ir.Value(str) {
		t.Fatal("loop entry does not extract from the original aggregate")
	}
	if err := ir.VerifyFunc(f); err != nil {
		t.Fatalf("expansion broke the function: %v", err)
	}
}

func TestPeelsNestedStructs(t *testing.T) {
	m, bt := newTestModule()
	inner := m.Types.RegisterStruct("Inner")
	m.Types.SetStructFields(inner, []types.StructField{{Name: "v", Type: bt.Int}})
	outer := m.Types.RegisterStruct("Outer")
	m.Types.SetStructFields(outer, []types.StructField{{Name: "inner", Type: inner}})

	f := m.NewFunc("f")
	entry := f.NewBlock()
	bb1 := f.NewBlock()
	phi := bb1.NewArg(outer, ir.OwnershipNone)

	v := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 7)
	innerVal := ir.NewBuilder(entry).CreateStructMake(noLoc, inner, ir.OwnershipNone, v)
	outerVal := ir.NewBuilder(entry).CreateStructMake(noLoc, outer, ir.OwnershipNone, innerVal)
	ir.NewBuilder(entry).CreateBr(noLoc, bb1, outerVal)

	mid := ir.NewBuilder(bb1).CreateStructExtract(noLoc, phi, 0, inner)
	leaf := ir.NewBuilder(bb1).CreateStructExtract(noLoc, mid, 0, bt.Int)
	ir.NewBuilder(bb1).CreateReturn(noLoc, leaf)

	if !opt.NewPhiExpansion().Run(f) {
		t.Fatal("nested struct phi not expanded")
	}

	// Two peeling rounds later the argument is the leaf field.
	if got := bb1.Arg(0).Type(); got != bt.Int {
		t.Fatalf("argument type is %d, want int after both levels", got)
	}
	if !mid.IsErased() || !leaf.IsErased() {
		t.Fatal("consumer-side extractions not deleted")
	}
	if err := ir.VerifyFunc(f); err != nil {
		t.Fatalf("expansion broke the function: %v", err)
	}
}

func TestAbortsOnMixedFields(t *testing.T) {
	m, bt := newTestModule()
	point := registerPoint(m, bt)

	f := m.NewFunc("f")
	entry := f.NewBlock()
	bb1 := f.NewBlock()
	phi := bb1.NewArg(point, ir.OwnershipNone)

	x := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 1)
	y := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 2)
	str := ir.NewBuilder(entry).CreateStructMake(noLoc, point, ir.OwnershipNone, x, y)
	ir.NewBuilder(entry).CreateBr(noLoc, bb1, str)

	fx := ir.NewBuilder(bb1).CreateStructExtract(noLoc, phi, 0, bt.Int)
	fy := ir.NewBuilder(bb1).CreateStructExtract(noLoc, phi, 1, bt.Int)
	sum := ir.NewBuilder(bb1).CreateBinary(noLoc, ir.BinAdd, bt.Int, fx, fy)
	ir.NewBuilder(bb1).CreateReturn(noLoc, sum)

	if opt.NewPhiExpansion().Run(f) {
		t.Fatal("expanded a phi whose two fields are both read")
	}
	if bb1.Arg(0) != phi {
		t.Fatal("argument replaced despite the abort")
	}
}

func TestAbortsOnUnexpectedUse(t *testing.T) {
	m, bt := newTestModule()
	point := registerPoint(m, bt)

	f := m.NewFunc("f")
	entry := f.NewBlock()
	bb1 := f.NewBlock()
	phi := bb1.NewArg(point, ir.OwnershipNone)

	x := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 1)
	y := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 2)
	str := ir.NewBuilder(entry).CreateStructMake(noLoc, point, ir.OwnershipNone, x, y)
	ir.NewBuilder(entry).CreateBr(noLoc, bb1, str)

	fx := ir.NewBuilder(bb1).CreateStructExtract(noLoc, phi, 0, bt.Int)
	// The whole aggregate escapes into a call.
	ir.NewBuilder(bb1).CreateCall(noLoc, types.NoTypeID, ir.OwnershipNone, "sink", phi)
	ir.NewBuilder(bb1).CreateReturn(noLoc, fx)

	if opt.NewPhiExpansion().Run(f) {
		t.Fatal("expanded a phi that escapes into a call")
	}
}

func TestAbortsOnConditionUse(t *testing.T) {
	m, bt := newTestModule()
	point := registerPoint(m, bt)

	f := m.NewFunc("f")
	entry := f.NewBlock()
	bb1 := f.NewBlock()
	bb2 := f.NewBlock()
	bb3 := f.NewBlock()
	phi := bb1.NewArg(point, ir.OwnershipNone)

	x := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 1)
	y := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 2)
	str := ir.NewBuilder(entry).CreateStructMake(noLoc, point, ir.OwnershipNone, x, y)
	ir.NewBuilder(entry).CreateBr(noLoc, bb1, str)

	// The aggregate is both narrowed and tested: the condition slot of a
	// cond_br forwards nothing, so the phi cannot be rewritten.
	fx := ir.NewBuilder(bb1).CreateStructExtract(noLoc, phi, 0, bt.Int)
	ir.NewBuilder(bb1).CreateCondBr(noLoc, phi, bb2, nil, bb3, nil)
	ir.NewBuilder(bb2).CreateReturn(noLoc, fx)
	ir.NewBuilder(bb3).CreateReturn(noLoc, fx)

	if opt.NewPhiExpansion().Run(f) {
		t.Fatal("expanded a phi consumed as a branch condition")
	}
	if bb1.Arg(0) != phi || phi.IsErased() {
		t.Fatal("argument replaced despite the abort")
	}
	if fx.IsErased() {
		t.Fatal("extraction deleted despite the abort")
	}
}

func TestIgnoresDebugValueUses(t *testing.T) {
	m, bt := newTestModule()
	point := registerPoint(m, bt)

	f := m.NewFunc("f")
	entry := f.NewBlock()
	bb1 := f.NewBlock()
	phi := bb1.NewArg(point, ir.OwnershipNone)

	x := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 1)
	y := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 2)
	str := ir.NewBuilder(entry).CreateStructMake(noLoc, point, ir.OwnershipNone, x, y)
	ir.NewBuilder(entry).CreateBr(noLoc, bb1, str)

	dbg := ir.NewBuilder(bb1).CreateDebugValue(noLoc, phi, "p")
	fx := ir.NewBuilder(bb1).CreateStructExtract(noLoc, phi, 0, bt.Int)
	ir.NewBuilder(bb1).CreateReturn(noLoc, fx)

	if !opt.NewPhiExpansion().Run(f) {
		t.Fatal("a debug observation should not block the expansion")
	}
	if !dbg.IsErased() {
		t.Fatal("stale debug observation kept alive")
	}
	if got := bb1.Arg(0).Type(); got != bt.Int {
		t.Fatalf("argument type is %d, want the field type", got)
	}
	if err := ir.VerifyFunc(f); err != nil {
		t.Fatalf("expansion broke the function: %v", err)
	}
}
