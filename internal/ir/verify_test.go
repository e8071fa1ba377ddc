package ir_test

import (
	"strings"
	"testing"

	"cinder/internal/ir"
	"cinder/internal/types"
)

func TestVerifyWellFormedFunction(t *testing.T) {
	m, bt := newTestModule()
	f := m.NewFunc("loop")
	entry := f.NewBlock()
	header := f.NewBlock()
	exit := f.NewBlock()
	phi := header.NewArg(bt.Int, ir.OwnershipNone)

	init := ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 0)
	ir.NewBuilder(entry).CreateBr(noLoc, header, init)

	one := ir.NewBuilder(header).CreateConst(noLoc, bt.Int, 1)
	next := ir.NewBuilder(header).CreateBinary(noLoc, ir.BinAdd, bt.Int, phi, one)
	limit := ir.NewBuilder(header).CreateConst(noLoc, bt.Int, 10)
	cond := ir.NewBuilder(header).CreateBinary(noLoc, ir.BinLt, bt.Bool, next, limit)
	ir.NewBuilder(header).CreateCondBr(noLoc, cond, header, []ir.Value{next}, exit, nil)

	ir.NewBuilder(exit).CreateReturn(noLoc, nil)

	if err := ir.Verify(m); err != nil {
		t.Fatalf("well-formed module rejected: %v", err)
	}
}

func TestVerifyRejectsUnterminatedBlock(t *testing.T) {
	m, bt := newTestModule()
	f := m.NewFunc("f")
	entry := f.NewBlock()
	ir.NewBuilder(entry).CreateConst(noLoc, bt.Int, 1)

	err := ir.VerifyFunc(f)
	if err == nil {
		t.Fatal("unterminated block accepted")
	}
	if !strings.Contains(err.Error(), "unterminated") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyRejectsBranchArgMismatch(t *testing.T) {
	m, bt := newTestModule()
	f := m.NewFunc("f")
	entry := f.NewBlock()
	bb1 := f.NewBlock()
	phi := bb1.NewArg(bt.Int, ir.OwnershipNone)

	// The builder does not check arities; the verifier must.
	ir.NewBuilder(entry).CreateBr(noLoc, bb1)
	ir.NewBuilder(bb1).CreateReturn(noLoc, phi)

	err := ir.VerifyFunc(f)
	if err == nil {
		t.Fatal("branch with missing arguments accepted")
	}
	if !strings.Contains(err.Error(), "declares") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyRejectsSwitchTagOutOfRange(t *testing.T) {
	m, _ := newTestModule()
	enumID := m.Types.RegisterEnum("E")
	m.Types.SetEnumCases(enumID, []types.EnumCase{{Name: "only", Payload: types.NoTypeID}})

	f := m.NewFunc("f")
	entry := f.NewBlock()
	dest := f.NewBlock()

	en := ir.NewBuilder(entry).CreateEnumMake(noLoc, enumID, ir.OwnershipNone, 0, nil)
	ir.NewBuilder(entry).CreateSwitchEnum(noLoc, en, []int{3}, []*ir.Block{dest})
	ir.NewBuilder(dest).CreateReturn(noLoc, nil)

	err := ir.VerifyFunc(f)
	if err == nil {
		t.Fatal("out-of-range case tag accepted")
	}
	if !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("unexpected error: %v", err)
	}
}
