package ir_test

import (
	"strings"
	"testing"

	"cinder/internal/ir"
	"cinder/internal/types"
)

func newOwnedFixture(t *testing.T) (*ir.Module, types.Builtins, types.TypeID) {
	t.Helper()
	m, bt := newTestModule()
	box := m.Types.RegisterStruct("Box")
	m.Types.SetStructFields(box, []types.StructField{{Name: "v", Type: bt.Int}})
	return m, bt, box
}

func TestOwnershipAcceptsLinearLifetime(t *testing.T) {
	m, _, box := newOwnedFixture(t)
	f := m.NewFunc("f")
	f.SetHasOwnership(true)
	entry := f.NewBlock()

	v := ir.NewBuilder(entry).CreateCall(noLoc, box, ir.OwnershipOwned, "make_box")
	ir.NewBuilder(entry).CreateDestroyValue(noLoc, v)
	ir.NewBuilder(entry).CreateReturn(noLoc, nil)

	if err := ir.VerifyOwnership(f); err != nil {
		t.Fatalf("linear lifetime rejected: %v", err)
	}
}

func TestOwnershipRejectsDoubleConsume(t *testing.T) {
	m, _, box := newOwnedFixture(t)
	f := m.NewFunc("f")
	f.SetHasOwnership(true)
	entry := f.NewBlock()

	v := ir.NewBuilder(entry).CreateCall(noLoc, box, ir.OwnershipOwned, "make_box")
	ir.NewBuilder(entry).CreateDestroyValue(noLoc, v)
	ir.NewBuilder(entry).CreateDestroyValue(noLoc, v)
	ir.NewBuilder(entry).CreateReturn(noLoc, nil)

	err := ir.VerifyOwnership(f)
	if err == nil || !strings.Contains(err.Error(), "consumed twice") {
		t.Fatalf("double consume not reported: %v", err)
	}
}

func TestOwnershipRejectsLeakOnOnePath(t *testing.T) {
	m, bt, box := newOwnedFixture(t)
	f := m.NewFunc("f")
	f.SetHasOwnership(true)
	entry := f.NewBlock()
	clean := f.NewBlock()
	leaky := f.NewBlock()

	v := ir.NewBuilder(entry).CreateCall(noLoc, box, ir.OwnershipOwned, "make_box")
	cond := ir.NewBuilder(entry).CreateConst(noLoc, bt.Bool, 1)
	ir.NewBuilder(entry).CreateCondBr(noLoc, cond, clean, nil, leaky, nil)

	ir.NewBuilder(clean).CreateDestroyValue(noLoc, v)
	ir.NewBuilder(clean).CreateReturn(noLoc, nil)

	ir.NewBuilder(leaky).CreateReturn(noLoc, nil)

	err := ir.VerifyOwnership(f)
	if err == nil || !strings.Contains(err.Error(), "leaks at return") {
		t.Fatalf("leak not reported: %v", err)
	}
}

func TestOwnershipExemptsUnreachable(t *testing.T) {
	m, bt, box := newOwnedFixture(t)
	f := m.NewFunc("f")
	f.SetHasOwnership(true)
	entry := f.NewBlock()
	ok := f.NewBlock()
	dead := f.NewBlock()

	v := ir.NewBuilder(entry).CreateCall(noLoc, box, ir.OwnershipOwned, "make_box")
	cond := ir.NewBuilder(entry).CreateConst(noLoc, bt.Bool, 1)
	ir.NewBuilder(entry).CreateCondBr(noLoc, cond, ok, nil, dead, nil)

	ir.NewBuilder(ok).CreateDestroyValue(noLoc, v)
	ir.NewBuilder(ok).CreateReturn(noLoc, nil)

	ir.NewBuilder(dead).CreateUnreachable(noLoc)

	if err := ir.VerifyOwnership(f); err != nil {
		t.Fatalf("unreachable path should carry no obligation: %v", err)
	}
}

func TestOwnershipSkipsFunctionsWithoutOwnership(t *testing.T) {
	m, _, box := newOwnedFixture(t)
	f := m.NewFunc("f")
	entry := f.NewBlock()

	// An owned value leaks here, but the function opted out of tracking.
	ir.NewBuilder(entry).CreateCall(noLoc, box, ir.OwnershipOwned, "make_box")
	ir.NewBuilder(entry).CreateReturn(noLoc, nil)

	if err := ir.VerifyOwnership(f); err != nil {
		t.Fatalf("tracking applied to an opted-out function: %v", err)
	}
}
