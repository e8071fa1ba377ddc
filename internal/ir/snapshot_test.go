package ir_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"cinder/internal/ir"
	"cinder/internal/types"
)

// buildSnapshotFixture assembles a module exercising nominal types, phis, a
// switch dispatch and ownership, so the codec has something to chew on.
func buildSnapshotFixture(t *testing.T) *ir.Module {
	t.Helper()
	m, bt := newTestModule()
	pair := m.Types.RegisterStruct("Pair")
	m.Types.SetStructFields(pair, []types.StructField{
		{Name: "a", Type: bt.Int},
		{Name: "b", Type: bt.Int},
	})
	opt := m.Types.RegisterEnum("Opt")
	m.Types.SetEnumCases(opt, []types.EnumCase{
		{Name: "none", Payload: types.NoTypeID},
		{Name: "some", Payload: bt.Int},
	})

	f := m.NewFunc("select")
	f.SetHasOwnership(true)
	entry := f.NewBlock()
	someDest := f.NewBlock()
	noneDest := f.NewBlock()
	merge := f.NewBlock()
	payload := someDest.NewArg(bt.Int, ir.OwnershipNone)
	phi := merge.NewArg(bt.Int, ir.OwnershipNone)

	arg := entry.NewArg(opt, ir.OwnershipOwned)
	ir.NewBuilder(entry).CreateSwitchEnum(noLoc, arg, []int{1, 0}, []*ir.Block{someDest, noneDest})

	ir.NewBuilder(someDest).CreateBr(noLoc, merge, payload)

	zero := ir.NewBuilder(noneDest).CreateConst(noLoc, bt.Int, 0)
	ir.NewBuilder(noneDest).CreateBr(noLoc, merge, zero)

	ir.NewBuilder(merge).CreateReturn(noLoc, phi)

	g := m.NewFunc("noop")
	g.SetOptimizeNone(true)
	gEntry := g.NewBlock()
	ir.NewBuilder(gEntry).CreateReturn(noLoc, nil)

	return m
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := buildSnapshotFixture(t)

	data, err := ir.EncodeModule(m)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := ir.DecodeModule(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if err := ir.Verify(decoded); err != nil {
		t.Fatalf("decoded module fails verification: %v", err)
	}

	var before, after bytes.Buffer
	if err := ir.Fprint(&before, m); err != nil {
		t.Fatalf("print original: %v", err)
	}
	if err := ir.Fprint(&after, decoded); err != nil {
		t.Fatalf("print decoded: %v", err)
	}
	if before.String() != after.String() {
		t.Fatalf("roundtrip drift:\n--- before\n%s\n--- after\n%s", before.String(), after.String())
	}

	g := decoded.FuncByName("noop")
	if g == nil || g.ShouldOptimize() {
		t.Fatal("no_opt attribute lost in the roundtrip")
	}
	sel := decoded.FuncByName("select")
	if sel == nil || !sel.HasOwnership() {
		t.Fatal("ownership attribute lost in the roundtrip")
	}
	if !sel.Blocks()[3].Arg(0).IsPhi() {
		t.Fatal("decoded merge argument no longer classifies as phi")
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	if _, err := ir.DecodeModule([]byte("not a snapshot")); err == nil {
		t.Fatal("garbage decoded without error")
	}
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	m := buildSnapshotFixture(t)
	path := filepath.Join(t.TempDir(), "mod.cir")

	if err := ir.WriteModuleFile(path, m); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	decoded, err := ir.ReadModuleFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if decoded.FuncByName("select") == nil {
		t.Fatal("function missing after file roundtrip")
	}
}
