package ir

import (
	"fmt"
	"os"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"cinder/internal/source"
	"cinder/internal/types"
)

// Snapshot schema version - increment when the payload format changes.
const snapshotSchemaVersion uint16 = 1

// The snapshot is a flat msgpack payload: the nominal type tables in
// TypeID order, then every function with blocks, arguments and
// instructions. Values are referenced by a function-wide index assigned in
// block order, arguments before instruction results, matching the
// printer's numbering.

type snapshotPayload struct {
	Schema  uint16
	Structs []structRec
	Enums   []enumRec
	Funcs   []funcRec
}

type structRec struct {
	ID     uint32
	Name   string
	Fields []fieldRec
}

type fieldRec struct {
	Name string
	Type uint32
}

type enumRec struct {
	ID    uint32
	Name  string
	Cases []caseRec
}

type caseRec struct {
	Name    string
	Payload uint32
}

type funcRec struct {
	Name         string
	HasOwnership bool
	OptimizeNone bool
	Blocks       []blockRec
}

type blockRec struct {
	Args   []argRec
	Instrs []instrRec
}

type argRec struct {
	Type           uint32
	Own            uint8
	NoImplicitCopy bool
	Lifetime       uint8
}

type instrRec struct {
	Op          uint8
	Type        uint32
	Own         uint8
	Operands    []int32
	ConstVal    int64
	BinOp       uint8
	Field       int32
	Name        string
	NumTrueArgs int32
	Succs       []int32
	CaseTags    []int32
}

// EncodeModule serializes the module to the snapshot format.
func EncodeModule(m *Module) ([]byte, error) {
	payload := snapshotPayload{Schema: snapshotSchemaVersion}

	for id := types.TypeID(1); int(id) < m.Types.NumTypes(); id++ {
		tt := m.Types.MustLookup(id)
		switch tt.Kind {
		case types.KindStruct:
			rec := structRec{ID: uint32(id), Name: m.Types.Name(id)}
			for _, fl := range m.Types.StructFields(id) {
				rec.Fields = append(rec.Fields, fieldRec{Name: fl.Name, Type: uint32(fl.Type)})
			}
			payload.Structs = append(payload.Structs, rec)
		case types.KindEnum:
			rec := enumRec{ID: uint32(id), Name: m.Types.Name(id)}
			for _, c := range m.Types.EnumCases(id) {
				rec.Cases = append(rec.Cases, caseRec{Name: c.Name, Payload: uint32(c.Payload)})
			}
			payload.Enums = append(payload.Enums, rec)
		}
	}

	for _, f := range m.Funcs() {
		fr, err := encodeFunc(f)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", f.Name, err)
		}
		payload.Funcs = append(payload.Funcs, fr)
	}
	return msgpack.Marshal(&payload)
}

func encodeFunc(f *Func) (funcRec, error) {
	fr := funcRec{
		Name:         f.Name,
		HasOwnership: f.HasOwnership(),
		OptimizeNone: !f.ShouldOptimize(),
	}
	valueIdx := make(map[Value]int32)
	blockIdx := make(map[*Block]int32)
	next := int32(0)
	for i, b := range f.Blocks() {
		bi, err := safecast.Conv[int32](i)
		if err != nil {
			return funcRec{}, err
		}
		blockIdx[b] = bi
		for _, a := range b.Args() {
			valueIdx[a] = next
			next++
		}
		for _, in := range b.Instrs() {
			if in.Type() != types.NoTypeID {
				valueIdx[in] = next
				next++
			}
		}
	}

	for _, b := range f.Blocks() {
		br := blockRec{}
		for _, a := range b.Args() {
			br.Args = append(br.Args, argRec{
				Type:           uint32(a.Type()),
				Own:            uint8(a.Ownership()),
				NoImplicitCopy: a.NoImplicitCopy(),
				Lifetime:       uint8(a.Lifetime()),
			})
		}
		for _, in := range b.Instrs() {
			rec := instrRec{
				Op:          uint8(in.Op()),
				Type:        uint32(in.Type()),
				Own:         uint8(in.Ownership()),
				ConstVal:    in.ConstValue(),
				BinOp:       uint8(in.BinOp()),
				Field:       int32(in.FieldIndex()),
				Name:        in.Callee(),
				NumTrueArgs: int32(in.NumTrueArgs()),
			}
			for _, op := range in.Operands() {
				idx, ok := valueIdx[op.Get()]
				if !ok {
					return funcRec{}, fmt.Errorf("bb%d: operand references a value outside the function", b.ID())
				}
				rec.Operands = append(rec.Operands, idx)
			}
			for _, s := range in.Succs() {
				rec.Succs = append(rec.Succs, blockIdx[s])
			}
			for _, tag := range in.CaseTags() {
				rec.CaseTags = append(rec.CaseTags, int32(tag))
			}
			br.Instrs = append(br.Instrs, rec)
		}
		fr.Blocks = append(fr.Blocks, br)
	}
	return fr, nil
}

// DecodeModule rebuilds a module from snapshot bytes.
func DecodeModule(data []byte) (*Module, error) {
	var payload snapshotPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("snapshot: failed to parse: %w", err)
	}
	if payload.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("snapshot: schema %d not supported (want %d)", payload.Schema, snapshotSchemaVersion)
	}

	in := types.NewInterner()
	m := NewModule(in)
	if err := decodeTypes(in, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Funcs {
		if err := decodeFunc(m, &payload.Funcs[i]); err != nil {
			return nil, fmt.Errorf("function %s: %w", payload.Funcs[i].Name, err)
		}
	}
	return m, nil
}

// decodeTypes replays nominal registrations in ascending TypeID order so
// the rebuilt interner assigns the recorded IDs.
func decodeTypes(in *types.Interner, payload *snapshotPayload) error {
	type nominal struct {
		id     uint32
		isEnum bool
		pos    int
	}
	var order []nominal
	for i, rec := range payload.Structs {
		order = append(order, nominal{rec.ID, false, i})
	}
	for i, rec := range payload.Enums {
		order = append(order, nominal{rec.ID, true, i})
	}
	for swapped := true; swapped; { // small inputs, insertion-order sort
		swapped = false
		for i := 1; i < len(order); i++ {
			if order[i-1].id > order[i].id {
				order[i-1], order[i] = order[i], order[i-1]
				swapped = true
			}
		}
	}
	for _, n := range order {
		if n.isEnum {
			rec := payload.Enums[n.pos]
			id := in.RegisterEnum(rec.Name)
			if uint32(id) != rec.ID {
				return fmt.Errorf("snapshot: enum %s decoded with TypeID %d, recorded %d", rec.Name, id, rec.ID)
			}
			cases := make([]types.EnumCase, 0, len(rec.Cases))
			for _, c := range rec.Cases {
				cases = append(cases, types.EnumCase{Name: c.Name, Payload: types.TypeID(c.Payload)})
			}
			in.SetEnumCases(id, cases)
		} else {
			rec := payload.Structs[n.pos]
			id := in.RegisterStruct(rec.Name)
			if uint32(id) != rec.ID {
				return fmt.Errorf("snapshot: struct %s decoded with TypeID %d, recorded %d", rec.Name, id, rec.ID)
			}
			fields := make([]types.StructField, 0, len(rec.Fields))
			for _, fl := range rec.Fields {
				fields = append(fields, types.StructField{Name: fl.Name, Type: types.TypeID(fl.Type)})
			}
			in.SetStructFields(id, fields)
		}
	}
	return nil
}

func decodeFunc(m *Module, fr *funcRec) error {
	f := m.NewFunc(fr.Name)
	f.SetHasOwnership(fr.HasOwnership)
	f.SetOptimizeNone(fr.OptimizeNone)

	blocks := make([]*Block, len(fr.Blocks))
	for i := range fr.Blocks {
		blocks[i] = f.NewBlock()
		for _, ar := range fr.Blocks[i].Args {
			a := blocks[i].NewArg(types.TypeID(ar.Type), Ownership(ar.Own))
			a.SetNoImplicitCopy(ar.NoImplicitCopy)
			a.SetLifetime(LifetimeAnnotation(ar.Lifetime))
		}
	}

	// Instructions are created without operands first: an operand may
	// reference a result defined later in layout order (back edges).
	type pending struct {
		in  *Instr
		rec *instrRec
	}
	var wiring []pending
	for i, br := range fr.Blocks {
		for j := range br.Instrs {
			rec := &br.Instrs[j]
			in := &Instr{
				op:          Opcode(rec.Op),
				block:       blocks[i],
				typ:         types.TypeID(rec.Type),
				own:         Ownership(rec.Own),
				loc:         source.Synthesized(),
				constVal:    rec.ConstVal,
				binop:       BinaryOp(rec.BinOp),
				field:       int(rec.Field),
				name:        rec.Name,
				numTrueArgs: int(rec.NumTrueArgs),
			}
			for _, si := range rec.Succs {
				if si < 0 || int(si) >= len(blocks) {
					return fmt.Errorf("bb%d: successor index %d out of range", i, si)
				}
				in.succs = append(in.succs, blocks[si])
				blocks[si].addPred(blocks[i])
			}
			for _, tag := range rec.CaseTags {
				in.caseTags = append(in.caseTags, int(tag))
			}
			blocks[i].instrs = append(blocks[i].instrs, in)
			wiring = append(wiring, pending{in, rec})
		}
	}

	// The value table mirrors the encoder's numbering: per block,
	// arguments first, then result-producing instructions.
	var values []Value
	for _, b := range blocks {
		for _, a := range b.args {
			values = append(values, a)
		}
		for _, in := range b.instrs {
			if in.typ != types.NoTypeID {
				values = append(values, in)
			}
		}
	}
	for _, p := range wiring {
		for _, vi := range p.rec.Operands {
			if vi < 0 || int(vi) >= len(values) {
				return fmt.Errorf("operand index %d out of range", vi)
			}
			p.in.appendOperand(values[vi])
		}
	}
	return nil
}

// WriteModuleFile encodes m and writes it to path.
func WriteModuleFile(path string, m *Module) error {
	data, err := EncodeModule(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadModuleFile reads and decodes the snapshot at path.
func ReadModuleFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeModule(data)
}
