package types

import (
	"fmt"

	"fortio.org/safecast"
)

// StructField describes a single field inside a nominal struct type.
type StructField struct {
	Name string
	Type TypeID
}

// StructInfo stores metadata for a struct type.
type StructInfo struct {
	Name   string
	Fields []StructField
}

// EnumCase describes one tagged case of an enum type. Payload is NoTypeID
// for cases without an associated value.
type EnumCase struct {
	Name    string
	Payload TypeID
}

// EnumInfo stores metadata for an enum type.
type EnumInfo struct {
	Name  string
	Cases []EnumCase
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
func (in *Interner) RegisterStruct(name string) TypeID {
	slot := mustSlot(len(in.structs))
	in.structs = append(in.structs, StructInfo{Name: name})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

// SetStructFields stores the resolved field descriptors for the struct type.
func (in *Interner) SetStructFields(typeID TypeID, fields []StructField) {
	info := in.structInfo(typeID)
	if info == nil {
		return
	}
	info.Fields = append([]StructField(nil), fields...)
}

// StructFields returns the field descriptors for the TypeID, or nil when it
// is not a struct.
func (in *Interner) StructFields(typeID TypeID) []StructField {
	info := in.structInfo(typeID)
	if info == nil {
		return nil
	}
	return info.Fields
}

// StructFieldType returns the type of field idx of a struct type, or
// NoTypeID when typeID is not a struct or idx is out of range.
func (in *Interner) StructFieldType(typeID TypeID, idx int) TypeID {
	info := in.structInfo(typeID)
	if info == nil || idx < 0 || idx >= len(info.Fields) {
		return NoTypeID
	}
	return info.Fields[idx].Type
}

// RegisterEnum allocates a nominal enum type slot and returns its TypeID.
func (in *Interner) RegisterEnum(name string) TypeID {
	slot := mustSlot(len(in.enums))
	in.enums = append(in.enums, EnumInfo{Name: name})
	return in.internRaw(Type{Kind: KindEnum, Payload: slot})
}

// SetEnumCases stores the resolved case descriptors for the enum type.
func (in *Interner) SetEnumCases(typeID TypeID, cases []EnumCase) {
	info := in.enumInfo(typeID)
	if info == nil {
		return
	}
	info.Cases = append([]EnumCase(nil), cases...)
}

// EnumCases returns the case descriptors for the TypeID, or nil when it is
// not an enum.
func (in *Interner) EnumCases(typeID TypeID) []EnumCase {
	info := in.enumInfo(typeID)
	if info == nil {
		return nil
	}
	return info.Cases
}

// EnumCasePayload returns the payload type of case tag of an enum type, or
// NoTypeID when there is none.
func (in *Interner) EnumCasePayload(typeID TypeID, tag int) TypeID {
	info := in.enumInfo(typeID)
	if info == nil || tag < 0 || tag >= len(info.Cases) {
		return NoTypeID
	}
	return info.Cases[tag].Payload
}

func (in *Interner) structInfo(typeID TypeID) *StructInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindStruct {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[tt.Payload]
}

func (in *Interner) enumInfo(typeID TypeID) *EnumInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindEnum {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.enums) {
		return nil
	}
	return &in.enums[tt.Payload]
}

func mustSlot(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("nominal slot overflow: %w", err))
	}
	return slot
}
