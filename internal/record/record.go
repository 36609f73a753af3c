// Package record implements the Record Layout component (§4.1): the
// fixed-slot, NULL-bitmap encoding of one row, and the typed
// read/fill operations scans and mutations build on.
package record

import (
	"encoding/binary"
	"math"

	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Rid names a row for its lifetime: a page id and a slot index (§3
// "Row identifier (Rid)", GLOSSARY). Rids are stable — deletes
// tombstone the slot and must not be reused while any index still
// references them.
type Rid struct {
	Page page.Pgno
	Slot int
}

// Row is a live view over one slot's bytes, interpreted against a
// table's schema. Callers must not retain a Row past the page pin
// that backs it (§5).
type Row struct {
	Buf   []byte // exactly table.RecordSize() bytes
	Table *schema.Table
}

func NewRow(buf []byte, table *schema.Table) Row {
	return Row{Buf: buf, Table: table}
}

// IsNull reports whether column colIdx is NULL in this row. Column
// index doubles as the NULL-bitmap bit index (§3).
func (r Row) IsNull(colIdx int) bool {
	byteIdx := colIdx / 8
	bit := byte(1) << uint(colIdx%8)
	return r.Buf[byteIdx]&bit != 0
}

// SetNull sets or clears column colIdx's NULL bit.
func (r Row) SetNull(colIdx int, v bool) {
	byteIdx := colIdx / 8
	bit := byte(1) << uint(colIdx%8)
	if v {
		r.Buf[byteIdx] |= bit
	} else {
		r.Buf[byteIdx] &^= bit
	}
}

func (r Row) fieldOffset(colIdx int) int {
	return r.Table.BitmapBytes() + r.Table.Columns[colIdx].Offset
}

// ReadInt32 reads a non-NULL Int32/Date column.
func (r Row) ReadInt32(colIdx int) int32 {
	off := r.fieldOffset(colIdx)
	return int32(binary.LittleEndian.Uint32(r.Buf[off:]))
}

// ReadBool reads a non-NULL Bool column.
func (r Row) ReadBool(colIdx int) bool {
	off := r.fieldOffset(colIdx)
	return r.Buf[off] != 0
}

// ReadFloat32 reads a non-NULL Float32 column.
func (r Row) ReadFloat32(colIdx int) float32 {
	off := r.fieldOffset(colIdx)
	bits := binary.LittleEndian.Uint32(r.Buf[off:])
	return math.Float32frombits(bits)
}

// ReadStr reads a non-NULL Char/VarChar column: a one-byte live
// length followed by N raw bytes, where bytes beyond the live length
// are unspecified (§3).
func (r Row) ReadStr(colIdx int) string {
	off := r.fieldOffset(colIdx)
	n := int(r.Buf[off])
	return string(r.Buf[off+1 : off+1+n])
}

// ReadDate reads a non-NULL Date column (the fixed 32-bit encoding).
func (r Row) ReadDate(colIdx int) int32 {
	return r.ReadInt32(colIdx)
}

// Value is a dynamically-typed column value, used by the predicate
// compiler, aggregator, and projector once a column's bare type has
// already been resolved.
type Value struct {
	Null bool
	Type schema.BareType
	I32  int32 // Int32 or Date
	B    bool
	F32  float32
	Str  string
}

// Get reads column colIdx as a Value, consulting the NULL bitmap first.
func (r Row) Get(colIdx int) Value {
	if r.IsNull(colIdx) {
		return Value{Null: true, Type: r.Table.Columns[colIdx].Type}
	}
	col := &r.Table.Columns[colIdx]
	switch col.Type {
	case schema.Int32:
		return Value{Type: schema.Int32, I32: r.ReadInt32(colIdx)}
	case schema.Bool:
		return Value{Type: schema.Bool, B: r.ReadBool(colIdx)}
	case schema.Float32:
		return Value{Type: schema.Float32, F32: r.ReadFloat32(colIdx)}
	case schema.Char, schema.VarChar:
		return Value{Type: col.Type, Str: r.ReadStr(colIdx)}
	case schema.Date:
		return Value{Type: schema.Date, I32: r.ReadDate(colIdx)}
	default:
		return Value{Null: true}
	}
}

// KeyBytes returns the index key bytes for a non-NULL value, encoded
// so that bytes.Compare over KeyBytes agrees with the value's own
// ordering (§3 "Index entry", §8 property #4: index-scan results must
// equal heap-scan results for the same predicate). Ints and floats are
// big-endian with the sign handled so two's-complement/IEEE-754
// ordering survives unsigned byte comparison; strings carry no length
// prefix so a shorter string that is a prefix of a longer one sorts
// first, matching lexicographic order.
func (v Value) KeyBytes() []byte {
	switch v.Type {
	case schema.Int32, schema.Date:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v.I32)^0x80000000)
		return b[:]
	case schema.Bool:
		if v.B {
			return []byte{1}
		}
		return []byte{0}
	case schema.Float32:
		bits := math.Float32bits(v.F32)
		if bits&0x80000000 != 0 {
			bits = ^bits
		} else {
			bits |= 0x80000000
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], bits)
		return b[:]
	case schema.Char, schema.VarChar:
		return []byte(v.Str)
	default:
		return nil
	}
}
