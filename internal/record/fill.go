package record

import (
	"encoding/binary"
	"math"

	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Fill writes literal lit into column colIdx of row, per the §4.1
// fill rules dispatched on (declared type, source literal).
func Fill(row Row, colIdx int, lit ast.Lit) error {
	col := &row.Table.Columns[colIdx]

	if lit.Kind == ast.LitNull {
		if col.NotNull {
			return oakerr.New(oakerr.NotNullViolation, "column %q is NOT NULL", col.Name)
		}
		row.SetNull(colIdx, true)
		return nil
	}
	row.SetNull(colIdx, false)

	switch {
	case col.Type == schema.Int32 && lit.Kind == ast.LitInt:
		writeInt32(row, colIdx, lit.Int)
		return nil

	case col.Type == schema.Bool && lit.Kind == ast.LitBool:
		off := row.fieldOffset(colIdx)
		if lit.Bool {
			row.Buf[off] = 1
		} else {
			row.Buf[off] = 0
		}
		return nil

	case col.Type == schema.Float32 && lit.Kind == ast.LitFloat:
		writeFloat32(row, colIdx, lit.Flt)
		return nil
	case col.Type == schema.Float32 && lit.Kind == ast.LitInt:
		writeFloat32(row, colIdx, float32(lit.Int))
		return nil

	case col.Type == schema.Char && lit.Kind == ast.LitStr:
		return writeStr(row, colIdx, col.N, lit.Str)
	case col.Type == schema.VarChar && lit.Kind == ast.LitStr:
		return writeStr(row, colIdx, col.N, lit.Str)

	case col.Type == schema.Date && lit.Kind == ast.LitStr:
		encoded, err := ParseDate(lit.Str)
		if err != nil {
			return err
		}
		writeInt32(row, colIdx, encoded)
		return nil

	default:
		return oakerr.NewTypeMismatch(bareTypeName(col.Type), litKindName(lit.Kind))
	}
}

func writeInt32(row Row, colIdx int, v int32) {
	off := row.fieldOffset(colIdx)
	binary.LittleEndian.PutUint32(row.Buf[off:], uint32(v))
}

func writeFloat32(row Row, colIdx int, v float32) {
	off := row.fieldOffset(colIdx)
	binary.LittleEndian.PutUint32(row.Buf[off:], math.Float32bits(v))
}

func writeStr(row Row, colIdx int, maxN int, s string) error {
	if len(s) > maxN {
		return oakerr.New(oakerr.StringTooLong, "value of length %d exceeds declared length %d for column %q",
			len(s), maxN, row.Table.Columns[colIdx].Name)
	}
	off := row.fieldOffset(colIdx)
	row.Buf[off] = byte(len(s))
	copy(row.Buf[off+1:], s)
	return nil
}

func bareTypeName(t schema.BareType) string {
	switch t {
	case schema.Int32:
		return "Int32"
	case schema.Bool:
		return "Bool"
	case schema.Float32:
		return "Float32"
	case schema.Char:
		return "Char"
	case schema.VarChar:
		return "VarChar"
	case schema.Date:
		return "Date"
	default:
		return "?"
	}
}

func litKindName(k ast.LitKind) string {
	switch k {
	case ast.LitNull:
		return "Null"
	case ast.LitInt:
		return "Int"
	case ast.LitBool:
		return "Bool"
	case ast.LitFloat:
		return "Float"
	case ast.LitStr:
		return "Str"
	default:
		return "?"
	}
}
