// Package predicate implements the Predicate Compiler (§4.2): it turns
// a resolved AST expression into an opaque row-predicate closure, the
// shape the Filter Driver and Join Executor drive scans with.
package predicate

import (
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// ResolvedCol is an ast.ColRef after binding: the table it names (by
// position in the statement's FROM list), its column index, and its
// bare type. Predicate compilation never sees unresolved column names.
type ResolvedCol struct {
	Table int
	Col   int
	Type  schema.BareType
}

// RowPred is a compiled single-row predicate.
type RowPred func(row record.Row) bool

// PairPred is a compiled cross-table predicate, applied to one row
// from each of two tables (§4.4: "compile into a pair-predicate").
type PairPred func(l, r record.Row) bool

// Clause is one compiled single-table WHERE clause, carrying the
// metadata the Filter Driver needs to decide whether it can drive an
// index scan (§4.3).
type Clause struct {
	Pred RowPred

	// Indexable is true iff this clause is Cmp(op, L, lit) on a column
	// with a live index and op in {Lt,Le,Ge,Gt,Eq} — the only shapes the Filter Driver may
	// use to drive an index scan (§4.3: "For Ne and Like and
	// IsNotNull, do not use the index for selection").
	Indexable bool
	IndexCol  int
	Op        ast.CmpOp
	KeyBytes  []byte
}

// sameFamily reports whether two bare types may be compared
// column-to-column (§4.2: "numeric-numeric by exact type,
// Char/VarChar interchangeable, Date-Date").
func sameFamily(a, b schema.BareType) bool {
	if a == b {
		return true
	}
	isStr := func(t schema.BareType) bool { return t == schema.Char || t == schema.VarChar }
	return isStr(a) && isStr(b)
}

// litToValue converts a literal into a record.Value typed against
// colType, following the same (declared type, literal kind) dispatch
// the Fill operation uses (§4.1), since the predicate compiler and the
// record layout must agree on what counts as a type match.
func litToValue(lit ast.Lit, colType schema.BareType) (record.Value, error) {
	switch {
	case colType == schema.Int32 && lit.Kind == ast.LitInt:
		return record.Value{Type: schema.Int32, I32: lit.Int}, nil
	case colType == schema.Bool && lit.Kind == ast.LitBool:
		return record.Value{Type: schema.Bool, B: lit.Bool}, nil
	case colType == schema.Float32 && lit.Kind == ast.LitFloat:
		return record.Value{Type: schema.Float32, F32: lit.Flt}, nil
	case colType == schema.Float32 && lit.Kind == ast.LitInt:
		return record.Value{Type: schema.Float32, F32: float32(lit.Int)}, nil
	case (colType == schema.Char || colType == schema.VarChar) && lit.Kind == ast.LitStr:
		return record.Value{Type: colType, Str: lit.Str}, nil
	case colType == schema.Date && lit.Kind == ast.LitStr:
		days, err := record.ParseDate(lit.Str)
		if err != nil {
			return record.Value{}, err
		}
		return record.Value{Type: schema.Date, I32: days}, nil
	default:
		return record.Value{}, oakerr.New(oakerr.RecordLitTyMismatch,
			"cannot compare %s column against literal of kind %d", bareTypeName(colType), lit.Kind)
	}
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
