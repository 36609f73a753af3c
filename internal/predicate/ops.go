package predicate

import (
	"math"
	"strings"

	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// compareValues evaluates op against (l, r), already typed against the
// same family. Every CmpOp gets its own specialization below — the
// source this spec is drawn from dispatched all six operators through
// one `<` case; that bug is not reproduced here (§9).
//
// NULL propagation is deliberately NOT standard three-valued SQL logic:
// if either operand is NULL the result is false for every operator
// except Ne, which is true (§4.2, preserved verbatim per §9).
func compareValues(op ast.CmpOp, l, r record.Value) (bool, error) {
	if l.Null || r.Null {
		return op == ast.Ne, nil
	}
	switch {
	case isInt32(l) && isInt32(r):
		return cmpInt32(op, l.I32, r.I32), nil
	case isBool(l) && isBool(r):
		return cmpBool(op, l.B, r.B), nil
	case isFloat32(l) && isFloat32(r):
		return cmpFloat32(op, l.F32, r.F32), nil
	case isStr(l) && isStr(r):
		return cmpStr(op, l.Str, r.Str), nil
	default:
		return false, oakerr.New(oakerr.RecordTyMismatch, "incomparable value types")
	}
}

func isInt32(v record.Value) bool   { return v.Type == schema.Int32 || v.Type == schema.Date }
func isBool(v record.Value) bool    { return v.Type == schema.Bool }
func isFloat32(v record.Value) bool { return v.Type == schema.Float32 }
func isStr(v record.Value) bool     { return v.Type == schema.Char || v.Type == schema.VarChar }

func cmpInt32(op ast.CmpOp, a, b int32) bool {
	switch op {
	case ast.Lt:
		return a < b
	case ast.Le:
		return a <= b
	case ast.Ge:
		return a >= b
	case ast.Gt:
		return a > b
	case ast.Eq:
		return a == b
	case ast.Ne:
		return a != b
	default:
		return false
	}
}

func cmpBool(op ast.CmpOp, a, b bool) bool {
	ai, bi := 0, 0
	if a {
		ai = 1
	}
	if b {
		bi = 1
	}
	switch op {
	case ast.Lt:
		return ai < bi
	case ast.Le:
		return ai <= bi
	case ast.Ge:
		return ai >= bi
	case ast.Gt:
		return ai > bi
	case ast.Eq:
		return a == b
	case ast.Ne:
		return a != b
	default:
		return false
	}
}

// cmpFloat32 follows IEEE ordering semantics: NaN makes every ordering
// operator false, both sides (§4.2: "NaN propagates as false for all
// ordering ops (same rule both sides)"). Ne is the sole exception, as
// with NULL propagation: a NaN comparison still reports not-equal.
func cmpFloat32(op ast.CmpOp, a, b float32) bool {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return op == ast.Ne
	}
	switch op {
	case ast.Lt:
		return a < b
	case ast.Le:
		return a <= b
	case ast.Ge:
		return a >= b
	case ast.Gt:
		return a > b
	case ast.Eq:
		return a == b
	case ast.Ne:
		return a != b
	default:
		return false
	}
}

// cmpStr is byte-wise lexicographic comparison over the live prefix
// (§4.2).
func cmpStr(op ast.CmpOp, a, b string) bool {
	c := strings.Compare(a, b)
	switch op {
	case ast.Lt:
		return c < 0
	case ast.Le:
		return c <= 0
	case ast.Ge:
		return c >= 0
	case ast.Gt:
		return c > 0
	case ast.Eq:
		return c == 0
	case ast.Ne:
		return c != 0
	default:
		return false
	}
}
