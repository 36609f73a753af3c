// Package aggregate implements the Aggregator/Projector (§4.5): select
// list resolution (including `*` expansion and ambiguous-column
// detection), mixed-aggregation validation, and materialization of the
// joined row set into a result table.
package aggregate

import (
	"math"

	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/join"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/predicate"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// CellKind distinguishes the value shapes a result cell can hold: the
// five kinds schema.BareType columns project to (Char and VarChar both
// become CellStr), plus the two synthetic
// kinds an aggregation introduces (§4.5: count is an integer regardless
// of column type; sum/avg accumulate in 64-bit float).
type CellKind int

const (
	CellInt32 CellKind = iota
	CellBool
	CellFloat32
	CellStr
	CellDate
	CellInt64
	CellFloat64
)

// Cell is one materialized result value.
type Cell struct {
	Null bool
	Kind CellKind
	I32  int32
	B    bool
	F32  float32
	Str  string
	I64  int64
	F64  float64
}

func cellFromValue(v record.Value) Cell {
	if v.Null {
		return Cell{Null: true, Kind: cellKindOf(v.Type)}
	}
	switch v.Type {
	case schema.Int32:
		return Cell{Kind: CellInt32, I32: v.I32}
	case schema.Bool:
		return Cell{Kind: CellBool, B: v.B}
	case schema.Float32:
		return Cell{Kind: CellFloat32, F32: v.F32}
	case schema.Char, schema.VarChar:
		return Cell{Kind: CellStr, Str: v.Str}
	case schema.Date:
		return Cell{Kind: CellDate, I32: v.I32}
	default:
		return Cell{Null: true}
	}
}

func cellKindOf(t schema.BareType) CellKind {
	switch t {
	case schema.Int32:
		return CellInt32
	case schema.Bool:
		return CellBool
	case schema.Float32:
		return CellFloat32
	case schema.Char, schema.VarChar:
		return CellStr
	case schema.Date:
		return CellDate
	default:
		return CellInt32
	}
}

// Result is the materialized SelectResult (§6: "SelectResult { cols,
// rows } flattened row-major").
type Result struct {
	Cols []string
	Rows [][]Cell
}

// item is one resolved, possibly-aggregated select-list entry.
type item struct {
	Header string
	Agg    ast.AggOp
	Col    predicate.ResolvedCol // unused for AggCountStar
}

// Resolve expands `*` and binds every select item's column reference,
// enforcing the MixedSelect and InvalidAgg rules (§4.5). tableNames and
// tables are parallel, in textual FROM order.
func Resolve(items []ast.SelectItem, tableNames []string, tables []*schema.Table, resolve predicate.Resolver) ([]item, error) {
	expanded, err := expandStar(items, tableNames, tables)
	if err != nil {
		return nil, err
	}

	anyAgg := false
	for _, it := range expanded {
		if it.Agg != ast.AggNone {
			anyAgg = true
		}
	}
	if anyAgg {
		for _, it := range expanded {
			if it.Agg == ast.AggNone {
				return nil, oakerr.New(oakerr.MixedSelect, "cannot mix aggregated and non-aggregated select items")
			}
		}
	}

	out := make([]item, 0, len(expanded))
	for _, it := range expanded {
		if it.Agg == ast.AggCountStar {
			out = append(out, item{Header: "count(*)", Agg: ast.AggCountStar})
			continue
		}
		rc, err := resolve(it.Col)
		if err != nil {
			return nil, err
		}
		if (it.Agg == ast.AggSum || it.Agg == ast.AggAvg) &&
			rc.Type != schema.Int32 && rc.Type != schema.Bool && rc.Type != schema.Float32 {
			return nil, oakerr.New(oakerr.InvalidAgg, "sum/avg require Int32, Bool or Float32, got %v", rc.Type)
		}
		out = append(out, item{Header: header(it.Agg, it.Col.Column), Agg: it.Agg, Col: rc})
	}
	return out, nil
}

func header(agg ast.AggOp, name string) string {
	switch agg {
	case ast.AggCount:
		return "count(" + name + ")"
	case ast.AggSum:
		return "sum(" + name + ")"
	case ast.AggAvg:
		return "avg(" + name + ")"
	case ast.AggMin:
		return "min(" + name + ")"
	case ast.AggMax:
		return "max(" + name + ")"
	default:
		return name
	}
}

// expandStar replaces a `*` select item with one non-aggregated item
// per column, ordered (table-order x column-declaration-order) (§4.5).
func expandStar(items []ast.SelectItem, tableNames []string, tables []*schema.Table) ([]ast.SelectItem, error) {
	var out []ast.SelectItem
	for _, it := range items {
		if !it.Star {
			out = append(out, it)
			continue
		}
		for ti, tbl := range tables {
			for _, col := range tbl.Columns {
				out = append(out, ast.SelectItem{
					Col: ast.ColRef{Table: tableNames[ti], Column: col.Name},
					Agg: ast.AggNone,
				})
			}
		}
	}
	return out, nil
}

// Project materializes tuples against the resolved select list. If any
// item is aggregated, the result is a single summary row; otherwise
// one output row is produced per tuple, in join order.
func Project(tuples []join.Tuple, items []item) Result {
	cols := make([]string, len(items))
	for i, it := range items {
		cols[i] = it.Header
	}

	anyAgg := len(items) > 0 && items[0].Agg != ast.AggNone
	if !anyAgg {
		rows := make([][]Cell, len(tuples))
		for ti, t := range tuples {
			row := make([]Cell, len(items))
			for i, it := range items {
				row[i] = cellFromValue(t[it.Col.Table].Get(it.Col.Col))
			}
			rows[ti] = row
		}
		return Result{Cols: cols, Rows: rows}
	}

	row := make([]Cell, len(items))
	for i, it := range items {
		row[i] = aggregateOne(it, tuples)
	}
	return Result{Cols: cols, Rows: [][]Cell{row}}
}

func aggregateOne(it item, tuples []join.Tuple) Cell {
	switch it.Agg {
	case ast.AggCountStar:
		return Cell{Kind: CellInt64, I64: int64(len(tuples))}

	case ast.AggCount:
		var n int64
		for _, t := range tuples {
			if !t[it.Col.Table].IsNull(it.Col.Col) {
				n++
			}
		}
		return Cell{Kind: CellInt64, I64: n}

	case ast.AggSum, ast.AggAvg:
		var sum float64
		var n int64
		for _, t := range tuples {
			v := t[it.Col.Table].Get(it.Col.Col)
			if v.Null {
				continue
			}
			sum += numericOf(v)
			n++
		}
		if n == 0 {
			return Cell{Null: true, Kind: CellFloat64}
		}
		if it.Agg == ast.AggSum {
			return Cell{Kind: CellFloat64, F64: sum}
		}
		return Cell{Kind: CellFloat64, F64: sum / float64(n)}

	case ast.AggMin, ast.AggMax:
		var best record.Value
		have := false
		for _, t := range tuples {
			v := t[it.Col.Table].Get(it.Col.Col)
			if v.Null {
				continue
			}
			if !have {
				best = v
				have = true
				continue
			}
			if it.Agg == ast.AggMin {
				if less(v, best) {
					best = v
				}
			} else if less(best, v) {
				best = v
			}
		}
		if !have {
			return Cell{Null: true, Kind: cellKindOf(it.Col.Type)}
		}
		return cellFromValue(best)

	default:
		return Cell{Null: true}
	}
}

func numericOf(v record.Value) float64 {
	switch v.Type {
	case schema.Int32:
		return float64(v.I32)
	case schema.Bool:
		if v.B {
			return 1
		}
		return 0
	case schema.Float32:
		return float64(v.F32)
	default:
		return 0
	}
}

// less orders two same-typed, non-NULL values (§4.5: "Ordering follows
// the column type (numeric, lexicographic string, Date)").
func less(a, b record.Value) bool {
	switch a.Type {
	case schema.Int32, schema.Date:
		return a.I32 < b.I32
	case schema.Bool:
		return !a.B && b.B
	case schema.Float32:
		if math.IsNaN(float64(a.F32)) || math.IsNaN(float64(b.F32)) {
			return false
		}
		return a.F32 < b.F32
	case schema.Char, schema.VarChar:
		return a.Str < b.Str
	default:
		return false
	}
}
