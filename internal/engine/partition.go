package engine

import (
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/join"
	"github.com/oakdb/oakdb/internal/predicate"
)

// exprTables reports which bound table(s) expr references: a single
// index for a single-table clause, or (li, ri) for a cross-table Cmp.
func exprTables(expr ast.Expr, resolve predicate.Resolver) (single int, li, ri int, isCross bool, err error) {
	switch expr.Kind {
	case ast.ExprIsNull:
		rc, e := resolve(expr.IsNullCol)
		return rc.Table, 0, 0, false, e
	case ast.ExprLike:
		rc, e := resolve(expr.LikeCol)
		return rc.Table, 0, 0, false, e
	case ast.ExprCmp:
		l, e := resolve(expr.L)
		if e != nil {
			return 0, 0, 0, false, e
		}
		if expr.R.Kind == ast.AtomLit {
			return l.Table, 0, 0, false, nil
		}
		r, e := resolve(expr.R.Col)
		if e != nil {
			return 0, 0, 0, false, e
		}
		if l.Table == r.Table {
			return l.Table, 0, 0, false, nil
		}
		return 0, l.Table, r.Table, true, nil
	default:
		return 0, 0, 0, false, nil
	}
}

// partitionResult is the §4.4 predicate-separation outcome: one clause
// set Pi per table, plus the cross[i*k+j] pair-predicate matrix.
type partitionResult struct {
	PerTable [][]predicate.Clause
	Plan     *join.Plan
}

// Partition implements §4.4's WHERE-clause partitioning: same-table
// expressions go to that table's single-table set; cross-table Cmp
// expressions compile into the join plan's pair-predicate matrix.
func Partition(where []ast.Expr, bound boundTables, hasIndex func(table, col int) bool) (*partitionResult, error) {
	k := len(bound.Tables)
	resolve := bound.resolver()
	per := make([][]predicate.Clause, k)
	plan := join.NewPlan(k)

	for _, expr := range where {
		single, li, ri, isCross, err := exprTables(expr, resolve)
		if err != nil {
			return nil, err
		}
		if isCross {
			pred, err := predicate.CompilePair(expr, resolve, resolve)
			if err != nil {
				return nil, err
			}
			plan.Set(li, ri, pred)
			continue
		}
		hi := func(ci int) bool { return hasIndex(single, ci) }
		clause, err := predicate.CompileSingle(expr, resolve, hi)
		if err != nil {
			return nil, err
		}
		per[single] = append(per[single], clause)
	}

	return &partitionResult{PerTable: per, Plan: plan}, nil
}
