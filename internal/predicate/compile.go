package predicate

import (
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Resolver maps a surface-syntax ColRef to its bound (table, column,
// type) triple. Binding (name resolution, ambiguity detection) happens
// upstream of the predicate compiler; NoSuchCol/AmbiguousCol are
// Resolver's errors to return, not the compiler's.
type Resolver func(ast.ColRef) (ResolvedCol, error)

// CompileSingle compiles one WHERE expression known to reference only
// one table (§4.4: "If both sides bind to the same table ... place in
// the single-table predicate set"). hasIndex reports whether a column
// index carries a live index, used to populate Clause.Indexable for
// the Filter Driver.
func CompileSingle(expr ast.Expr, resolve Resolver, hasIndex func(colIdx int) bool) (Clause, error) {
	switch expr.Kind {
	case ast.ExprIsNull:
		l, err := resolve(expr.IsNullCol)
		if err != nil {
			return Clause{}, err
		}
		want := expr.IsNullWant
		col := l.Col
		return Clause{
			Pred: func(row record.Row) bool { return row.IsNull(col) == want },
		}, nil

	case ast.ExprLike:
		l, err := resolve(expr.LikeCol)
		if err != nil {
			return Clause{}, err
		}
		if l.Type != schema.Char && l.Type != schema.VarChar {
			return Clause{}, oakerr.New(oakerr.InvalidLikeTy, "LIKE requires a Char/VarChar column")
		}
		re, err := compileLike(expr.LikePattern)
		if err != nil {
			return Clause{}, err
		}
		col := l.Col
		return Clause{
			Pred: func(row record.Row) bool {
				if row.IsNull(col) {
					return false
				}
				return re.MatchString(row.ReadStr(col))
			},
		}, nil

	case ast.ExprCmp:
		l, err := resolve(expr.L)
		if err != nil {
			return Clause{}, err
		}
		if expr.R.Kind == ast.AtomLit {
			return compileCmpLit(expr.Op, l, expr.R.Lit, hasIndex)
		}
		r, err := resolve(expr.R.Col)
		if err != nil {
			return Clause{}, err
		}
		if !sameFamily(l.Type, r.Type) {
			return Clause{}, oakerr.New(oakerr.RecordTyMismatch,
				"cannot compare %s to %s", bareTypeName(l.Type), bareTypeName(r.Type))
		}
		op := expr.Op
		lc, rc := l.Col, r.Col
		return Clause{
			Pred: func(row record.Row) bool {
				ok, _ := compareValues(op, row.Get(lc), row.Get(rc))
				return ok
			},
		}, nil

	default:
		return Clause{}, oakerr.New(oakerr.InvalidAgg, "unknown expression kind")
	}
}

func compileCmpLit(op ast.CmpOp, l ResolvedCol, lit ast.Lit, hasIndex func(int) bool) (Clause, error) {
	if lit.Kind == ast.LitNull {
		return Clause{}, oakerr.New(oakerr.CmpOnNull, "comparison against NULL literal is not allowed; use IS NULL")
	}
	rv, err := litToValue(lit, l.Type)
	if err != nil {
		return Clause{}, err
	}
	col := l.Col
	pred := func(row record.Row) bool {
		ok, _ := compareValues(op, row.Get(col), rv)
		return ok
	}
	indexable := hasIndex != nil && hasIndex(col) &&
		(op == ast.Lt || op == ast.Le || op == ast.Ge || op == ast.Gt || op == ast.Eq)
	c := Clause{Pred: pred}
	if indexable {
		c.Indexable = true
		c.IndexCol = col
		c.Op = op
		c.KeyBytes = rv.KeyBytes()
	}
	return c, nil
}

// CompilePair compiles a cross-table WHERE expression into a
// pair-predicate (§4.4: "compile into a pair-predicate and place in
// slot cross[i*k + j]"). Only Cmp expressions can be cross-table;
// IsNull/Like reference a single column and are always single-table.
func CompilePair(expr ast.Expr, resolveL, resolveR Resolver) (PairPred, error) {
	if expr.Kind != ast.ExprCmp || expr.R.Kind != ast.AtomCol {
		return nil, oakerr.New(oakerr.RecordTyMismatch, "cross-table predicate must be a column-to-column comparison")
	}
	l, err := resolveL(expr.L)
	if err != nil {
		return nil, err
	}
	r, err := resolveR(expr.R.Col)
	if err != nil {
		return nil, err
	}
	if !sameFamily(l.Type, r.Type) {
		return nil, oakerr.New(oakerr.RecordTyMismatch,
			"cannot compare %s to %s", bareTypeName(l.Type), bareTypeName(r.Type))
	}
	op := expr.Op
	lc, rc := l.Col, r.Col
	return func(lRow, rRow record.Row) bool {
		ok, _ := compareValues(op, lRow.Get(lc), rRow.Get(rc))
		return ok
	}, nil
}
