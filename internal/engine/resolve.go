package engine

import (
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/predicate"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// boundTables is the resolved FROM list a statement executes against,
// in textual order (§4.4: "The join order is the textual table order").
type boundTables struct {
	Names  []string
	Tables []*schema.Table
}

// resolver implements predicate.Resolver over a bound table list,
// handling the ambiguity rule (§4.5: "Column resolution for an
// unqualified name is ambiguous iff it appears in >=2 tables;
// qualified t.c requires t be a bound table").
func (b boundTables) resolver() predicate.Resolver {
	return func(ref ast.ColRef) (predicate.ResolvedCol, error) {
		if ref.Table != "" {
			for i, n := range b.Names {
				if n == ref.Table {
					ci := b.Tables[i].ColumnIndex(ref.Column)
					if ci < 0 {
						return predicate.ResolvedCol{}, oakerr.New(oakerr.NoSuchCol, "no such column %q in table %q", ref.Column, ref.Table)
					}
					return predicate.ResolvedCol{Table: i, Col: ci, Type: b.Tables[i].Columns[ci].Type}, nil
				}
			}
			return predicate.ResolvedCol{}, oakerr.New(oakerr.NoSuchTable, "table %q is not bound in this query", ref.Table)
		}

		foundAt := -1
		var rc predicate.ResolvedCol
		for i, t := range b.Tables {
			ci := t.ColumnIndex(ref.Column)
			if ci < 0 {
				continue
			}
			if foundAt != -1 {
				return predicate.ResolvedCol{}, oakerr.New(oakerr.AmbiguousCol, "column %q is ambiguous among bound tables", ref.Column)
			}
			foundAt = i
			rc = predicate.ResolvedCol{Table: i, Col: ci, Type: t.Columns[ci].Type}
		}
		if foundAt == -1 {
			return predicate.ResolvedCol{}, oakerr.New(oakerr.NoSuchCol, "no such column %q", ref.Column)
		}
		return rc, nil
	}
}
