package mutate

import (
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/filter"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/predicate"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Update implements §4.6 UPDATE: the Filter Driver materializes every
// hit row's Rid first (§5: "index mutations happen after all scans
// have materialized their candidate sets"), then each row is updated
// in place: old indexed values are dropped, new values filled in, new
// indexed values re-inserted.
func Update(pager *page.Pager, table *schema.Table, ix IndexSet, cat Catalog, clauses []predicate.Clause, indexOf filter.IndexLookup, assignments []ast.Assignment) error {
	var hits []record.Rid
	err := filter.Scan(pager, table, clauses, indexOf, func(row record.Row, rid record.Rid) error {
		hits = append(hits, rid)
		return nil
	})
	if err != nil {
		return err
	}

	layout := table.Layout()
	for _, rid := range hits {
		dp, err := pager.Get(rid.Page, layout)
		if err != nil {
			return err
		}
		if !dp.IsOccupied(rid.Slot) {
			continue // slot no longer occupied; nothing to update
		}
		row := record.NewRow(dp.Slot(rid.Slot), table)

		for _, asn := range assignments {
			ci := table.ColumnIndex(asn.Column)
			if ci < 0 {
				return oakerr.New(oakerr.NoSuchCol, "no such column %q", asn.Column)
			}
			if err := enforceModifyReferenced(pager, table, ci, row, cat); err != nil {
				return err
			}
			if idx := ix.Index(ci); idx != nil && !row.IsNull(ci) {
				idx.Delete(row.Get(ci).KeyBytes(), rid)
			}
			if err := record.Fill(row, ci, asn.Value); err != nil {
				return err
			}
			if idx := ix.Index(ci); idx != nil && !row.IsNull(ci) {
				idx.Insert(row.Get(ci).KeyBytes(), rid)
			}
		}

		if err := checkNotNull(row); err != nil {
			return err
		}
		if err := checkPrimaryKey(pager, table, ix, row, &rid); err != nil {
			return err
		}
		if err := checkForeignKeys(pager, table, row, cat); err != nil {
			return err
		}
		if err := checkConstraints(table, row, cat); err != nil {
			return err
		}
		if err := pager.Put(dp); err != nil {
			return err
		}
	}
	return nil
}

// enforceModifyReferenced rejects an assignment to column ci if it is
// referenced by another table's FK and some row currently holds an
// incoming reference to its current value.
func enforceModifyReferenced(pager *page.Pager, table *schema.Table, ci int, row record.Row, cat Catalog) error {
	if !table.ReferencedBy() || row.IsNull(ci) {
		return nil
	}
	key := row.Get(ci).KeyBytes()
	referenced, err := hasIncomingReference(pager, table.Name, table.Columns[ci].Name, key, cat)
	if err != nil {
		return err
	}
	if referenced {
		return oakerr.New(oakerr.ModifyReferencedRow, "column %q is referenced by another table's foreign key", table.Columns[ci].Name)
	}
	return nil
}
