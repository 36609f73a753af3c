// Package filter implements the Filter Driver (§4.3): it scans one
// table, picking an index-backed scan when a WHERE clause allows it
// and falling back to a full heap scan otherwise, applying the full
// compiled predicate as a post-filter in both cases.
package filter

import (
	"github.com/oakdb/oakdb/internal/predicate"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/index"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// IndexLookup returns the live index for column colIdx, or nil if that
// column carries none.
type IndexLookup func(colIdx int) *index.Index

// Visitor receives each row surviving the full predicate, with its Rid
// (§4.3: "passed to the visitor with (row-pointer, Rid)").
type Visitor func(row record.Row, rid record.Rid) error

// Scan runs the Filter Driver over table, applying clauses (already
// compiled single-table predicates) and invoking visit for every
// surviving row.
func Scan(pager *page.Pager, table *schema.Table, clauses []predicate.Clause, indexOf IndexLookup, visit Visitor) error {
	layout := table.Layout()

	if indexOf != nil {
		for _, c := range clauses {
			if !c.Indexable {
				continue
			}
			ix := indexOf(c.IndexCol)
			if ix == nil {
				continue
			}
			return scanIndex(pager, table, layout, ix, c, clauses, visit)
		}
	}
	return scanHeap(pager, table, layout, clauses, visit)
}

func scanIndex(pager *page.Pager, table *schema.Table, layout page.Layout, ix *index.Index, chosen predicate.Clause, clauses []predicate.Clause, visit Visitor) error {
	rids := ix.RangeScan(chosen.Op, chosen.KeyBytes)
	for _, rid := range rids {
		dp, err := pager.Get(rid.Page, layout)
		if err != nil {
			return err
		}
		if !dp.IsOccupied(rid.Slot) {
			continue
		}
		row := record.NewRow(dp.Slot(rid.Slot), table)
		if !matchesAll(row, clauses) {
			continue
		}
		if err := visit(row, rid); err != nil {
			return err
		}
	}
	return nil
}

func scanHeap(pager *page.Pager, table *schema.Table, layout page.Layout, clauses []predicate.Clause, visit Visitor) error {
	for pgno := table.HeapHead; pgno != page.NoPage; {
		dp, err := pager.Get(pgno, layout)
		if err != nil {
			return err
		}
		for slot := 0; slot < layout.SlotCount; slot++ {
			if !dp.IsOccupied(slot) {
				continue
			}
			row := record.NewRow(dp.Slot(slot), table)
			if !matchesAll(row, clauses) {
				continue
			}
			rid := record.Rid{Page: pgno, Slot: slot}
			if err := visit(row, rid); err != nil {
				return err
			}
		}
		pgno = dp.Next()
	}
	return nil
}

func matchesAll(row record.Row, clauses []predicate.Clause) bool {
	for _, c := range clauses {
		if !c.Pred(row) {
			return false
		}
	}
	return true
}
