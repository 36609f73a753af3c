package mutate

import (
	"github.com/oakdb/oakdb/internal/filter"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/predicate"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Delete implements §4.6 DELETE: rejects tables with incoming foreign
// links outright, then collects every hit (row, Rid) before mutating
// anything, removes index entries, and only then deallocates slots —
// so a concurrent reader never observes an index entry pointing at a
// freed slot.
func Delete(pager *page.Pager, table *schema.Table, ix IndexSet, clauses []predicate.Clause, indexOf filter.IndexLookup) error {
	if table.ReferencedBy() {
		return oakerr.New(oakerr.DeleteTableWithForeignLink, "table %q is referenced by another table's foreign key", table.Name)
	}

	type hit struct {
		row record.Row
		rid record.Rid
	}
	var hits []hit
	err := filter.Scan(pager, table, clauses, indexOf, func(row record.Row, rid record.Rid) error {
		// Copy the row bytes out: the underlying page slot will be
		// freed before this statement finishes, and row.Buf aliases
		// the live page buffer (§5).
		buf := append([]byte(nil), row.Buf...)
		hits = append(hits, hit{row: record.NewRow(buf, table), rid: rid})
		return nil
	})
	if err != nil {
		return err
	}

	for _, h := range hits {
		deleteIndexEntries(table, ix, h.row, h.rid)
	}

	layout := table.Layout()
	for _, h := range hits {
		dp, err := pager.Get(h.rid.Page, layout)
		if err != nil {
			return err
		}
		wasFull := !dp.HasFreeSlot()
		dp.SetOccupied(h.rid.Slot, false)
		if wasFull {
			dp.SetNextFree(table.FreeHead)
			table.FreeHead = dp.Pgno
		}
		if err := pager.Put(dp); err != nil {
			return err
		}
	}
	return nil
}
