package mutate

import (
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Insert implements §4.6 INSERT: fill every tuple into a fresh slot,
// enforcing notnull/PK/FK/CHECK before committing it, then maintaining
// every present index.
func Insert(pager *page.Pager, table *schema.Table, ix IndexSet, cat Catalog, tuples [][]ast.Lit) error {
	for _, tuple := range tuples {
		if len(tuple) != len(table.Columns) {
			return oakerr.New(oakerr.RecordLitTyMismatch, "row has %d values, table %q has %d columns", len(tuple), table.Name, len(table.Columns))
		}

		scratch := record.NewRow(make([]byte, table.RecordSize()), table)
		for ci, lit := range tuple {
			if err := record.Fill(scratch, ci, lit); err != nil {
				return err
			}
		}

		if err := checkNotNull(scratch); err != nil {
			return err
		}
		if err := checkPrimaryKey(pager, table, ix, scratch, nil); err != nil {
			return err
		}
		if err := checkForeignKeys(pager, table, scratch, cat); err != nil {
			return err
		}
		if err := checkConstraints(table, scratch, cat); err != nil {
			return err
		}

		dp, slot, err := acquireFreeSlot(pager, table)
		if err != nil {
			return err
		}
		copy(dp.Slot(slot), scratch.Buf)
		dp.SetOccupied(slot, true)
		if !dp.HasFreeSlot() {
			table.FreeHead = dp.NextFree()
			dp.SetNextFree(page.NoPage)
		}
		if err := pager.Put(dp); err != nil {
			return err
		}

		rid := record.Rid{Page: dp.Pgno, Slot: slot}
		row := record.NewRow(dp.Slot(slot), table)
		insertIndexEntries(table, ix, row, rid)
	}
	return nil
}

// acquireFreeSlot returns a page with at least one free slot and the
// index of that slot, allocating a new heap page and appending it to
// the chain if the free list is empty (§4.6: "allocate a slot (from
// free-list head page; allocate a new page if none)").
func acquireFreeSlot(pager *page.Pager, table *schema.Table) (*page.DataPage, int, error) {
	layout := table.Layout()

	if table.FreeHead != page.NoPage {
		dp, err := pager.Get(table.FreeHead, layout)
		if err != nil {
			return nil, 0, err
		}
		return dp, dp.FirstFreeSlot(), nil
	}

	dp, err := pager.Alloc(layout)
	if err != nil {
		return nil, 0, err
	}
	dp.SetNextFree(page.NoPage)

	if table.HeapHead == page.NoPage {
		table.HeapHead = dp.Pgno
		table.HeapTail = dp.Pgno
	} else {
		tail, err := pager.Get(table.HeapTail, layout)
		if err != nil {
			return nil, 0, err
		}
		tail.SetNext(dp.Pgno)
		dp.SetPrev(table.HeapTail)
		if err := pager.Put(tail); err != nil {
			return nil, 0, err
		}
		table.HeapTail = dp.Pgno
	}
	table.FreeHead = dp.Pgno
	return dp, dp.FirstFreeSlot(), nil
}
