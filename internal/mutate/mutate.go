// Package mutate implements the Mutator (§4.6): INSERT, UPDATE and
// DELETE, with index maintenance and notnull/PK/FK/CHECK enforcement.
package mutate

import (
	"bytes"

	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/index"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// IndexSet gives the Mutator access to a table's live column indexes.
type IndexSet interface {
	Index(colIdx int) *index.Index
}

// TableHandle bundles a table's schema with its live indexes, as
// returned by Catalog.Lookup.
type TableHandle struct {
	Table   *schema.Table
	Indexes IndexSet
}

// Catalog is the Mutator's view of the rest of the database: looking
// up other tables (for foreign-key targets) and reading a CHECK
// constraint's declared literal set.
type Catalog interface {
	Lookup(tableName string) (*TableHandle, error)
	ReadCheck(root page.Pgno) ([][]byte, error)

	// ReferencingFKs returns every other table's foreign key that
	// targets (tableName, colName), used to enforce ModifyReferencedRow
	// (§4.6).
	ReferencingFKs(tableName, colName string) []FKRef
}

// FKRef names one foreign key in another table pointing at a column
// this Mutator is about to modify or delete.
type FKRef struct {
	Table   *schema.Table
	Indexes IndexSet
	Column  string // the referencing column, in Table
}

// checkNotNull enforces that every notnull column in row is non-NULL
// (§4.6 INSERT/UPDATE: "Enforce: notnull columns not NULL").
func checkNotNull(row record.Row) error {
	for i := range row.Table.Columns {
		if row.Table.Columns[i].NotNull && row.IsNull(i) {
			return oakerr.New(oakerr.NotNullViolation, "column %q is NOT NULL", row.Table.Columns[i].Name)
		}
	}
	return nil
}

// checkPrimaryKey enforces PK uniqueness, via the column's index when
// present, else a full heap scan (§4.6: "primary-key uniqueness
// (lookup via PK index if present else full scan)"). exclude, if
// non-nil, is a Rid to ignore (the row being updated in place).
func checkPrimaryKey(pager *page.Pager, table *schema.Table, ix IndexSet, row record.Row, exclude *record.Rid) error {
	for i := range table.Columns {
		if !table.Columns[i].PrimaryKey || row.IsNull(i) {
			continue
		}
		key := row.Get(i).KeyBytes()
		var dup bool
		var err error
		if idx := ix.Index(i); idx != nil {
			for _, rid := range idx.PointScan(key) {
				if exclude != nil && rid == *exclude {
					continue
				}
				dup = true
				break
			}
		} else {
			dup, err = scanColumnEquals(pager, table, i, key, exclude)
			if err != nil {
				return err
			}
		}
		if dup {
			return oakerr.New(oakerr.DupPrimaryKey, "duplicate value for primary key column %q", table.Columns[i].Name)
		}
	}
	return nil
}

// checkForeignKeys enforces that every FK column's value exists in its
// target table (§4.6: "foreign keys: each referenced key must exist in
// target table").
func checkForeignKeys(pager *page.Pager, table *schema.Table, row record.Row, cat Catalog) error {
	for _, fk := range table.ForeignKeys {
		ci := table.ColumnIndex(fk.Column)
		if ci < 0 || row.IsNull(ci) {
			continue
		}
		key := row.Get(ci).KeyBytes()
		target, err := cat.Lookup(fk.RefTable)
		if err != nil {
			return err
		}
		ti := target.Table.ColumnIndex(fk.RefColumn)
		if ti < 0 {
			return oakerr.New(oakerr.NoSuchForeignTarget, "foreign key target column %q.%q does not exist", fk.RefTable, fk.RefColumn)
		}
		var found bool
		if idx := target.Indexes.Index(ti); idx != nil {
			found = len(idx.PointScan(key)) > 0
		} else {
			found, err = scanColumnEquals(pager, target.Table, ti, key, nil)
			if err != nil {
				return err
			}
		}
		if !found {
			return oakerr.New(oakerr.NoSuchForeignTarget, "no row in %q.%q matches foreign key value", fk.RefTable, fk.RefColumn)
		}
	}
	return nil
}

// hasIncomingReference reports whether any row in a table that
// foreign-keys into (tableName, colName) currently holds value key
// (§4.6 UPDATE: "block updates to columns referenced by another
// table's FK if the old value had incoming references").
func hasIncomingReference(pager *page.Pager, tableName, colName string, key []byte, cat Catalog) (bool, error) {
	for _, ref := range cat.ReferencingFKs(tableName, colName) {
		ci := ref.Table.ColumnIndex(ref.Column)
		if ci < 0 {
			continue
		}
		var found bool
		var err error
		if idx := ref.Indexes.Index(ci); idx != nil {
			found = len(idx.PointScan(key)) > 0
		} else {
			found, err = scanColumnEquals(pager, ref.Table, ci, key, nil)
			if err != nil {
				return false, err
			}
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// checkConstraints enforces CHECK membership (§4.6: "CHECK: value ∈
// declared set").
func checkConstraints(table *schema.Table, row record.Row, cat Catalog) error {
	for _, ck := range table.Checks {
		ci := table.ColumnIndex(ck.Column)
		if ci < 0 || row.IsNull(ci) {
			continue
		}
		allowed, err := cat.ReadCheck(ck.Root)
		if err != nil {
			return err
		}
		key := row.Get(ci).KeyBytes()
		ok := false
		for _, a := range allowed {
			if bytes.Equal(a, key) {
				ok = true
				break
			}
		}
		if !ok {
			return oakerr.New(oakerr.CheckViolation, "value for column %q violates CHECK constraint", ck.Column)
		}
	}
	return nil
}

// scanColumnEquals walks table's heap looking for any occupied row
// (other than exclude) whose column colIdx equals key.
func scanColumnEquals(pager *page.Pager, table *schema.Table, colIdx int, key []byte, exclude *record.Rid) (bool, error) {
	layout := table.Layout()
	for pgno := table.HeapHead; pgno != page.NoPage; {
		dp, err := pager.Get(pgno, layout)
		if err != nil {
			return false, err
		}
		for slot := 0; slot < layout.SlotCount; slot++ {
			if !dp.IsOccupied(slot) {
				continue
			}
			rid := record.Rid{Page: pgno, Slot: slot}
			if exclude != nil && rid == *exclude {
				continue
			}
			row := record.NewRow(dp.Slot(slot), table)
			if row.IsNull(colIdx) {
				continue
			}
			if bytes.Equal(row.Get(colIdx).KeyBytes(), key) {
				return true, nil
			}
		}
		pgno = dp.Next()
	}
	return false, nil
}

// insertIndexEntries adds one index entry per indexed, non-NULL column
// of row (§4.6: "insert an entry into every present index for non-NULL
// columns").
func insertIndexEntries(table *schema.Table, ix IndexSet, row record.Row, rid record.Rid) {
	for i := range table.Columns {
		if row.IsNull(i) {
			continue
		}
		if idx := ix.Index(i); idx != nil {
			idx.Insert(row.Get(i).KeyBytes(), rid)
		}
	}
}

// deleteIndexEntries removes one index entry per indexed, non-NULL
// column of row, at rid.
func deleteIndexEntries(table *schema.Table, ix IndexSet, row record.Row, rid record.Rid) {
	for i := range table.Columns {
		if row.IsNull(i) {
			continue
		}
		if idx := ix.Index(i); idx != nil {
			idx.Delete(row.Get(i).KeyBytes(), rid)
		}
	}
}
