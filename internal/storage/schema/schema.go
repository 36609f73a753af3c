// Package schema describes a table's column layout (§3 DATA MODEL
// "Table schema (TablePage)").
package schema

import "github.com/oakdb/oakdb/internal/storage/page"

// MaxColumns bounds the number of columns a table may declare (§3:
// "max fixed, e.g. 128").
const MaxColumns = 128

// BareType is one of the column value types the record layout knows
// how to encode.
type BareType int

const (
	Int32 BareType = iota
	Bool
	Float32
	Char    // Char(N)
	VarChar // VarChar(N)
	Date
)

// FixedWidth reports whether t is stored in-place at a fixed offset
// (as opposed to length-prefixed).
func (t BareType) FixedWidth() bool {
	switch t {
	case Int32, Bool, Float32, Date:
		return true
	default:
		return false
	}
}

// Column is one column of a table (§3).
type Column struct {
	Name      string
	Type      BareType
	N         int // declared length for Char(N)/VarChar(N); unused otherwise
	Offset    int // byte offset within the fixed record (after the NULL bitmap)
	NotNull   bool
	PrimaryKey bool
	IndexRoot  page.Pgno // page.NoPage if this column carries no index
}

// Width returns the number of bytes this column occupies in the
// fixed record, not counting the NULL bitmap.
func (c *Column) Width() int {
	switch c.Type {
	case Int32, Float32, Date:
		return 4
	case Bool:
		return 1
	case Char, VarChar:
		return 1 + c.N // one length byte + N raw bytes (§3)
	default:
		return 0
	}
}

// HasIndex reports whether this column carries a live index.
func (c *Column) HasIndex() bool { return c.IndexRoot != page.NoPage }

// ForeignKey is a single-column FK constraint: Column in this table
// must match an existing value of RefTable.RefColumn.
type ForeignKey struct {
	Column     string
	RefTable   string
	RefColumn  string
}

// CheckConstraint restricts Column's values to a fixed literal set,
// backed by a page.CheckPage (§3 "Check page").
type CheckConstraint struct {
	Column string
	Root   page.Pgno
}

// Table is a table's schema (§3 "Table schema (TablePage)").
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	Checks      []CheckConstraint

	HeapHead page.Pgno // first data page
	HeapTail page.Pgno
	FreeHead page.Pgno // head of the free list (page.NoPage if none)

	// IncomingFKCount counts foreign keys in other tables that
	// reference this one; used to enforce
	// DeleteTableWithForeignLink / ModifyReferencedRow (§3, §4.6).
	IncomingFKCount int
}

// ColumnIndex returns the index of the named column, or -1. Column
// index doubles as the NULL-bitmap bit index (§3).
func (t *Table) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// RecordSize is the fixed slot size: the NULL bitmap prefix plus every
// column's width.
func (t *Table) RecordSize() int {
	bitmapBytes := (len(t.Columns) + 7) / 8
	size := bitmapBytes
	for i := range t.Columns {
		size += t.Columns[i].Width()
	}
	return size
}

// BitmapBytes is the number of NULL-bitmap bytes at the front of every
// record (§3: "Byte 0..ceil(ncols/8)").
func (t *Table) BitmapBytes() int {
	return (len(t.Columns) + 7) / 8
}

// Layout computes the page.Layout for this table's current record size.
func (t *Table) Layout() page.Layout {
	return page.ComputeLayout(t.RecordSize())
}

// ReferencedBy reports whether any other table has a foreign key
// pointing at this one.
func (t *Table) ReferencedBy() bool { return t.IncomingFKCount > 0 }

// NewTable builds a Table from a freshly-parsed CREATE TABLE, computing
// each column's Offset as a running sum of the preceding columns'
// Width() (§3: columns are stored back-to-back after the NULL bitmap).
// Heap/free-list pointers start empty; no column carries an index yet.
func NewTable(name string, columns []Column, fks []ForeignKey, checks []CheckConstraint) *Table {
	off := 0
	for i := range columns {
		columns[i].Offset = off
		columns[i].IndexRoot = page.NoPage
		off += columns[i].Width()
	}
	return &Table{
		Name:        name,
		Columns:     columns,
		ForeignKeys: fks,
		Checks:      checks,
		HeapHead:    page.NoPage,
		HeapTail:    page.NoPage,
		FreeHead:    page.NoPage,
	}
}
