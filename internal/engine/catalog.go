package engine

import (
	"encoding/binary"

	"github.com/oakdb/oakdb/internal/mutate"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/index"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Catalog is the in-memory schema and index directory for one open
// database: the TablePage/index-root bookkeeping §3 describes, minus
// the on-disk TablePage format itself (out of the query execution
// core's scope per §1).
type Catalog struct {
	pager   *page.Pager
	tables  map[string]*schema.Table
	indexes map[string]map[int]*index.Index // table name -> column index -> Index
}

// NewCatalog returns an empty catalog backed by pager.
func NewCatalog(pager *page.Pager) *Catalog {
	return &Catalog{
		pager:   pager,
		tables:  make(map[string]*schema.Table),
		indexes: make(map[string]map[int]*index.Index),
	}
}

// CreateTable registers a new table schema, initially empty.
func (c *Catalog) CreateTable(t *schema.Table) error {
	if _, exists := c.tables[t.Name]; exists {
		return oakerr.New(oakerr.DupTable, "table %q already exists", t.Name)
	}
	t.HeapHead, t.HeapTail, t.FreeHead = page.NoPage, page.NoPage, page.NoPage
	c.tables[t.Name] = t
	c.indexes[t.Name] = make(map[int]*index.Index)
	for i := range t.ForeignKeys {
		fk := t.ForeignKeys[i]
		if ref, ok := c.tables[fk.RefTable]; ok {
			ref.IncomingFKCount++
		}
	}
	return nil
}

// DropTable removes a table's schema and indexes. Callers must enforce
// DeleteTableWithForeignLink (via Table(name).ReferencedBy()) before
// calling this.
func (c *Catalog) DropTable(name string) error {
	t, err := c.Table(name)
	if err != nil {
		return err
	}
	for _, fk := range t.ForeignKeys {
		if ref, ok := c.tables[fk.RefTable]; ok {
			ref.IncomingFKCount--
		}
	}
	delete(c.tables, name)
	delete(c.indexes, name)
	return nil
}

// TableNames lists every registered table, for status reporting.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}

// Table looks up a table schema by name.
func (c *Catalog) Table(name string) (*schema.Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, oakerr.New(oakerr.NoSuchTable, "no such table %q", name)
	}
	return t, nil
}

// IndexSet returns the filter.IndexLookup-compatible view of a table's
// live indexes.
func (c *Catalog) IndexSet(tableName string) tableIndexSet {
	return tableIndexSet{cols: c.indexes[tableName]}
}

// HasIndex reports whether table i's column ci carries a live index;
// used to build the Filter Driver's index-eligibility check (§4.3).
func (c *Catalog) HasIndex(bound boundTables, tableIdx, colIdx int) bool {
	return c.IndexSet(bound.Names[tableIdx]).Index(colIdx) != nil
}

// CreateIndex builds a new index over an existing column by scanning
// the table's current heap contents (§6 "CreateIndex{table,col}").
func (c *Catalog) CreateIndex(tableName, colName string) error {
	t, err := c.Table(tableName)
	if err != nil {
		return err
	}
	ci := t.ColumnIndex(colName)
	if ci < 0 {
		return oakerr.New(oakerr.NoSuchCol, "no such column %q", colName)
	}
	ix := index.New()
	layout := t.Layout()
	for pgno := t.HeapHead; pgno != page.NoPage; {
		dp, err := c.pager.Get(pgno, layout)
		if err != nil {
			return err
		}
		for slot := 0; slot < layout.SlotCount; slot++ {
			if !dp.IsOccupied(slot) {
				continue
			}
			row := record.NewRow(dp.Slot(slot), t)
			if row.IsNull(ci) {
				continue
			}
			ix.Insert(row.Get(ci).KeyBytes(), record.Rid{Page: pgno, Slot: slot})
		}
		pgno = dp.Next()
	}
	c.indexes[tableName][ci] = ix
	t.Columns[ci].IndexRoot = page.Pgno(1) // sentinel: "has a live index"
	return nil
}

// DropIndex removes a column's live index.
func (c *Catalog) DropIndex(tableName, colName string) error {
	t, err := c.Table(tableName)
	if err != nil {
		return err
	}
	ci := t.ColumnIndex(colName)
	if ci < 0 {
		return oakerr.New(oakerr.NoSuchCol, "no such column %q", colName)
	}
	delete(c.indexes[tableName], ci)
	t.Columns[ci].IndexRoot = page.NoPage
	return nil
}

// Lookup implements mutate.Catalog.
func (c *Catalog) Lookup(name string) (*mutate.TableHandle, error) {
	t, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	return &mutate.TableHandle{Table: t, Indexes: c.IndexSet(name)}, nil
}

// ReferencingFKs implements mutate.Catalog.
func (c *Catalog) ReferencingFKs(tableName, colName string) []mutate.FKRef {
	var refs []mutate.FKRef
	for name, t := range c.tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == tableName && fk.RefColumn == colName {
				refs = append(refs, mutate.FKRef{Table: t, Indexes: c.IndexSet(name), Column: fk.Column})
			}
		}
	}
	return refs
}

// ReadCheck implements mutate.Catalog, decoding a CheckPage's
// length-prefixed literal-key entries (§6: "CheckPage: u32 len; u8
// data[8188]").
func (c *Catalog) ReadCheck(root page.Pgno) ([][]byte, error) {
	buf, err := c.pager.ReadRaw(root)
	if err != nil {
		return nil, err
	}
	cp := page.WrapCheckPage(buf)
	data := cp.Data()
	var out [][]byte
	for off := 0; off+2 <= len(data); {
		n := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
		if off+n > len(data) {
			break
		}
		out = append(out, append([]byte(nil), data[off:off+n]...))
		off += n
	}
	return out, nil
}

// WriteCheck serializes and persists a CHECK constraint's declared
// literal set, returning the page it was written to.
func (c *Catalog) WriteCheck(values [][]byte) (page.Pgno, error) {
	var buf []byte
	for _, v := range values {
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(v)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, v...)
	}
	pgno := c.pager.AllocRaw()
	cp := page.NewCheckPage()
	cp.SetData(buf)
	if err := c.pager.WriteRaw(pgno, cp.Buf); err != nil {
		return page.NoPage, err
	}
	return pgno, nil
}

// tableIndexSet adapts a per-table index map to mutate.IndexSet and
// filter.IndexLookup.
type tableIndexSet struct {
	cols map[int]*index.Index
}

func (s tableIndexSet) Index(colIdx int) *index.Index {
	if s.cols == nil {
		return nil
	}
	return s.cols[colIdx]
}
