package mutate

import (
	"path/filepath"
	"testing"

	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/filter"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/predicate"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/index"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// memIndexSet is a bare map-backed IndexSet for tests that need real
// index maintenance without a full Catalog.
type memIndexSet map[int]*index.Index

func (s memIndexSet) Index(colIdx int) *index.Index { return s[colIdx] }

// testCatalog is a minimal Catalog stub: a fixed set of tables plus
// their indexes, a CheckPage store keyed by synthetic page numbers, and
// a precomputed reverse-FK map.
type testCatalog struct {
	tables      map[string]*TableHandle
	checks      map[page.Pgno][][]byte
	referencing map[string][]FKRef // key: table+"."+col
}

func newTestCatalog() *testCatalog {
	return &testCatalog{
		tables:      make(map[string]*TableHandle),
		checks:      make(map[page.Pgno][][]byte),
		referencing: make(map[string][]FKRef),
	}
}

func (c *testCatalog) add(tbl *schema.Table, ix IndexSet) {
	c.tables[tbl.Name] = &TableHandle{Table: tbl, Indexes: ix}
}

func (c *testCatalog) Lookup(name string) (*TableHandle, error) {
	h, ok := c.tables[name]
	if !ok {
		return nil, oakerr.New(oakerr.NoSuchTable, "no such table %q", name)
	}
	return h, nil
}

func (c *testCatalog) ReadCheck(root page.Pgno) ([][]byte, error) {
	return c.checks[root], nil
}

func (c *testCatalog) ReferencingFKs(tableName, colName string) []FKRef {
	return c.referencing[tableName+"."+colName]
}

func openPager(t *testing.T) *page.Pager {
	t.Helper()
	p, err := page.Open(filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatalf("page.Open() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestInsertEnforcesNotNull(t *testing.T) {
	pager := openPager(t)
	tbl := schema.NewTable("t", []schema.Column{{Name: "id", Type: schema.Int32, NotNull: true}}, nil, nil)

	err := Insert(pager, tbl, memIndexSet{}, newTestCatalog(), [][]ast.Lit{{ast.NullLit()}})
	if !oakerr.Is(err, oakerr.NotNullViolation) {
		t.Fatalf("Insert(NULL into NOT NULL) error = %v, want NotNullViolation", err)
	}
}

func TestInsertEnforcesPrimaryKeyUniqueness(t *testing.T) {
	pager := openPager(t)
	tbl := schema.NewTable("t", []schema.Column{{Name: "id", Type: schema.Int32, PrimaryKey: true}}, nil, nil)
	cat := newTestCatalog()

	if err := Insert(pager, tbl, memIndexSet{}, cat, [][]ast.Lit{{ast.IntLit(1)}}); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	err := Insert(pager, tbl, memIndexSet{}, cat, [][]ast.Lit{{ast.IntLit(1)}})
	if !oakerr.Is(err, oakerr.DupPrimaryKey) {
		t.Fatalf("Insert(dup PK) error = %v, want DupPrimaryKey", err)
	}
}

func TestInsertEnforcesPrimaryKeyUniquenessViaIndex(t *testing.T) {
	pager := openPager(t)
	tbl := schema.NewTable("t", []schema.Column{{Name: "id", Type: schema.Int32, PrimaryKey: true}}, nil, nil)
	ix := memIndexSet{0: index.New()}

	if err := Insert(pager, tbl, ix, newTestCatalog(), [][]ast.Lit{{ast.IntLit(1)}}); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if ix[0].Len() != 1 {
		t.Fatalf("index population after insert = %d, want 1", ix[0].Len())
	}
	err := Insert(pager, tbl, ix, newTestCatalog(), [][]ast.Lit{{ast.IntLit(1)}})
	if !oakerr.Is(err, oakerr.DupPrimaryKey) {
		t.Fatalf("Insert(dup PK, index path) error = %v, want DupPrimaryKey", err)
	}
}

func TestInsertEnforcesForeignKey(t *testing.T) {
	pager := openPager(t)
	parent := schema.NewTable("parent", []schema.Column{{Name: "id", Type: schema.Int32, PrimaryKey: true}}, nil, nil)
	child := schema.NewTable("child", []schema.Column{
		{Name: "id", Type: schema.Int32},
		{Name: "parent_id", Type: schema.Int32},
	}, []schema.ForeignKey{{Column: "parent_id", RefTable: "parent", RefColumn: "id"}}, nil)

	cat := newTestCatalog()
	cat.add(parent, memIndexSet{})
	cat.add(child, memIndexSet{})

	err := Insert(pager, child, memIndexSet{}, cat, [][]ast.Lit{{ast.IntLit(1), ast.IntLit(99)}})
	if !oakerr.Is(err, oakerr.NoSuchForeignTarget) {
		t.Fatalf("Insert(dangling FK) error = %v, want NoSuchForeignTarget", err)
	}

	if err := Insert(pager, parent, memIndexSet{}, cat, [][]ast.Lit{{ast.IntLit(99)}}); err != nil {
		t.Fatalf("Insert(parent) error = %v", err)
	}
	if err := Insert(pager, child, memIndexSet{}, cat, [][]ast.Lit{{ast.IntLit(1), ast.IntLit(99)}}); err != nil {
		t.Fatalf("Insert(child, valid FK) error = %v", err)
	}
}

func TestInsertEnforcesCheckConstraint(t *testing.T) {
	pager := openPager(t)
	checkRoot := page.Pgno(7)
	tbl := schema.NewTable("t", []schema.Column{{Name: "color", Type: schema.VarChar, N: 10}}, nil,
		[]schema.CheckConstraint{{Column: "color", Root: checkRoot}})

	cat := newTestCatalog()
	cat.checks[checkRoot] = [][]byte{
		record.Value{Type: schema.VarChar, Str: "red"}.KeyBytes(),
		record.Value{Type: schema.VarChar, Str: "blue"}.KeyBytes(),
	}

	err := Insert(pager, tbl, memIndexSet{}, cat, [][]ast.Lit{{ast.StrLit("green")}})
	if !oakerr.Is(err, oakerr.CheckViolation) {
		t.Fatalf("Insert(value outside CHECK set) error = %v, want CheckViolation", err)
	}
	if err := Insert(pager, tbl, memIndexSet{}, cat, [][]ast.Lit{{ast.StrLit("red")}}); err != nil {
		t.Fatalf("Insert(value inside CHECK set) error = %v", err)
	}
}

func TestInsertWrongArity(t *testing.T) {
	pager := openPager(t)
	tbl := schema.NewTable("t", []schema.Column{{Name: "a", Type: schema.Int32}, {Name: "b", Type: schema.Int32}}, nil, nil)

	err := Insert(pager, tbl, memIndexSet{}, newTestCatalog(), [][]ast.Lit{{ast.IntLit(1)}})
	if !oakerr.Is(err, oakerr.RecordLitTyMismatch) {
		t.Fatalf("Insert(wrong arity) error = %v, want RecordLitTyMismatch", err)
	}
}

func scanAllInt32(t *testing.T, pager *page.Pager, tbl *schema.Table, col int) []int32 {
	t.Helper()
	var got []int32
	err := filter.Scan(pager, tbl, nil, nil, func(row record.Row, rid record.Rid) error {
		got = append(got, row.ReadInt32(col))
		return nil
	})
	if err != nil {
		t.Fatalf("filter.Scan() error = %v", err)
	}
	return got
}

func TestUpdateRewritesValuesAndMaintainsIndex(t *testing.T) {
	pager := openPager(t)
	tbl := schema.NewTable("t", []schema.Column{{Name: "id", Type: schema.Int32}}, nil, nil)
	ix := memIndexSet{0: index.New()}
	cat := newTestCatalog()

	if err := Insert(pager, tbl, ix, cat, [][]ast.Lit{{ast.IntLit(1)}, {ast.IntLit(2)}}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	resolve := func(c ast.ColRef) (predicate.ResolvedCol, error) {
		return predicate.ResolvedCol{Col: 0, Type: schema.Int32}, nil
	}
	clause, err := predicate.CompileSingle(ast.Cmp(ast.Eq, ast.ColRef{Column: "id"}, ast.LitAtom(ast.IntLit(1))), resolve, func(int) bool { return true })
	if err != nil {
		t.Fatalf("CompileSingle() error = %v", err)
	}

	err = Update(pager, tbl, ix, cat, []predicate.Clause{clause}, func(colIdx int) *index.Index { return ix.Index(colIdx) },
		[]ast.Assignment{{Column: "id", Value: ast.IntLit(100)}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got := scanAllInt32(t, pager, tbl, 0)
	want := map[int32]bool{100: true, 2: true}
	if len(got) != 2 || !want[got[0]] || !want[got[1]] {
		t.Fatalf("scan after update = %v, want {100, 2}", got)
	}
	if len(ix[0].PointScan(record.Value{Type: schema.Int32, I32: 1}.KeyBytes())) != 0 {
		t.Fatal("index should no longer carry the old key 1 after update")
	}
	if len(ix[0].PointScan(record.Value{Type: schema.Int32, I32: 100}.KeyBytes())) != 1 {
		t.Fatal("index should carry the new key 100 after update")
	}
}

func TestUpdateBlocksModifyingReferencedRow(t *testing.T) {
	pager := openPager(t)
	parent := schema.NewTable("parent", []schema.Column{{Name: "id", Type: schema.Int32, PrimaryKey: true}}, nil, nil)
	parent.IncomingFKCount = 1
	child := schema.NewTable("child", []schema.Column{{Name: "parent_id", Type: schema.Int32}},
		[]schema.ForeignKey{{Column: "parent_id", RefTable: "parent", RefColumn: "id"}}, nil)

	cat := newTestCatalog()
	cat.add(parent, memIndexSet{})
	cat.add(child, memIndexSet{})
	cat.referencing["parent.id"] = []FKRef{{Table: child, Indexes: memIndexSet{}, Column: "parent_id"}}

	if err := Insert(pager, parent, memIndexSet{}, cat, [][]ast.Lit{{ast.IntLit(5)}}); err != nil {
		t.Fatalf("Insert(parent) error = %v", err)
	}
	if err := Insert(pager, child, memIndexSet{}, cat, [][]ast.Lit{{ast.IntLit(5)}}); err != nil {
		t.Fatalf("Insert(child) error = %v", err)
	}

	resolve := func(c ast.ColRef) (predicate.ResolvedCol, error) {
		return predicate.ResolvedCol{Col: 0, Type: schema.Int32}, nil
	}
	clause, err := predicate.CompileSingle(ast.Cmp(ast.Eq, ast.ColRef{Column: "id"}, ast.LitAtom(ast.IntLit(5))), resolve, func(int) bool { return false })
	if err != nil {
		t.Fatalf("CompileSingle() error = %v", err)
	}

	err = Update(pager, parent, memIndexSet{}, cat, []predicate.Clause{clause}, nil,
		[]ast.Assignment{{Column: "id", Value: ast.IntLit(6)}})
	if !oakerr.Is(err, oakerr.ModifyReferencedRow) {
		t.Fatalf("Update(referenced row) error = %v, want ModifyReferencedRow", err)
	}
}

func TestDeleteRemovesRowsAndIndexEntries(t *testing.T) {
	pager := openPager(t)
	tbl := schema.NewTable("t", []schema.Column{{Name: "id", Type: schema.Int32}}, nil, nil)
	ix := memIndexSet{0: index.New()}
	cat := newTestCatalog()

	if err := Insert(pager, tbl, ix, cat, [][]ast.Lit{{ast.IntLit(1)}, {ast.IntLit(2)}}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	resolve := func(c ast.ColRef) (predicate.ResolvedCol, error) {
		return predicate.ResolvedCol{Col: 0, Type: schema.Int32}, nil
	}
	clause, err := predicate.CompileSingle(ast.Cmp(ast.Eq, ast.ColRef{Column: "id"}, ast.LitAtom(ast.IntLit(1))), resolve, func(int) bool { return true })
	if err != nil {
		t.Fatalf("CompileSingle() error = %v", err)
	}

	err = Delete(pager, tbl, ix, []predicate.Clause{clause}, func(colIdx int) *index.Index { return ix.Index(colIdx) })
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got := scanAllInt32(t, pager, tbl, 0)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("scan after delete = %v, want [2]", got)
	}
	if len(ix[0].PointScan(record.Value{Type: schema.Int32, I32: 1}.KeyBytes())) != 0 {
		t.Fatal("index should no longer carry the deleted row's key")
	}
}

func TestDeleteRejectsTableWithIncomingForeignLink(t *testing.T) {
	pager := openPager(t)
	parent := schema.NewTable("parent", []schema.Column{{Name: "id", Type: schema.Int32}}, nil, nil)
	parent.IncomingFKCount = 1

	err := Delete(pager, parent, memIndexSet{}, nil, nil)
	if !oakerr.Is(err, oakerr.DeleteTableWithForeignLink) {
		t.Fatalf("Delete(referenced table) error = %v, want DeleteTableWithForeignLink", err)
	}
}
