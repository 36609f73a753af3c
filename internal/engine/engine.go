// Package engine ties the Record Layout, Predicate Compiler, Filter
// Driver, Join Executor, Aggregator/Projector and Mutator components
// into a single Execute(stmt) entrypoint, grounded on the teacher's
// engine Open/Execute pattern.
package engine

import (
	"context"
	"time"

	"github.com/oakdb/oakdb/internal/aggregate"
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/filter"
	"github.com/oakdb/oakdb/internal/join"
	"github.com/oakdb/oakdb/internal/mutate"
	"github.com/oakdb/oakdb/internal/oaklog"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// Engine is one open database: a page file plus the in-memory schema
// and index catalog built over it.
type Engine struct {
	path  string
	pager *page.Pager
	cat   *Catalog
}

// Open opens (creating if necessary) the database file at path.
func Open(path string) (*Engine, error) {
	pager, err := page.Open(path)
	if err != nil {
		return nil, err
	}
	return &Engine{path: path, pager: pager, cat: NewCatalog(pager)}, nil
}

func (e *Engine) Close() error { return e.pager.Close() }

// Path returns the page file path this engine was opened with, for
// tooling (e.g. the CLI's `.backup` dot-command) that needs to copy
// the file out from under the Pager.
func (e *Engine) Path() string { return e.path }

// PageCount reports the number of pages currently allocated.
func (e *Engine) PageCount() uint32 { return e.pager.PageCount() }

// TableNames lists every table currently registered, for status
// reporting.
func (e *Engine) TableNames() []string { return e.cat.TableNames() }

// RowCount counts table's live rows via a full heap scan.
func (e *Engine) RowCount(tableName string) (int, error) {
	t, err := e.cat.Table(tableName)
	if err != nil {
		return 0, err
	}
	n := 0
	err = filter.Scan(e.pager, t, nil, filter.IndexLookup(e.cat.IndexSet(tableName).Index), func(row record.Row, rid record.Rid) error {
		n++
		return nil
	})
	return n, err
}

// CreateTable registers a new table schema (DDL is peripheral to the
// core per §1; the CLI passes the *schema.Table that ast.Parse builds
// for CREATE TABLE, outside ast.Statement).
func (e *Engine) CreateTable(t *schema.Table) error { return e.cat.CreateTable(t) }

// WriteCheck persists a CREATE TABLE's CHECK literal set to a fresh
// CheckPage, returning the page a schema.CheckConstraint.Root should
// point at.
func (e *Engine) WriteCheck(values [][]byte) (page.Pgno, error) { return e.cat.WriteCheck(values) }

// DropTable drops a table, rejecting it if referenced by another
// table's foreign key (§4.6 DELETE rule extended to DROP TABLE).
func (e *Engine) DropTable(name string) error {
	t, err := e.cat.Table(name)
	if err != nil {
		return err
	}
	if t.ReferencedBy() {
		return oakerr.New(oakerr.DeleteTableWithForeignLink, "table %q is referenced by another table's foreign key", name)
	}
	return e.cat.DropTable(name)
}

// Execute runs one DML statement and returns its result, if any
// (SELECT produces a Result; INSERT/UPDATE/DELETE return nil). Every
// statement is logged with its outcome and duration (§6, ambient
// logging).
func (e *Engine) Execute(ctx context.Context, stmt ast.Statement) (*aggregate.Result, error) {
	start := time.Now()
	kind, tables := statementLabel(stmt)

	result, rows, err := e.dispatch(stmt)
	oaklog.StatementExecuted(ctx, kind, tables, rows, time.Since(start), err)
	return result, err
}

func (e *Engine) dispatch(stmt ast.Statement) (*aggregate.Result, int, error) {
	switch stmt.Kind {
	case ast.StmtSelect:
		res, err := e.execSelect(stmt.Select)
		if err != nil {
			return nil, 0, err
		}
		return res, len(res.Rows), nil
	case ast.StmtInsert:
		return nil, len(stmt.Insert.Rows), e.execInsert(stmt.Insert)
	case ast.StmtUpdate:
		return nil, 0, e.execUpdate(stmt.Update)
	case ast.StmtDelete:
		return nil, 0, e.execDelete(stmt.Delete)
	case ast.StmtCreateIndex:
		return nil, 0, e.cat.CreateIndex(stmt.CreateIndex.Table, stmt.CreateIndex.Column)
	case ast.StmtDropIndex:
		return nil, 0, e.cat.DropIndex(stmt.DropIndex.Table, stmt.DropIndex.Column)
	default:
		return nil, 0, oakerr.New(oakerr.InvalidAgg, "unsupported statement kind %v", stmt.Kind)
	}
}

func statementLabel(stmt ast.Statement) (string, []string) {
	switch stmt.Kind {
	case ast.StmtSelect:
		return "SELECT", stmt.Select.Tables
	case ast.StmtInsert:
		return "INSERT", []string{stmt.Insert.Table}
	case ast.StmtUpdate:
		return "UPDATE", []string{stmt.Update.Table}
	case ast.StmtDelete:
		return "DELETE", []string{stmt.Delete.Table}
	case ast.StmtCreateIndex:
		return "CREATE INDEX", []string{stmt.CreateIndex.Table}
	case ast.StmtDropIndex:
		return "DROP INDEX", []string{stmt.DropIndex.Table}
	default:
		return "UNKNOWN", nil
	}
}

func (e *Engine) bind(names []string) (boundTables, error) {
	if err := join.CheckDupTables(names); err != nil {
		return boundTables{}, err
	}
	tables := make([]*schema.Table, len(names))
	for i, n := range names {
		t, err := e.cat.Table(n)
		if err != nil {
			return boundTables{}, err
		}
		tables[i] = t
	}
	return boundTables{Names: names, Tables: tables}, nil
}

func (e *Engine) execSelect(stmt *ast.SelectStmt) (*aggregate.Result, error) {
	bound, err := e.bind(stmt.Tables)
	if err != nil {
		return nil, err
	}

	part, err := Partition(stmt.Where, bound, func(ti, ci int) bool { return e.cat.HasIndex(bound, ti, ci) })
	if err != nil {
		return nil, err
	}

	rows := make([][]record.Row, len(bound.Tables))
	for i, t := range bound.Tables {
		indexOf := filter.IndexLookup(e.cat.IndexSet(bound.Names[i]).Index)
		err := filter.Scan(e.pager, t, part.PerTable[i], indexOf, func(row record.Row, rid record.Rid) error {
			rows[i] = append(rows[i], row)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	tuples, err := part.Plan.Run(rows)
	if err != nil {
		return nil, err
	}

	items, err := aggregate.Resolve(stmt.Items, bound.Names, bound.Tables, bound.resolver())
	if err != nil {
		return nil, err
	}
	result := aggregate.Project(tuples, items)
	return &result, nil
}

func (e *Engine) execInsert(stmt *ast.InsertStmt) error {
	t, err := e.cat.Table(stmt.Table)
	if err != nil {
		return err
	}
	return mutate.Insert(e.pager, t, e.cat.IndexSet(stmt.Table), e.cat, stmt.Rows)
}

func (e *Engine) execUpdate(stmt *ast.UpdateStmt) error {
	t, err := e.cat.Table(stmt.Table)
	if err != nil {
		return err
	}
	bound := boundTables{Names: []string{stmt.Table}, Tables: []*schema.Table{t}}
	part, err := Partition(stmt.Where, bound, func(ti, ci int) bool { return e.cat.HasIndex(bound, ti, ci) })
	if err != nil {
		return err
	}
	indexOf := filter.IndexLookup(e.cat.IndexSet(stmt.Table).Index)
	return mutate.Update(e.pager, t, e.cat.IndexSet(stmt.Table), e.cat, part.PerTable[0], indexOf, stmt.Set)
}

func (e *Engine) execDelete(stmt *ast.DeleteStmt) error {
	t, err := e.cat.Table(stmt.Table)
	if err != nil {
		return err
	}
	bound := boundTables{Names: []string{stmt.Table}, Tables: []*schema.Table{t}}
	part, err := Partition(stmt.Where, bound, func(ti, ci int) bool { return e.cat.HasIndex(bound, ti, ci) })
	if err != nil {
		return err
	}
	indexOf := filter.IndexLookup(e.cat.IndexSet(stmt.Table).Index)
	return mutate.Delete(e.pager, t, e.cat.IndexSet(stmt.Table), part.PerTable[0], indexOf)
}
