package main

import (
	"context"

	"github.com/oakdb/oakdb/internal/aggregate"
	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/engine"
	"github.com/oakdb/oakdb/internal/oaklog"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

// runOne parses and executes a single statement, returning a non-nil
// Result only for SELECT.
func runOne(eng *engine.Engine, sql string) (*aggregate.Result, error) {
	parsed, err := ast.Parse(sql)
	if err != nil {
		return nil, err
	}

	switch {
	case parsed.CreateTable != nil:
		return nil, createTable(eng, parsed.CreateTable)
	case parsed.DropTable != "":
		return nil, eng.DropTable(parsed.DropTable)
	case parsed.DML != nil:
		ctx := oaklog.WithRequestID(context.Background(), oaklog.NewRequestID())
		return eng.Execute(ctx, *parsed.DML)
	default:
		return nil, nil
	}
}

// createTable persists a CREATE TABLE's pending CHECK constraints to
// CheckPages before registering the table (ast.Parse can't
// do this itself — it has no Pager, see ast.PendingCheck).
func createTable(eng *engine.Engine, ct *ast.CreateTableStmt) error {
	for _, pc := range ct.PendingChecks {
		root, err := eng.WriteCheck(pc.Values)
		if err != nil {
			return err
		}
		ct.Table.Checks = append(ct.Table.Checks, schema.CheckConstraint{Column: pc.Column, Root: root})
	}
	return eng.CreateTable(ct.Table)
}
