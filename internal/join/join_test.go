package join

import (
	"testing"

	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

func intTable(name string) *schema.Table {
	return schema.NewTable(name, []schema.Column{{Name: "n", Type: schema.Int32}}, nil, nil)
}

func intRow(tbl *schema.Table, v int32) record.Row {
	row := record.NewRow(make([]byte, tbl.RecordSize()), tbl)
	if err := record.Fill(row, 0, ast.IntLit(v)); err != nil {
		panic(err)
	}
	return row
}

func twoColTable(name string) *schema.Table {
	return schema.NewTable(name, []schema.Column{
		{Name: "a", Type: schema.Int32},
		{Name: "b", Type: schema.Int32},
	}, nil, nil)
}

func twoColRow(tbl *schema.Table, a, b int32) record.Row {
	row := record.NewRow(make([]byte, tbl.RecordSize()), tbl)
	if err := record.Fill(row, 0, ast.IntLit(a)); err != nil {
		panic(err)
	}
	if err := record.Fill(row, 1, ast.IntLit(b)); err != nil {
		panic(err)
	}
	return row
}

func TestCheckDupTablesRejectsRepeats(t *testing.T) {
	if err := CheckDupTables([]string{"a", "b"}); err != nil {
		t.Fatalf("CheckDupTables(distinct) error = %v", err)
	}
	err := CheckDupTables([]string{"a", "b", "a"})
	if !oakerr.Is(err, oakerr.DupTable) {
		t.Fatalf("CheckDupTables(dup) error = %v, want DupTable", err)
	}
}

func TestPlanRunSingleTablePassesThrough(t *testing.T) {
	plan := NewPlan(1)
	tbl := intTable("t")
	rows := [][]record.Row{{intRow(tbl, 1), intRow(tbl, 2)}}

	got, err := plan.Run(rows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Run() returned %d tuples, want 2", len(got))
	}
}

func TestPlanRunTwoTablesAppliesCrossPredicate(t *testing.T) {
	plan := NewPlan(2)
	left := intTable("l")
	right := intTable("r")

	plan.Set(0, 1, func(l, r record.Row) bool {
		return l.ReadInt32(0) == r.ReadInt32(0)
	})

	rows := [][]record.Row{
		{intRow(left, 1), intRow(left, 2)},
		{intRow(right, 2), intRow(right, 3)},
	}

	got, err := plan.Run(rows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Run() produced %d tuples, want 1", len(got))
	}
	if got[0][0].ReadInt32(0) != 2 || got[0][1].ReadInt32(0) != 2 {
		t.Fatalf("Run() matched tuple = (%d, %d), want (2, 2)",
			got[0][0].ReadInt32(0), got[0][1].ReadInt32(0))
	}
}

func TestPlanRunAccumulatesMultipleCrossPredicatesOnSameSlot(t *testing.T) {
	// select * from t, u where t.a=u.x and t.b=u.y — two WHERE clauses
	// both naming the (t, u) table pair must both be enforced, not just
	// whichever Set() call came last.
	plan := NewPlan(2)
	left := twoColTable("t")
	right := twoColTable("u")

	plan.Set(0, 1, func(l, r record.Row) bool { return l.ReadInt32(0) == r.ReadInt32(0) }) // t.a=u.x
	plan.Set(0, 1, func(l, r record.Row) bool { return l.ReadInt32(1) == r.ReadInt32(1) }) // t.b=u.y

	rows := [][]record.Row{
		{twoColRow(left, 1, 10), twoColRow(left, 1, 20)},
		{twoColRow(right, 1, 10), twoColRow(right, 1, 99)},
	}

	got, err := plan.Run(rows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Run() with both cross predicates produced %d tuples, want 1 (a single Set() overwriting the other would produce 2)", len(got))
	}
	if got[0][0].ReadInt32(1) != 10 || got[0][1].ReadInt32(1) != 10 {
		t.Fatalf("matched tuple b/y = (%d, %d), want (10, 10)", got[0][0].ReadInt32(1), got[0][1].ReadInt32(1))
	}
}

func TestPlanRunCartesianWithoutCrossPredicate(t *testing.T) {
	plan := NewPlan(2)
	left := intTable("l")
	right := intTable("r")

	rows := [][]record.Row{
		{intRow(left, 1), intRow(left, 2)},
		{intRow(right, 10), intRow(right, 20)},
	}

	got, err := plan.Run(rows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Run() without a cross predicate produced %d tuples, want 4 (full cartesian)", len(got))
	}
}

func TestPlanRunThreeTablesChainsPredicates(t *testing.T) {
	plan := NewPlan(3)
	a, b, c := intTable("a"), intTable("b"), intTable("c")

	eq := func(l, r record.Row) bool { return l.ReadInt32(0) == r.ReadInt32(0) }
	plan.Set(0, 1, eq)
	plan.Set(1, 2, eq)

	rows := [][]record.Row{
		{intRow(a, 1), intRow(a, 2)},
		{intRow(b, 1), intRow(b, 2)},
		{intRow(c, 1), intRow(c, 99)},
	}

	got, err := plan.Run(rows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Run() produced %d tuples, want 1", len(got))
	}
	for i, tup := range got {
		if tup[0].ReadInt32(0) != 1 || tup[1].ReadInt32(0) != 1 || tup[2].ReadInt32(0) != 1 {
			t.Fatalf("tuple %d = (%d,%d,%d), want all 1s", i, tup[0].ReadInt32(0), tup[1].ReadInt32(0), tup[2].ReadInt32(0))
		}
	}
}

func TestPlanRunRowSetCountMismatch(t *testing.T) {
	plan := NewPlan(2)
	_, err := plan.Run([][]record.Row{{}})
	if err == nil {
		t.Fatal("Run() with wrong number of row sets should error")
	}
}

func TestPlanRunZeroTables(t *testing.T) {
	plan := NewPlan(0)
	got, err := plan.Run(nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Run() with 0 tables = %v, want nil", got)
	}
}
