package ast

import (
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

var sqlParser = participle.MustBuild[gStatement](
	participle.Lexer(sqlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

// PendingCheck is a CREATE TABLE's CHECK(col IN (...)) constraint,
// already encoded to the column's raw key-byte entries but not yet
// written to a CheckPage — that needs a Pager, which this package
// doesn't have (§1: parsing is peripheral to the core). The caller
// writes the page (e.g. via Engine.WriteCheck) and fills in the
// returned CheckConstraint's Root before calling Engine.CreateTable.
type PendingCheck struct {
	Column string
	Values [][]byte
}

// CreateTableStmt is a parsed CREATE TABLE, with CHECK constraints
// pending persistence (see PendingCheck).
type CreateTableStmt struct {
	Table         *schema.Table
	PendingChecks []PendingCheck
}

// ParsedStatement is the sum of everything Parse can produce: exactly
// one field is set. DDL shapes the core doesn't model (CREATE/DROP
// TABLE) are surfaced distinctly from the Statement the query
// execution core consumes.
type ParsedStatement struct {
	DML         *Statement
	CreateTable *CreateTableStmt
	DropTable   string
}

// Parse parses one SQL statement (no trailing ';' required) into
// whichever shape it names.
func Parse(sql string) (ParsedStatement, error) {
	g, err := sqlParser.ParseString("", sql)
	if err != nil {
		return ParsedStatement{}, oakerr.Wrap(oakerr.SyntaxError, err, "parse error")
	}
	switch {
	case g.Select != nil:
		stmt, err := convSelect(g.Select)
		return ParsedStatement{DML: &Statement{Kind: StmtSelect, Select: stmt}}, err
	case g.Insert != nil:
		stmt, err := convInsert(g.Insert)
		return ParsedStatement{DML: &Statement{Kind: StmtInsert, Insert: stmt}}, err
	case g.Update != nil:
		stmt, err := convUpdate(g.Update)
		return ParsedStatement{DML: &Statement{Kind: StmtUpdate, Update: stmt}}, err
	case g.Delete != nil:
		stmt, err := convDelete(g.Delete)
		return ParsedStatement{DML: &Statement{Kind: StmtDelete, Delete: stmt}}, err
	case g.CreateIndex != nil:
		return ParsedStatement{DML: &Statement{Kind: StmtCreateIndex, CreateIndex: &IndexStmt{
			Table: g.CreateIndex.Table, Column: g.CreateIndex.Column,
		}}}, nil
	case g.DropIndex != nil:
		return ParsedStatement{DML: &Statement{Kind: StmtDropIndex, DropIndex: &IndexStmt{
			Table: g.DropIndex.Table, Column: g.DropIndex.Column,
		}}}, nil
	case g.CreateTable != nil:
		ct, err := convCreateTable(g.CreateTable)
		return ParsedStatement{CreateTable: ct}, err
	case g.DropTable != nil:
		return ParsedStatement{DropTable: g.DropTable.Table}, nil
	default:
		return ParsedStatement{}, oakerr.New(oakerr.SyntaxError, "empty statement")
	}
}

func convColRef(g *gColRef) ColRef {
	if g.Second != nil {
		return ColRef{Table: g.First, Column: *g.Second}
	}
	return ColRef{Column: g.First}
}

func unquoteStr(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "'"), "'")
	return strings.ReplaceAll(s, "''", "'")
}

func convLit(g *gLit) (Lit, error) {
	switch {
	case g.Null:
		return NullLit(), nil
	case g.True:
		return BoolLit(true), nil
	case g.False:
		return BoolLit(false), nil
	case g.Float != nil:
		return FloatLit(float32(*g.Float)), nil
	case g.Int != nil:
		if *g.Int > (1<<31 - 1) || *g.Int < -(1 << 31) {
			return Lit{}, oakerr.New(oakerr.IntOverflow, "integer literal %d does not fit in 32 bits", *g.Int)
		}
		return IntLit(int32(*g.Int)), nil
	case g.Str != nil:
		return StrLit(unquoteStr(*g.Str)), nil
	default:
		return Lit{}, oakerr.New(oakerr.SyntaxError, "empty literal")
	}
}

func convAtom(g *gAtom) (Atom, error) {
	if g.Lit != nil {
		lit, err := convLit(g.Lit)
		if err != nil {
			return Atom{}, err
		}
		return LitAtom(lit), nil
	}
	return ColAtom(convColRef(g.Col)), nil
}

var cmpOps = map[string]CmpOp{"<": Lt, "<=": Le, ">=": Ge, ">": Gt, "=": Eq, "<>": Ne}

func convExpr(g *gExpr) (Expr, error) {
	col := convColRef(g.Col)
	switch {
	case g.IsNull != nil:
		return IsNull(col, !g.IsNull.Not), nil
	case g.Like != nil:
		return Like(col, unquoteStr(g.Like.Pattern)), nil
	case g.Cmp != nil:
		r, err := convAtom(g.Cmp.Right)
		if err != nil {
			return Expr{}, err
		}
		op, ok := cmpOps[g.Cmp.Op]
		if !ok {
			return Expr{}, oakerr.New(oakerr.SyntaxError, "unknown comparison operator %q", g.Cmp.Op)
		}
		return Cmp(op, col, r), nil
	default:
		return Expr{}, oakerr.New(oakerr.SyntaxError, "empty predicate")
	}
}

func convWhere(g *gWhere) ([]Expr, error) {
	if g == nil {
		return nil, nil
	}
	exprs := make([]Expr, 0, len(g.Exprs))
	for _, e := range g.Exprs {
		expr, err := convExpr(e)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

var aggFuncs = map[string]AggOp{"COUNT": AggCount, "SUM": AggSum, "AVG": AggAvg, "MIN": AggMin, "MAX": AggMax}

func convSelectItem(g *gItem) (SelectItem, error) {
	switch {
	case g.Star:
		return SelectItem{Star: true}, nil
	case g.Agg != nil:
		if g.Agg.Star {
			return SelectItem{Agg: AggCountStar}, nil
		}
		op, ok := aggFuncs[strings.ToUpper(g.Agg.Func)]
		if !ok {
			return SelectItem{}, oakerr.New(oakerr.InvalidAgg, "unknown aggregate function %q", g.Agg.Func)
		}
		return SelectItem{Col: convColRef(g.Agg.Col), Agg: op}, nil
	default:
		return SelectItem{Col: convColRef(g.Col)}, nil
	}
}

func convSelect(g *gSelect) (*SelectStmt, error) {
	items := make([]SelectItem, 0, len(g.Items))
	for _, it := range g.Items {
		item, err := convSelectItem(it)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	where, err := convWhere(g.Where)
	if err != nil {
		return nil, err
	}
	return &SelectStmt{Items: items, Tables: g.Tables, Where: where}, nil
}

func convInsert(g *gInsert) (*InsertStmt, error) {
	rows := make([][]Lit, 0, len(g.Rows))
	for _, r := range g.Rows {
		row := make([]Lit, 0, len(r.Values))
		for _, v := range r.Values {
			lit, err := convLit(v)
			if err != nil {
				return nil, err
			}
			row = append(row, lit)
		}
		rows = append(rows, row)
	}
	return &InsertStmt{Table: g.Table, Rows: rows}, nil
}

func convUpdate(g *gUpdate) (*UpdateStmt, error) {
	sets := make([]Assignment, 0, len(g.Assignments))
	for _, a := range g.Assignments {
		lit, err := convLit(a.Value)
		if err != nil {
			return nil, err
		}
		sets = append(sets, Assignment{Column: a.Column, Value: lit})
	}
	where, err := convWhere(g.Where)
	if err != nil {
		return nil, err
	}
	return &UpdateStmt{Table: g.Table, Set: sets, Where: where}, nil
}

func convDelete(g *gDelete) (*DeleteStmt, error) {
	where, err := convWhere(g.Where)
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{Table: g.Table, Where: where}, nil
}

var bareTypes = map[string]schema.BareType{
	"INT": schema.Int32, "BOOL": schema.Bool, "FLOAT": schema.Float32,
	"CHAR": schema.Char, "VARCHAR": schema.VarChar, "DATE": schema.Date,
}

func convCreateTable(g *gCreateTable) (*CreateTableStmt, error) {
	var cols []schema.Column
	var fks []schema.ForeignKey
	type pendingEntry struct {
		column string
		lits   []Lit
	}
	var pendingLits []pendingEntry

	for _, c := range g.Columns {
		switch {
		case c.Foreign != nil:
			fks = append(fks, schema.ForeignKey{
				Column: c.Foreign.Column, RefTable: c.Foreign.RefTable, RefColumn: c.Foreign.RefColumn,
			})
		case c.Check != nil:
			lits := make([]Lit, 0, len(c.Check.Values))
			for _, v := range c.Check.Values {
				lit, err := convLit(v)
				if err != nil {
					return nil, err
				}
				lits = append(lits, lit)
			}
			pendingLits = append(pendingLits, pendingEntry{column: c.Check.Column, lits: lits})
		case c.Plain != nil:
			bt, ok := bareTypes[strings.ToUpper(c.Plain.Type)]
			if !ok {
				return nil, oakerr.New(oakerr.SyntaxError, "unknown column type %q", c.Plain.Type)
			}
			n := 0
			if c.Plain.N != nil {
				n = int(*c.Plain.N)
			}
			cols = append(cols, schema.Column{
				Name: c.Plain.Name, Type: bt, N: n,
				NotNull: c.Plain.NotNull, PrimaryKey: c.Plain.PrimaryKey,
			})
		}
	}

	table := schema.NewTable(g.Table, cols, fks, nil)

	pending := make([]PendingCheck, 0, len(pendingLits))
	for _, p := range pendingLits {
		ci := table.ColumnIndex(p.column)
		if ci < 0 {
			return nil, oakerr.New(oakerr.NoSuchCol, "CHECK references unknown column %q", p.column)
		}
		col := &table.Columns[ci]
		entries := make([][]byte, 0, len(p.lits))
		for _, lit := range p.lits {
			v, err := litToKeyBytes(lit, col.Type)
			if err != nil {
				return nil, err
			}
			entries = append(entries, v)
		}
		pending = append(pending, PendingCheck{Column: p.column, Values: entries})
	}

	return &CreateTableStmt{Table: table, PendingChecks: pending}, nil
}

// litToKeyBytes mirrors record.Fill's literal-to-column-type dispatch
// (§4.1) to encode a CHECK constraint's declared literal set in the
// same raw key format checkConstraints compares rows against.
func litToKeyBytes(lit Lit, t schema.BareType) ([]byte, error) {
	switch {
	case t == schema.Int32 && lit.Kind == LitInt:
		return record.Value{Type: schema.Int32, I32: lit.Int}.KeyBytes(), nil
	case t == schema.Bool && lit.Kind == LitBool:
		return record.Value{Type: schema.Bool, B: lit.Bool}.KeyBytes(), nil
	case t == schema.Float32 && (lit.Kind == LitFloat || lit.Kind == LitInt):
		f := lit.Flt
		if lit.Kind == LitInt {
			f = float32(lit.Int)
		}
		return record.Value{Type: schema.Float32, F32: f}.KeyBytes(), nil
	case (t == schema.Char || t == schema.VarChar) && lit.Kind == LitStr:
		return record.Value{Type: t, Str: lit.Str}.KeyBytes(), nil
	case t == schema.Date && lit.Kind == LitStr:
		d, err := record.ParseDate(lit.Str)
		if err != nil {
			return nil, err
		}
		return record.Value{Type: schema.Date, I32: d}.KeyBytes(), nil
	default:
		return nil, oakerr.NewTypeMismatch(bareTypeNameForParse(t), litKindNameForParse(lit.Kind))
	}
}

func bareTypeNameForParse(t schema.BareType) string {
	switch t {
	case schema.Int32:
		return "int"
	case schema.Bool:
		return "bool"
	case schema.Float32:
		return "float"
	case schema.Char:
		return "char"
	case schema.VarChar:
		return "varchar"
	case schema.Date:
		return "date"
	default:
		return "?"
	}
}

func litKindNameForParse(k LitKind) string {
	switch k {
	case LitNull:
		return "null"
	case LitInt:
		return "int"
	case LitBool:
		return "bool"
	case LitFloat:
		return "float"
	case LitStr:
		return "string"
	default:
		return "?"
	}
}
