// Package ast defines the statement and expression shapes the query
// execution core consumes (§6 EXTERNAL INTERFACES, "AST interface
// (consumed)"). The participle-based lexer and parser that produce
// these values (lexer.go, grammar.go, parse.go) live in this package
// too; Parse is their entry point.
package ast

// CmpOp is a comparison operator.
type CmpOp int

const (
	Lt CmpOp = iota
	Le
	Ge
	Gt
	Eq
	Ne
)

func (op CmpOp) String() string {
	switch op {
	case Lt:
		return "<"
	case Le:
		return "<="
	case Ge:
		return ">="
	case Gt:
		return ">"
	case Eq:
		return "="
	case Ne:
		return "<>"
	default:
		return "?"
	}
}

// LitKind identifies the kind of value a Lit carries.
type LitKind int

const (
	LitNull LitKind = iota
	LitInt
	LitBool
	LitFloat
	LitStr
)

// Lit is a literal value appearing in the AST.
type Lit struct {
	Kind LitKind
	Int  int32
	Bool bool
	Flt  float32
	Str  string
}

func NullLit() Lit           { return Lit{Kind: LitNull} }
func IntLit(v int32) Lit     { return Lit{Kind: LitInt, Int: v} }
func BoolLit(v bool) Lit     { return Lit{Kind: LitBool, Bool: v} }
func FloatLit(v float32) Lit { return Lit{Kind: LitFloat, Flt: v} }
func StrLit(v string) Lit    { return Lit{Kind: LitStr, Str: v} }

// ColRef names a column, qualified by table name if the query binds
// more than one table. Resolution (table/column-index/offset/type) is
// filled in by the core's binder before predicate compilation and
// lives in predicate.ResolvedCol, not here: the AST itself only
// carries surface-syntax names.
type ColRef struct {
	Table  string // "" if unqualified
	Column string
}

// AtomKind distinguishes the two things the RHS of a Cmp can be.
type AtomKind int

const (
	AtomCol AtomKind = iota
	AtomLit
)

// Atom is either a ColRef or a Lit.
type Atom struct {
	Kind AtomKind
	Col  ColRef
	Lit  Lit
}

func ColAtom(c ColRef) Atom { return Atom{Kind: AtomCol, Col: c} }
func LitAtom(l Lit) Atom    { return Atom{Kind: AtomLit, Lit: l} }

// ExprKind distinguishes the three expression shapes the grammar allows.
type ExprKind int

const (
	ExprCmp ExprKind = iota
	ExprIsNull
	ExprLike
)

// Expr is a leaf WHERE-clause predicate. The core does not support OR;
// a WHERE clause is a list of Exprs implicitly ANDed together (§4.2).
type Expr struct {
	Kind ExprKind

	// ExprCmp
	Op   CmpOp
	L    ColRef
	R    Atom

	// ExprIsNull
	IsNullCol   ColRef
	IsNullWant  bool // true => IS NULL, false => IS NOT NULL

	// ExprLike
	LikeCol     ColRef
	LikePattern string
}

func Cmp(op CmpOp, l ColRef, r Atom) Expr {
	return Expr{Kind: ExprCmp, Op: op, L: l, R: r}
}

func IsNull(col ColRef, want bool) Expr {
	return Expr{Kind: ExprIsNull, IsNullCol: col, IsNullWant: want}
}

func Like(col ColRef, pattern string) Expr {
	return Expr{Kind: ExprLike, LikeCol: col, LikePattern: pattern}
}

// AggOp names a select-list aggregation function.
type AggOp int

const (
	AggNone AggOp = iota
	AggCount
	AggCountStar
	AggSum
	AggAvg
	AggMin
	AggMax
)

// SelectItem is one entry of a SELECT list, or the lone entry for `*`.
type SelectItem struct {
	Star bool // SELECT * — Col/Agg ignored
	Col  ColRef
	Agg  AggOp
}

// Statement is the sum type of top-level DML statements the core
// executes. DDL/session statements (CreateDb, DropDb, ShowDb, ShowDbs,
// UseDb, CreateTable, DropTable, ShowTable, ShowTables, CreateIndex,
// DropIndex) are part of the consumed AST surface but are handled by
// the schema/DDL layer, out of this core's scope (§1); only their
// shapes needed to drive CreateIndex/DropIndex (which the Mutator and
// Filter Driver must react to) are modeled here.
type Statement struct {
	Kind StatementKind

	Select *SelectStmt
	Insert *InsertStmt
	Update *UpdateStmt
	Delete *DeleteStmt

	CreateIndex *IndexStmt
	DropIndex   *IndexStmt
}

type StatementKind int

const (
	StmtSelect StatementKind = iota
	StmtInsert
	StmtUpdate
	StmtDelete
	StmtCreateIndex
	StmtDropIndex
)

type SelectStmt struct {
	Items []SelectItem
	Tables []string // FROM clause, textual order (§4.4)
	Where []Expr
}

type InsertStmt struct {
	Table string
	Rows  [][]Lit // each inner slice has arity == column count
}

type Assignment struct {
	Column string
	Value  Lit
}

type UpdateStmt struct {
	Table string
	Set   []Assignment
	Where []Expr
}

type DeleteStmt struct {
	Table string
	Where []Expr
}

type IndexStmt struct {
	Table  string
	Column string
}
