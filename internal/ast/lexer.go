package ast

import "github.com/alecthomas/participle/v2/lexer"

// sqlLexer tokenizes a DML/DDL statement. Keywords are not their own
// token kind; they're matched as case-insensitive literals against
// Ident in the grammar (mirrors the OSIS reference grammar's Ident/
// Punct split, scaled up with Float/String/Op token kinds SQL needs).
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*`},
	{Name: "Float", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Op", Pattern: `<>|<=|>=|<|>|=`},
	{Name: "Punct", Pattern: `[(),.*;]`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})
