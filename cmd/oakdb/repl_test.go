package main

import "testing"

func TestSplitStatementFindsTerminator(t *testing.T) {
	stmt, rest, ok := splitStatement("SELECT * FROM t; SELECT 1;")
	if !ok {
		t.Fatal("splitStatement() should find the first ';'")
	}
	if stmt != "SELECT * FROM t" {
		t.Fatalf("stmt = %q, want %q", stmt, "SELECT * FROM t")
	}
	if rest != " SELECT 1;" {
		t.Fatalf("rest = %q, want %q", rest, " SELECT 1;")
	}
}

func TestSplitStatementIgnoresSemicolonInsideQuotes(t *testing.T) {
	stmt, rest, ok := splitStatement("INSERT INTO t VALUES ('a;b'); DROP TABLE t;")
	if !ok {
		t.Fatal("splitStatement() should find the terminator after the quoted literal")
	}
	if stmt != "INSERT INTO t VALUES ('a;b')" {
		t.Fatalf("stmt = %q, want the full INSERT including the quoted semicolon", stmt)
	}
	if rest != " DROP TABLE t;" {
		t.Fatalf("rest = %q, want the remaining statement", rest)
	}
}

func TestSplitStatementNoTerminatorReturnsFalse(t *testing.T) {
	_, rest, ok := splitStatement("SELECT * FROM t")
	if ok {
		t.Fatal("splitStatement() without a ';' should report ok = false")
	}
	if rest != "SELECT * FROM t" {
		t.Fatalf("rest = %q, want the original input unchanged", rest)
	}
}

func TestSplitStatementUnterminatedQuoteNeverMatches(t *testing.T) {
	_, _, ok := splitStatement("INSERT INTO t VALUES ('unterminated; still in quote")
	if ok {
		t.Fatal("splitStatement() should not treat a ';' inside an unterminated quote as a terminator")
	}
}

func TestSessionDotCommandExit(t *testing.T) {
	sess := newSession(nil)
	quit, err := sess.dotCommand(nil, ".exit")
	if err != nil {
		t.Fatalf(".exit returned error = %v", err)
	}
	if !quit {
		t.Fatal(".exit should report quit = true")
	}
}

func TestSessionDotCommandUnknown(t *testing.T) {
	sess := newSession(nil)
	_, err := sess.dotCommand(nil, ".bogus")
	if err == nil {
		t.Fatal("unknown dot-command should return an error")
	}
}
