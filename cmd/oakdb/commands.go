package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/oakdb/oakdb/internal/engine"
)

// session holds the REPL's mutable output state, since `.output`
// redirects subsequent results to a file until turned back off.
type session struct {
	out     io.Writer
	outFile *os.File
}

func newSession(w io.Writer) *session { return &session{out: w} }

func (s *session) closeOutput() {
	if s.outFile != nil {
		s.outFile.Close()
		s.outFile = nil
	}
}

func (s *session) setOutput(path string) error {
	s.closeOutput()
	if path == "" || path == "stdout" {
		s.out = os.Stdout
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	s.outFile = f
	s.out = f
	return nil
}

// runAndPrint executes one statement and, for SELECT, renders its
// Result as CSV to the session's current output.
func (s *session) runAndPrint(eng *engine.Engine, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	res, err := runOne(eng, sql)
	if err != nil {
		return err
	}
	if res != nil {
		fmt.Fprint(s.out, engine.RenderCSV(*res))
	}
	return nil
}

// dotCommand handles a REPL meta-command. The bool return reports
// whether the session should exit.
func (s *session) dotCommand(eng *engine.Engine, line string) (bool, error) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case ".exit", ".quit":
		return true, nil
	case ".output":
		if len(args) == 0 {
			return false, s.setOutput("")
		}
		return false, s.setOutput(args[0])
	case ".read":
		if len(args) != 1 {
			return false, fmt.Errorf(".read requires a file path")
		}
		return false, s.readFile(eng, args[0])
	case ".stats":
		return false, s.printStats(eng)
	case ".backup":
		if len(args) != 1 {
			return false, fmt.Errorf(".backup requires a destination path")
		}
		return false, backupTo(eng, args[0])
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

// readFile executes every statement in a SQL script, in order — the
// `.read` dot-command.
func (s *session) readFile(eng *engine.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	buf := string(data)
	for {
		stmt, rest, ok := splitStatement(buf)
		if !ok {
			break
		}
		buf = rest
		if err := s.runAndPrint(eng, stmt); err != nil {
			return err
		}
	}
	return nil
}

// printStats reports table row counts and page-file size, human-
// readable via go-humanize — this build's `.stats` dot-command.
func (s *session) printStats(eng *engine.Engine) error {
	names := eng.TableNames()
	fmt.Fprintf(s.out, "page file: %s (%s, %s pages)\n",
		eng.Path(),
		humanize.Bytes(uint64(eng.PageCount())*8192),
		humanize.Comma(int64(eng.PageCount())),
	)
	for _, name := range names {
		n, err := eng.RowCount(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "  %-20s %s rows\n", name, humanize.Comma(int64(n)))
	}
	return nil
}
