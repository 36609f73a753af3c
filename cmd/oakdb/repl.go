package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/oakdb/oakdb/internal/engine"
)

// ReplCmd runs an interactive (or piped) SQL session against the open
// engine, reading statements terminated by ';' and dot-commands
// (§6 "CLI"): `.output`, `.read`, plus this build's `.stats` and
// `.backup`.
type ReplCmd struct{}

func (c *ReplCmd) Run(eng *engine.Engine) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	sess := newSession(os.Stdout)
	defer sess.closeOutput()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var buf strings.Builder
	printPrompt(interactive, buf.Len() > 0)

	for scanner.Scan() {
		line := scanner.Text()
		if buf.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				printPrompt(interactive, false)
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				quit, err := sess.dotCommand(eng, trimmed)
				if err != nil {
					fmt.Fprintln(os.Stderr, "error:", err)
				}
				if quit {
					return nil
				}
				printPrompt(interactive, false)
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteByte('\n')

		for {
			stmt, rest, ok := splitStatement(buf.String())
			if !ok {
				break
			}
			buf.Reset()
			buf.WriteString(rest)
			if err := sess.runAndPrint(eng, stmt); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}
		printPrompt(interactive, buf.Len() > 0)
	}
	return scanner.Err()
}

func printPrompt(interactive, continuation bool) {
	if !interactive {
		return
	}
	if continuation {
		fmt.Print("   ...> ")
	} else {
		fmt.Print("oakdb> ")
	}
}

// splitStatement finds the first ';' outside a single-quoted string
// literal, returning the statement before it and the remainder after.
func splitStatement(s string) (stmt string, rest string, ok bool) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", s, false
}
