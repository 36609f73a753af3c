package main

import (
	"os"

	"github.com/oakdb/oakdb/internal/engine"
)

// ExecCmd runs every statement in a SQL script against the engine and
// exits, for non-interactive use (`oakdb exec script.sql`).
type ExecCmd struct {
	File string `arg:"" type:"existingfile" help:"SQL script to execute"`
}

func (c *ExecCmd) Run(eng *engine.Engine) error {
	sess := newSession(os.Stdout)
	defer sess.closeOutput()
	return sess.readFile(eng, c.File)
}
