// Command oakdb is the REPL/CLI front end for the query execution
// core: it parses SQL with the participle grammar in internal/ast and
// drives internal/engine, in the same noun-first kong style the
// teacher's own CLI uses.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/oakdb/oakdb/internal/engine"
	"github.com/oakdb/oakdb/internal/oaklog"
)

const version = "0.1.0"

// CLI is the top-level command tree.
var CLI struct {
	DataDir string `name:"data-dir" short:"d" default:"oakdb.db" type:"path" help:"Page file to open (created if absent)"`
	Verbose bool   `name:"verbose" short:"v" help:"Log at debug level instead of info"`

	Repl    ReplCmd    `cmd:"" default:"1" help:"Start an interactive SQL REPL"`
	Exec    ExecCmd    `cmd:"" help:"Execute SQL statements from a file and exit"`
	Serve   ServeCmd   `cmd:"" help:"Serve the engine over a websocket"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("oakdb version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("oakdb"),
		kong.Description("oakdb - a small relational query execution core"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	level := oaklog.LevelInfo
	if CLI.Verbose {
		level = oaklog.LevelDebug
	}
	oaklog.InitLogger(level, oaklog.FormatText)

	eng, err := engine.Open(CLI.DataDir)
	ctx.FatalIfErrorf(err)
	defer eng.Close()

	err = ctx.Run(eng)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
