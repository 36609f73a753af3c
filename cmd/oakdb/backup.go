package main

import (
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/oakdb/oakdb/internal/engine"
)

// backupTo xz-compresses a snapshot of the engine's page file to dest
// — this build's `.backup` dot-command, mirroring the teacher's own
// use of ulikunitz/xz for capsule archival.
func backupTo(eng *engine.Engine, dest string) error {
	src, err := os.Open(eng.Path())
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := xz.NewWriter(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
