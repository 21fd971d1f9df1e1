// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package set

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/embeddedgo/wsync/wsync/internal/makefile"
	"github.com/embeddedgo/wsync/wsync/internal/util"
)

const Descr = "clear and/or append values to a Makefile variable"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  wsync %s [OPTIONS] NAME [VALUE...]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	dir := fs.String("C", ".", "workspace root `dir`")
	mkName := fs.String("f", "Makefile", "Makefile `name`, relative to the workspace root")
	clearVals := fs.Bool("clear", false, "remove all values before appending")
	prefix := fs.String("prefix", "", "`string` prepended to every appended value (e.g. -I, -D)")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetupLog(false)

	name, vals := fs.Arg(0), fs.Args()[1:]
	err := run(filepath.Join(*dir, *mkName), name, vals, *clearVals, *prefix)
	util.FatalErr("", err)
	slog.Info("Makefile updated", "var", name, "cleared", *clearVals, "added", len(vals))
}

// run optionally clears the variable name in the Makefile at path, appends
// vals to it and saves the Makefile. Nothing is written on error.
func run(path, name string, vals []string, clearVals bool, prefix string) error {
	mk, err := makefile.Load(path)
	if err != nil {
		return err
	}
	if clearVals {
		if err := mk.Clear(name); err != nil {
			return err
		}
	}
	if err := mk.Append(name, vals, prefix); err != nil {
		return err
	}
	return mk.Save()
}
