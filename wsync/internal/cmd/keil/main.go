// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keil

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/embeddedgo/wsync/wsync/internal/keil"
	"github.com/embeddedgo/wsync/wsync/internal/util"
)

const Descr = "import a Keil project into a Makefile generated by STM32CubeMX"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  wsync %s [OPTIONS] [PROJECT%s]\n"+
				"The Makefile must be generated by STM32CubeMX for the same chip.\n"+
				"Its sources, defines and includes are replaced with the Keil ones.\n"+
				"Options:\n",
			cmd, keil.Ext,
		)
		fs.PrintDefaults()
	}
	dir := fs.String("C", ".", "workspace root `dir`")
	mkName := fs.String("f", "Makefile", "Makefile `name`, relative to the workspace root")
	target := fs.String("target", "", "Keil target `name` (default the first one)")
	verbose := fs.Bool("v", false, "verbose output")
	fs.Parse(args)
	if fs.NArg() > 1 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetupLog(*verbose)

	root, err := filepath.Abs(*dir)
	util.FatalErr("", err)
	proj := fs.Arg(0)
	if proj == "" {
		proj, err = keil.Find(root)
		util.FatalErr("", err)
	}
	p, err := keil.Load(proj, root, *target)
	util.FatalErr("", err)
	slog.Info(
		"Keil project loaded", "file", proj, "target", p.Target,
		"device", p.Device, "svd", p.SvdFile,
		"cSources", len(p.CSources), "asmSources", len(p.AsmSources),
	)
	util.FatalErr("import", p.Import(filepath.Join(root, *mkName)))
	ws, err := p.WriteWorkspace(root)
	util.FatalErr("", err)
	if ws != "" {
		slog.Info("workspace created", "file", ws)
	}
	slog.Info("Keil project imported, run 'wsync update' next")
}
