// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package paths

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/embeddedgo/wsync/wsync/internal/util"
	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

const Descr = "print the workspace paths"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  wsync %s [OPTIONS]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	dir := fs.String("C", ".", "workspace root `dir`")
	rel := fs.Bool("rel", false, "print paths inside the workspace relative to its root")
	verbose := fs.Bool("v", false, "verbose output")
	fs.Parse(args)
	if fs.NArg() != 0 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetupLog(*verbose)
	ws, err := workspace.Open(*dir)
	util.FatalErr("", err)
	if *rel {
		ws = ws.Relative()
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	util.FatalErr("yaml", enc.Encode(ws))
	util.FatalErr("yaml", enc.Close())
}
