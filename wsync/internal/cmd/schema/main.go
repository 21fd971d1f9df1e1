// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/embeddedgo/wsync/wsync/internal/settings"
	"github.com/embeddedgo/wsync/wsync/internal/util"
)

const Descr = "print the JSON Schema of a settings file"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr, "Usage:\n  wsync %s [OPTIONS] %s\nOptions:\n",
			cmd, strings.Join(settings.SchemaNames(), "|"),
		)
		fs.PrintDefaults()
	}
	out := fs.String("o", "", "write the schema to `file` instead of the standard output")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetupLog(false)
	b, err := settings.Schema(fs.Arg(0))
	util.FatalErr("", err)
	b = append(b, '\n')
	if *out != "" {
		util.FatalErr("", os.WriteFile(*out, b, 0o644))
		return
	}
	_, err = os.Stdout.Write(b)
	util.FatalErr("", err)
}
