// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package update

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/embeddedgo/wsync/wsync/internal/settings"
	"github.com/embeddedgo/wsync/wsync/internal/updater"
	"github.com/embeddedgo/wsync/wsync/internal/util"
	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

const Descr = "update the Makefile and workspace settings after CubeMX regenerated the project"

// Flags are the update options shared with the watch command.
type Flags struct {
	Dir     *string
	Verbose *bool
	gcc     *string
	make    *string
	openocd *string
	iface   *string
	cfg     *string
	svd     *string
}

// AddFlags defines the update options in fs.
func AddFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Dir:     fs.String("C", ".", "workspace root `dir`"),
		gcc:     fs.String("gcc", "", "arm-none-eabi-gcc `path` or command"),
		make:    fs.String("make", "", "make `path` or command"),
		openocd: fs.String("openocd", "", "openocd `path` or command"),
		iface:   fs.String("openocd-interface", "", "OpenOCD interface configuration `file` (default: "+updater.Interface+" found next to openocd)"),
		cfg:     fs.String("openocd-cfg", "", "OpenOCD target configuration `files` CFG1[,CFG2[,...]], absolute or relative to the OpenOCD scripts folder"),
		svd:     fs.String("svd", "", "CMSIS SVD `file` of the target chip"),
		Verbose: fs.Bool("v", false, "verbose output"),
	}
}

// Options returns the updater options described by the parsed flags.
func (f *Flags) Options() updater.Options {
	opts := updater.Options{
		Tools: settings.ToolsPaths{
			GccExePath:           *f.gcc,
			BuildToolsPath:       *f.make,
			OpenOcdPath:          *f.openocd,
			OpenOcdInterfacePath: *f.iface,
		},
		SvdPath: *f.svd,
		Version: util.Version,
	}
	if *f.cfg != "" {
		opts.OpenOcdConfig = strings.Split(*f.cfg, ",")
	}
	return opts
}

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  wsync %s [OPTIONS]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	f := AddFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 0 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetupLog(*f.Verbose)
	ws, err := workspace.Open(*f.Dir)
	util.FatalErr("", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	start := time.Now()
	bd, err := updater.Run(ctx, ws, f.Options())
	util.FatalErr("update", err)
	slog.Info(
		"update done",
		"target", bd.TargetExecutablePath,
		"took", time.Since(start).Round(time.Millisecond),
	)
}
