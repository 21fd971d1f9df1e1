// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watch

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/embeddedgo/wsync/wsync/internal/cmd/update"
	"github.com/embeddedgo/wsync/wsync/internal/updater"
	"github.com/embeddedgo/wsync/wsync/internal/util"
	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

const Descr = "update the workspace every time the Makefile or c_cpp_properties.json changes"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  wsync %s [OPTIONS]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	f := update.AddFlags(fs)
	delay := fs.Duration("delay", 500*time.Millisecond, "wait `time` for more changes before updating")
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
	opts := f.Options()
	_, err = updater.Run(ctx, ws, opts)
	util.FatalErr("update", err)
	// Only the first update uses the paths given in the command line, the
	// next ones read them from buildData.json.
	opts.OpenOcdConfig = nil
	opts.SvdPath = ""
	err = updater.Watch(ctx, ws, *delay, func(ctx context.Context) error {
		_, err := updater.Run(ctx, ws, opts)
		return err
	})
	util.FatalErr("watch", err)
}
