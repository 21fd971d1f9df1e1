// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Version is written to the generated files and the Makefile header.
const Version = "2.0.0"

// SetupLog installs the default slog logger writing colored, human readable
// records to the standard error.
func SetupLog(verbose bool) {
	ll := new(slog.LevelVar)
	ll.Set(slog.LevelInfo)
	if verbose {
		ll.Set(slog.LevelDebug)
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Empty values only add noise.
			if s, ok := a.Value.Any().(string); ok && s == "" && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
}

func Warn(f string, args ...any) {
	slog.Warn(fmt.Sprintf(f, args...))
}

func Fatal(f string, args ...any) {
	slog.Error(fmt.Sprintf(f, args...))
	os.Exit(1)
}

// FatalErr logs an error description and exits the program if the
// err != nil.
func FatalErr(what string, err error) {
	if err == nil {
		return
	}
	if what != "" {
		slog.Error(what, "err", err)
	} else {
		slog.Error(err.Error())
	}
	os.Exit(1)
}
