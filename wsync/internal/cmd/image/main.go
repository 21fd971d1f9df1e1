// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"

	"github.com/embeddedgo/wsync/wsync/internal/settings"
	"github.com/embeddedgo/wsync/wsync/internal/util"
	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

const (
	DescrBin = "convert the built ELF file to a binary image"
	DescrHex = "convert the built ELF file to the Intel HEX format"
)

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  wsync %s [OPTIONS] [ELF [%s]]\nOptions:\n",
			cmd, strings.ToUpper(cmd),
		)
		fs.PrintDefaults()
	}
	dir := fs.String("C", ".", "workspace root `dir`, used if ELF is not given")
	var pad, lineLen *uint
	switch cmd {
	case "bin":
		pad = fs.Uint("pad", 0xff, "pad `byte` used to fill gaps between sections")
	case "hex":
		lineLen = fs.Uint("n", 16, "number of data `bytes` in a HEX record (1-255)")
	}
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetupLog(false)

	var opt byte
	switch {
	case pad != nil:
		if *pad > 0xff {
			util.Fatal("pad byte out of range: %#x", *pad)
		}
		opt = byte(*pad)
	case lineLen != nil:
		if *lineLen < 1 || *lineLen > 255 {
			util.Fatal("HEX record length out of range: %d", *lineLen)
		}
		opt = byte(*lineLen)
	}

	elf := fs.Arg(0)
	if elf == "" {
		ws, err := workspace.Open(*dir)
		util.FatalErr("", err)
		bd, err := settings.LoadBuildData(ws.BuildData)
		util.FatalErr("", err)
		if bd.TargetExecutablePath == "" {
			util.Fatal("%s: no targetExecutablePath, run update first", ws.BuildData)
		}
		elf = filepath.Join(ws.Root, filepath.FromSlash(bd.TargetExecutablePath))
	}
	out := fs.Arg(1)
	if out == "" {
		out = strings.TrimSuffix(elf, filepath.Ext(elf)) + "." + cmd
	}
	n, err := convert(cmd, elf, out, opt)
	util.FatalErr(cmd, err)
	slog.Info("image written", "file", out, "bytes", n)
}

// convert writes the firmware read from elf to out as a binary image
// (format "bin", opt is the pad byte) or as Intel HEX (format "hex", opt is
// the record length). It returns the number of firmware bytes. A partially
// written out is removed on error.
func convert(format, elf, out string, opt byte) (n int, err error) {
	segs, err := util.ReadFirmware(elf)
	if err != nil {
		return 0, err
	}
	of, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := of.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()
	switch format {
	case "bin":
		_, err = segs.Flatten(of, opt)
	case "hex":
		if opt == 0 {
			return 0, errors.New("zero HEX record length")
		}
		mem := gohex.NewMemory()
		for _, s := range segs {
			if err = mem.AddBinary(uint32(s.Paddr), s.Data); err != nil {
				return 0, err
			}
		}
		err = mem.DumpIntelHex(of, opt)
	default:
		err = fmt.Errorf("unknown image format %q", format)
	}
	if err != nil {
		return 0, err
	}
	return segs.Size(), nil
}
