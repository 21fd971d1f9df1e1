// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/embeddedgo/wsync/wsync/internal/settings"
	"github.com/embeddedgo/wsync/wsync/internal/tools"
	"github.com/embeddedgo/wsync/wsync/internal/util"
	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

const Descr = "verify the tool and target paths stored in buildData.json"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  wsync %s [OPTIONS]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	dir := fs.String("C", ".", "workspace root `dir`")
	verbose := fs.Bool("v", false, "verbose output")
	fs.Parse(args)
	if fs.NArg() != 0 {
		fs.Usage()
		os.Exit(1)
	}
	util.SetupLog(*verbose)
	ws, err := workspace.Open(*dir)
	util.FatalErr("", err)
	bd, err := settings.LoadBuildData(ws.BuildData)
	util.FatalErr("", err)

	for _, p := range []struct{ key, path string }{
		{"gccExePath", bd.GccExePath},
		{"gccIncludePath", bd.GccIncludePath},
		{"buildToolsPath", bd.BuildToolsPath},
		{"openOcdPath", bd.OpenOcdPath},
		{"openOcdInterfacePath", bd.OpenOcdInterfacePath},
		{"stm32SvdPath", bd.Stm32SvdPath},
	} {
		fmt.Printf("%-21s %-4s %s\n", p.key, status(p.path), p.path)
	}
	for _, c := range bd.OpenOcdConfig {
		fmt.Printf("%-21s %-4s %s\n", "openOcdConfig", status(c), c)
	}
	if bd.Stm32SvdPath != "" {
		dev, err := tools.CheckSVD(bd.Stm32SvdPath)
		util.FatalErr("svd", err)
		cpu := "?"
		if dev.CPU != nil {
			cpu = dev.CPU.Name
		}
		fmt.Printf(
			"device: %s (%s), %d peripherals, %d interrupts\n",
			dev.Name, cpu, len(dev.Peripherals), len(dev.Interrupts()),
		)
	}
	if bd.TargetExecutablePath != "" {
		elf := filepath.Join(ws.Root, filepath.FromSlash(bd.TargetExecutablePath))
		if _, err := os.Stat(elf); err == nil {
			segs, err := util.ReadFirmware(elf)
			util.FatalErr("", err)
			fmt.Printf("firmware: %s, %d bytes in %d sections\n", bd.TargetExecutablePath, segs.Size(), len(segs))
		} else {
			fmt.Printf("firmware: %s not built yet\n", bd.TargetExecutablePath)
		}
	}
	util.FatalErr("check", tools.Verify(bd))
}

func status(p string) string {
	switch {
	case p == "":
		return "-"
	case tools.Exists(p):
		return "ok"
	}
	return "FAIL"
}
