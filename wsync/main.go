// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Wsync keeps a STM32CubeMX generated Makefile and the VS Code workspace
// settings consistent.
package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/embeddedgo/wsync/wsync/internal/cmd/check"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/image"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/keil"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/paths"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/schema"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/set"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/update"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/vars"
	"github.com/embeddedgo/wsync/wsync/internal/cmd/watch"
	"github.com/embeddedgo/wsync/wsync/internal/util"
)

type command struct {
	descr string
	main  func(cmd string, args []string)
}

var commands = map[string]command{
	"bin":    {image.DescrBin, image.Main},
	"check":  {check.Descr, check.Main},
	"hex":    {image.DescrHex, image.Main},
	"keil":   {keil.Descr, keil.Main},
	"paths":  {paths.Descr, paths.Main},
	"schema": {schema.Descr, schema.Main},
	"set":    {set.Descr, set.Main},
	"update": {update.Descr, update.Main},
	"vars":   {vars.Descr, vars.Main},
	"watch":  {watch.Descr, watch.Main},
}

func printCommandList() {
	names := slices.Sorted(maps.Keys(commands))
	maxLen := 0
	for _, k := range names {
		maxLen = max(maxLen, len(k))
	}
	uw := os.Stderr
	fmt.Fprintf(uw, "wsync %s\n\n", util.Version)
	uw.WriteString("Usage:\n  wsync COMMAND [ARGUMENTS]\n\n")
	uw.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(uw, "  %-*s  %s\n", maxLen, name, commands[name].descr)
	}
	uw.WriteString("\nRun 'wsync COMMAND -h' for the command options.\n")
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "help" {
		printCommandList()
		return
	}
	c, ok := commands[os.Args[1]]
	if !ok {
		printCommandList()
		os.Exit(1)
	}
	c.main(os.Args[1], os.Args[2:])
}
