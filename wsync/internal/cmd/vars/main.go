// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vars

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/embeddedgo/wsync/wsync/internal/makefile"
	"github.com/embeddedgo/wsync/wsync/internal/util"
)

const Descr = "print values of Makefile variables"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  wsync %s [OPTIONS] [NAME...]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	dir := fs.String("C", ".", "workspace root `dir`")
	mkName := fs.String("f", "Makefile", "Makefile `name`, relative to the workspace root")
	expand := fs.Bool("expand", false, "expand variable references and split values into fields")
	asYAML := fs.Bool("yaml", false, "print a YAML document instead of NAME=VALUE lines")
	fs.Parse(args)
	util.SetupLog(false)

	mk, err := makefile.Load(filepath.Join(*dir, *mkName))
	util.FatalErr("", err)
	util.FatalErr("", write(os.Stdout, mk, fs.Args(), *expand, *asYAML))
}

// write prints the values of the named variables (the tracked CubeMX
// variables if names is empty) as NAME=VALUE lines, the same format as
// "make print-NAME", or as a YAML mapping of lists.
func write(w io.Writer, mk *makefile.File, names []string, expand, asYAML bool) error {
	if len(names) == 0 {
		names = makefile.Names
	}
	vals := make([][]string, len(names))
	for i, name := range names {
		v, err := mk.Values(name)
		if err != nil {
			return err
		}
		if expand {
			v = strings.Fields(makefile.Expand(mk.Lines, strings.Join(v, " ")))
		}
		vals[i] = v
	}
	if asYAML {
		doc := &yaml.Node{Kind: yaml.MappingNode}
		for i, name := range names {
			var n yaml.Node
			if err := n.Encode(vals[i]); err != nil {
				return err
			}
			doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, &n)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	for i, name := range names {
		if _, err := fmt.Fprintf(w, "%s=%s\n", name, strings.Join(vals[i], " ")); err != nil {
			return err
		}
	}
	return nil
}
