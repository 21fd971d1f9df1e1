// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package makefile reads and rewrites variable blocks of a Makefile
// generated by STM32CubeMX.
//
// A variable block is the line containing "NAME = " and, when that line
// ends with a backslash, every following line up to and including the
// first one that does not. All functions work on a slice of lines without
// line terminators and never touch lines outside the located block.
package makefile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	assign  = " = "
	contMrk = `\`
	comment = "#"
)

// ErrStructuralMismatch is matched by every error reporting a Makefile that
// does not have the layout this package expects.
var ErrStructuralMismatch = errors.New("structural mismatch")

// MismatchError reports a variable (or another anchor) that cannot be found.
type MismatchError struct {
	Name string // variable name or anchor text
	Path string // optional file name
}

func (e *MismatchError) Error() string {
	where := "Makefile"
	if e.Path != "" {
		where = e.Path
	}
	return fmt.Sprintf(
		"%q not found in %s: invalid or modified Makefile "+
			"(did the generator change its output format?)",
		e.Name, where,
	)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrStructuralMismatch
}

// Block is an inclusive range of lines defining one variable.
type Block struct {
	Name  string
	Start int // header line
	End   int // last line of the block
}

// Multiline reports whether the header line ends with a continuation marker.
// A backslash inside a value (X = C:\gcc) does not continue the line.
func (b Block) Multiline(lines []string) bool {
	return endsWithCont(lines[b.Start])
}

func endsWithCont(line string) bool {
	return strings.HasSuffix(strings.TrimRight(line, " \t"), contMrk)
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), comment)
}

func stripCont(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, contMrk)
	return strings.TrimSpace(s)
}

// Locate finds the block defining name.
func Locate(lines []string, name string) (Block, error) {
	key := name + assign
	for i, line := range lines {
		if isComment(line) || !strings.Contains(line, key) {
			continue
		}
		b := Block{Name: name, Start: i, End: i}
		if !endsWithCont(line) {
			return b, nil
		}
		for b.End+1 < len(lines) {
			b.End++
			if !endsWithCont(lines[b.End]) {
				break
			}
		}
		return b, nil
	}
	return Block{}, &MismatchError{Name: name}
}

// tail returns the text that follows "NAME = " in the header line.
func tail(line, name string) string {
	key := name + assign
	return line[strings.Index(line, key)+len(key):]
}

// head returns the header line up to and including "NAME = ".
func head(line, name string) string {
	key := name + assign
	return line[:strings.Index(line, key)+len(key)]
}

// Values returns the tokens assigned to name. A single-line block gives at
// most one token (everything after the assignment operator).
func Values(lines []string, name string) ([]string, error) {
	b, err := Locate(lines, name)
	if err != nil {
		return nil, err
	}
	var vals []string
	if t := stripCont(tail(lines[b.Start], name)); t != "" {
		vals = append(vals, t)
	}
	for _, line := range lines[b.Start+1 : b.End+1] {
		if v := stripCont(line); v != "" {
			vals = append(vals, v)
		}
	}
	return vals, nil
}

// Append adds tokens to the variable, each one prefixed with prefix. The
// returned slice may share memory with lines.
func Append(lines []string, name string, tokens []string, prefix string) ([]string, error) {
	b, err := Locate(lines, name)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return lines, nil
	}
	items := make([]string, len(tokens))
	for i, t := range tokens {
		items[i] = prefix + t
	}
	hdr := lines[b.Start]
	if b.Multiline(lines) {
		ins := make([]string, len(items))
		for i, it := range items {
			ins[i] = it + " " + contMrk
		}
		return slices.Insert(lines, b.Start+1, ins...), nil
	}
	if len(items) == 1 {
		lines[b.Start] = strings.TrimRight(hdr, " \t") + " " + items[0]
		if strings.TrimSpace(tail(hdr, name)) == "" {
			// Keep the "NAME = value" spelling for an empty variable.
			lines[b.Start] = head(hdr, name) + items[0]
		}
		return lines, nil
	}
	ins := make([]string, 0, len(items)+1)
	if t := strings.TrimSpace(tail(hdr, name)); t != "" {
		ins = append(ins, t+contMrk)
	}
	for i, it := range items {
		if i < len(items)-1 {
			it += contMrk
		}
		ins = append(ins, it)
	}
	lines[b.Start] = strings.TrimRight(head(hdr, name), " \t") + " " + contMrk
	return slices.Insert(lines, b.Start+1, ins...), nil
}

// Clear removes every value of the variable leaving an empty "NAME = "
// definition.
func Clear(lines []string, name string) ([]string, error) {
	b, err := Locate(lines, name)
	if err != nil {
		return nil, err
	}
	lines[b.Start] = head(lines[b.Start], name)
	return slices.Delete(lines, b.Start+1, b.End+1), nil
}
