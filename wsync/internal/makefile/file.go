// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package makefile

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// File is a Makefile loaded into memory as a slice of lines.
type File struct {
	Path  string
	Lines []string
	crlf  bool // the file used "\r\n" line terminators
	final bool // the last line was terminated
}

// Parse splits the Makefile content into lines.
func Parse(path, content string) *File {
	f := &File{Path: path}
	f.crlf = strings.Contains(content, "\r\n")
	if f.crlf {
		content = strings.ReplaceAll(content, "\r\n", "\n")
	}
	f.final = strings.HasSuffix(content, "\n")
	content = strings.TrimSuffix(content, "\n")
	if content != "" || f.final {
		f.Lines = strings.Split(content, "\n")
	}
	return f
}

// Load reads the Makefile at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read Makefile: %w", err)
	}
	return Parse(path, string(data)), nil
}

// String returns the file content with the original line terminators.
func (f *File) String() string {
	nl := "\n"
	if f.crlf {
		nl = "\r\n"
	}
	s := strings.Join(f.Lines, nl)
	if f.final {
		s += nl
	}
	return s
}

// Save truncates the file at f.Path and writes the current lines into it.
func (f *File) Save() error {
	if err := os.WriteFile(f.Path, []byte(f.String()), 0o644); err != nil {
		return fmt.Errorf("write Makefile: %w", err)
	}
	return nil
}

// Values is a shorthand for Values(f.Lines, name) that adds the file name
// to a mismatch error.
func (f *File) Values(name string) ([]string, error) {
	v, err := Values(f.Lines, name)
	return v, f.annotate(err)
}

// Append is Append applied to f.Lines.
func (f *File) Append(name string, tokens []string, prefix string) error {
	lines, err := Append(f.Lines, name, tokens, prefix)
	if err != nil {
		return f.annotate(err)
	}
	f.Lines = lines
	return nil
}

// Clear is Clear applied to f.Lines.
func (f *File) Clear(name string) error {
	lines, err := Clear(f.Lines, name)
	if err != nil {
		return f.annotate(err)
	}
	f.Lines = lines
	return nil
}

func (f *File) annotate(err error) error {
	if me, ok := err.(*MismatchError); ok && me.Path == "" {
		me.Path = f.Path
	}
	return err
}

// Copy copies the src file to dst, truncating dst if it exists.
func Copy(src, dst string) (err error) {
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(w, r)
	return err
}
