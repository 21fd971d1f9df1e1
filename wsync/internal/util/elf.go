// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// Segment is a piece of the firmware image that must be written to the
// Flash at Paddr.
type Segment struct {
	Name  string // name of the ELF section
	Vaddr uint64 // address in the memory during execution
	Paddr uint64 // load address in the Flash
	Data  []byte
}

type Segments []*Segment

// ReadFirmware reads the loadable sections of the ELF file produced by the
// build and returns them sorted by the load address.
func ReadFirmware(name string) (Segments, error) {
	f, err := elf.Open(name)
	if err != nil {
		return nil, fmt.Errorf("read firmware: %w", err)
	}
	defer f.Close()
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("read firmware: %s: not an ARM executable (%s)", name, f.Machine)
	}
	var ss Segments
	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("read firmware: section %s: %w", s.Name, err)
		}
		if len(data) == 0 {
			continue
		}
		paddr, ok := loadAddr(f.Progs, s.Offset)
		if !ok {
			slog.Warn("section outside loadable segments", "section", s.Name)
			continue
		}
		ss = append(ss, &Segment{s.Name, s.Addr, paddr, data})
	}
	ss.SortByPaddr()
	return ss, nil
}

func loadAddr(progs []*elf.Prog, off uint64) (uint64, bool) {
	for _, p := range progs {
		if p.Type == elf.PT_LOAD && p.Off <= off && off < p.Off+p.Filesz {
			return p.Paddr + off - p.Off, true
		}
	}
	return 0, false
}

// SortByPaddr sorts segments according to the Paddr field.
func (ss Segments) SortByPaddr() {
	slices.SortFunc(ss, func(a, b *Segment) int {
		switch {
		case a.Paddr < b.Paddr:
			return -1
		case a.Paddr > b.Paddr:
			return 1
		}
		return 0
	})
}

// Size returns the number of bytes written to the Flash.
func (ss Segments) Size() (n int) {
	for _, s := range ss {
		n += len(s.Data)
	}
	return
}

// Flatten writes the segments to w according to their Paddr fields. The gaps
// between segments are filled with the pad byte.
func (ss Segments) Flatten(w io.Writer, pad byte) (n int, err error) {
	if len(ss) == 0 {
		return
	}
	ss.SortByPaddr()
	pa := ss[0].Paddr
	for i, s := range ss {
		if s.Paddr < pa {
			return n, errors.New("flatten: overlapping segments")
		}
		if gap := int(s.Paddr - pa); i != 0 && gap != 0 {
			m, err := w.Write(bytes.Repeat([]byte{pad}, gap))
			n += m
			if err != nil {
				return n, err
			}
			pa += uint64(m)
		}
		m, err := w.Write(s.Data)
		n += m
		if err != nil {
			return n, err
		}
		pa += uint64(m)
	}
	return
}
