// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/marcinbor85/gohex"
)

// writeELF writes a minimal ARM executable with the .text section loaded at
// 0x08000000 and the .data section loaded at 0x08000008 (executed from RAM).
func writeELF(t *testing.T, name string) {
	t.Helper()
	text := []byte{1, 2, 3, 4}
	data := []byte{5, 6}
	strtab := []byte("\x00.text\x00.data\x00.shstrtab\x00")

	const (
		phoff   = 52
		textOff = phoff + 2*32
		dataOff = textOff + 4
		strOff  = dataOff + 2
		shoff   = (strOff + 23 + 3) &^ 3
	)
	var buf bytes.Buffer
	w := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_ARM),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     0x08000001,
		Phoff:     phoff,
		Shoff:     shoff,
		Ehsize:    52,
		Phentsize: 32,
		Phnum:     2,
		Shentsize: 40,
		Shnum:     4,
		Shstrndx:  3,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	w(hdr)
	w(elf.Prog32{Type: uint32(elf.PT_LOAD), Off: textOff, Vaddr: 0x08000000, Paddr: 0x08000000, Filesz: 4, Memsz: 4, Flags: uint32(elf.PF_R | elf.PF_X), Align: 4})
	w(elf.Prog32{Type: uint32(elf.PT_LOAD), Off: dataOff, Vaddr: 0x20000000, Paddr: 0x08000008, Filesz: 2, Memsz: 2, Flags: uint32(elf.PF_R | elf.PF_W), Align: 4})
	w(text)
	w(data)
	w(strtab)
	for buf.Len() < shoff {
		buf.WriteByte(0)
	}
	w(elf.Section32{})
	w(elf.Section32{Name: 1, Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR), Addr: 0x08000000, Off: textOff, Size: 4, Addralign: 4})
	w(elf.Section32{Name: 7, Type: uint32(elf.SHT_PROGBITS), Flags: uint32(elf.SHF_ALLOC | elf.SHF_WRITE), Addr: 0x20000000, Off: dataOff, Size: 2, Addralign: 4})
	w(elf.Section32{Name: 13, Type: uint32(elf.SHT_STRTAB), Off: strOff, Size: uint32(len(strtab)), Addralign: 1})
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

var firmware = []byte{1, 2, 3, 4, 0xff, 0xff, 0xff, 0xff, 5, 6}

func TestConvertBin(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "blinky.elf"), filepath.Join(dir, "blinky.bin")
	writeELF(t, in)
	n, err := convert("bin", in, out, 0xff)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("n = %d, want 6", n)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(firmware, got); diff != "" {
		t.Errorf("binary image mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertHex(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "blinky.elf"), filepath.Join(dir, "blinky.hex")
	writeELF(t, in)
	if _, err := convert("hex", in, out, 2); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		t.Fatal(err)
	}
	got := mem.ToBinary(0x08000000, uint32(len(firmware)), 0xff)
	if diff := cmp.Diff(firmware, got); diff != "" {
		t.Errorf("HEX content mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "blinky.elf")
	writeELF(t, in)
	tests := []struct {
		desc   string
		format string
		in     string
		opt    byte
	}{
		{"not an ELF", "bin", filepath.Join(dir, "none.elf"), 0},
		{"zero record length", "hex", in, 0},
		{"unknown format", "srec", in, 0},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			out := filepath.Join(dir, "out")
			if _, err := convert(tt.format, tt.in, out, tt.opt); err == nil {
				t.Fatal("no error")
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("%s left behind: %v", out, err)
			}
		})
	}
}
