// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vars

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/embeddedgo/wsync/wsync/internal/makefile"
)

const mkText = `TARGET = blinky
OPT = -Og
C_SOURCES =  \
Core/Src/main.c \
Core/Src/gpio.c

CFLAGS = $(OPT) -Wall
`

func TestWrite(t *testing.T) {
	mk := makefile.Parse("Makefile", mkText)
	names := []string{"TARGET", "C_SOURCES", "CFLAGS"}
	tests := []struct {
		desc   string
		expand bool
		want   string
	}{
		{"raw", false, "TARGET=blinky\nC_SOURCES=Core/Src/main.c Core/Src/gpio.c\nCFLAGS=$(OPT) -Wall\n"},
		{"expanded", true, "TARGET=blinky\nC_SOURCES=Core/Src/main.c Core/Src/gpio.c\nCFLAGS=-Og -Wall\n"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			if err := write(&buf, mk, names, tt.expand, false); err != nil {
				t.Fatal(err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteYAML(t *testing.T) {
	mk := makefile.Parse("Makefile", mkText)
	var buf bytes.Buffer
	if err := write(&buf, mk, []string{"C_SOURCES", "CFLAGS"}, true, true); err != nil {
		t.Fatal(err)
	}
	var got map[string][]string
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("%v:\n%s", err, buf.String())
	}
	want := map[string][]string{
		"C_SOURCES": {"Core/Src/main.c", "Core/Src/gpio.c"},
		"CFLAGS":    {"-Og", "-Wall"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("YAML mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteMissing(t *testing.T) {
	mk := makefile.Parse("Makefile", mkText)
	err := write(new(bytes.Buffer), mk, nil, false, false)
	if !errors.Is(err, makefile.ErrStructuralMismatch) {
		t.Fatalf("got %v, want ErrStructuralMismatch", err)
	}
}
