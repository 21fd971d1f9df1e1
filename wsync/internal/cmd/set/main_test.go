// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package set

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/embeddedgo/wsync/wsync/internal/makefile"
)

const mkText = "C_DEFS = \nC_INCLUDES =  \\\n-ICore/Inc \\\n-IDrivers/CMSIS/Include\n\nLIBS = -lc\n"

func TestRun(t *testing.T) {
	tests := []struct {
		desc   string
		name   string
		vals   []string
		clear  bool
		prefix string
		want   string
	}{
		{
			desc:   "append",
			name:   "C_DEFS",
			vals:   []string{"DEBUG", "USE_HAL"},
			prefix: "-D",
			want:   "C_DEFS = \\\n-DDEBUG\\\n-DUSE_HAL\nC_INCLUDES =  \\\n-ICore/Inc \\\n-IDrivers/CMSIS/Include\n\nLIBS = -lc\n",
		},
		{
			desc:   "clear and append",
			name:   "C_INCLUDES",
			vals:   []string{"inc"},
			clear:  true,
			prefix: "-I",
			want:   "C_DEFS = \nC_INCLUDES = -Iinc\n\nLIBS = -lc\n",
		},
		{
			desc:  "clear only",
			name:  "LIBS",
			clear: true,
			want:  "C_DEFS = \nC_INCLUDES =  \\\n-ICore/Inc \\\n-IDrivers/CMSIS/Include\n\nLIBS = \n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Makefile")
			if err := os.WriteFile(path, []byte(mkText), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := run(path, tt.name, tt.vals, tt.clear, tt.prefix); err != nil {
				t.Fatal(err)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("Makefile = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Makefile")
	if err := os.WriteFile(path, []byte(mkText), 0o644); err != nil {
		t.Fatal(err)
	}
	err := run(path, "AS_DEFS", []string{"X"}, true, "-D")
	if !errors.Is(err, makefile.ErrStructuralMismatch) {
		t.Fatalf("got %v, want ErrStructuralMismatch", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != mkText {
		t.Errorf("Makefile modified: %q", got)
	}
}
