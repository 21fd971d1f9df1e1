// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tools

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/embeddedgo/wsync/wsync/internal/settings"
)

// mkfiles creates empty files (and their folders) below dir.
func mkfiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

// tempDir returns a symlink free temporary folder.
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestExistsResolve(t *testing.T) {
	dir := tempDir(t)
	mkfiles(t, dir, "bin/tool")
	t.Setenv("PATH", filepath.Join(dir, "bin"))

	for _, p := range []string{dir, filepath.Join(dir, "bin", "tool"), "tool"} {
		if !Exists(p) {
			t.Errorf("Exists(%q) = false", p)
		}
	}
	for _, p := range []string{"", filepath.Join(dir, "none"), "no-such-tool"} {
		if Exists(p) {
			t.Errorf("Exists(%q) = true", p)
		}
	}
	got, err := Resolve("tool")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "bin", "tool"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
	if _, err := Resolve("no-such-tool"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestGccIncludePath(t *testing.T) {
	dir := tempDir(t)
	mkfiles(t, dir,
		"bin/arm-none-eabi-gcc",
		"lib/gcc/arm-none-eabi/13.2.1/include/stdint.h",
		"lib/gcc/arm-none-eabi/13.2.1/include/stddef.h",
		"arm-none-eabi/include/stdint.h",
	)
	got, err := GccIncludePath(filepath.Join(dir, "bin", "arm-none-eabi-gcc"))
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "lib", "gcc", "arm-none-eabi", "13.2.1", "include")
	if got != want {
		t.Errorf("GccIncludePath() = %q, want %q", got, want)
	}

	other := tempDir(t)
	mkfiles(t, other, "bin/arm-none-eabi-gcc", "lib/gcc/arm-none-eabi/13.2.1/include/stddef.h")
	if _, err := GccIncludePath(filepath.Join(other, "bin", "arm-none-eabi-gcc")); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestOpenOcdInterface(t *testing.T) {
	tests := []struct {
		desc  string
		files []string
		want  string
	}{
		{"windows", []string{"bin/openocd", "scripts/interface/stlink.cfg"}, "scripts/interface/stlink.cfg"},
		{"linux", []string{"bin/openocd", "share/openocd/scripts/interface/stlink.cfg"}, "share/openocd/scripts/interface/stlink.cfg"},
		{"other", []string{"bin/openocd", "x/board/stlink.cfg", "x/y/interface/stlink.cfg"}, "x/y/interface/stlink.cfg"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			dir := tempDir(t)
			mkfiles(t, dir, tt.files...)
			got, err := OpenOcdInterface(filepath.Join(dir, "bin", "openocd"), "stlink.cfg")
			if err != nil {
				t.Fatal(err)
			}
			if want := filepath.Join(dir, filepath.FromSlash(tt.want)); got != want {
				t.Errorf("OpenOcdInterface() = %q, want %q", got, want)
			}
		})
	}
}

func TestOpenOcdConfigs(t *testing.T) {
	dir := tempDir(t)
	mkfiles(t, dir, "scripts/interface/stlink.cfg", "scripts/target/stm32f0x.cfg", "board/my.cfg")
	iface := filepath.Join(dir, "scripts", "interface", "stlink.cfg")
	abs := filepath.Join(dir, "board", "my.cfg")

	got, err := OpenOcdConfigs(iface, []string{" 'target/stm32f0x.cfg' ", `"` + abs + `"`, ""})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.ToSlash(filepath.Join(dir, "scripts", "target", "stm32f0x.cfg")),
		filepath.ToSlash(abs),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OpenOcdConfigs() mismatch (-want +got):\n%s", diff)
	}
	_, err = OpenOcdConfigs(iface, []string{"target/stm32f4x.cfg"})
	if !errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), "stm32f4x.cfg") {
		t.Errorf("got %v, want ErrNotFound naming the file", err)
	}
}

func TestVerify(t *testing.T) {
	dir := tempDir(t)
	mkfiles(t, dir, "bin/arm-none-eabi-gcc", "bin/make")
	bd := settings.DefaultBuildData()
	bd.GccExePath = filepath.Join(dir, "bin", "arm-none-eabi-gcc")
	bd.OpenOcdPath = filepath.Join(dir, "bin", "openocd")
	err := Verify(bd)
	var ve *settings.ValidationError
	if !errors.As(err, &ve) || ve.Key != "buildToolsPath" || ve.Msg != "not set" {
		t.Fatalf("got %v, want buildToolsPath not set", err)
	}
	bd.BuildToolsPath = filepath.Join(dir, "bin", "make")
	if err := Verify(bd); err != nil {
		t.Errorf("optional tool reported as an error: %v", err)
	}
}
