// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package makefile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"
)

const (
	printRule   = "print-%:"
	targetMark  = "# target"
	bannerLine  = "#######################################"
	bannerWider = "##########################################################################################################################"
)

// HasPrintRule reports whether the lines contain the print-VARIABLE rule,
// which means the Makefile was already modified by wsync.
func HasPrintRule(lines []string) bool {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], printRule) {
			return true
		}
	}
	return false
}

// AddPrintRule appends a rule that lets `make print-NAME` write NAME=value
// to the standard output.
func AddPrintRule(lines []string) []string {
	return append(lines,
		"",
		"",
		bannerLine,
		"# print Makefile variables",
		bannerLine,
		printRule,
		"\t@echo $*=$($*)",
	)
}

// ReplaceHeader replaces the generator banner at the top of the Makefile
// (everything above the banner that introduces the "# target" section) with
// the wsync banner.
func ReplaceHeader(lines []string, version string, now time.Time) ([]string, error) {
	last := -1
	for i := 0; i+2 < len(lines); i++ {
		if strings.Contains(lines[i+2], targetMark) {
			last = i
			break
		}
	}
	if last < 0 {
		return nil, &MismatchError{Name: targetMark}
	}
	hdr := []string{
		bannerWider,
		"# This Makefile was generated by STM32CubeMX and updated by wsync.",
		"# wsync version: " + version,
		"# Last run: " + now.Format(time.DateTime),
		"#",
		"# Rerun 'wsync update' after the CubeMX project is regenerated.",
		"# Add user sources, includes, defines and flags to the 'user_*' fields",
		"# of '.vscode/c_cpp_properties.json', not to this file.",
		bannerWider,
		"",
	}
	return slices.Concat(hdr, lines[last:]), nil
}

// RestoreOriginal makes sure mk holds the Makefile as produced by the
// generator and backup holds a copy of it. An original is recognized by the
// lack of the print rule. A regenerated mk replaces backup. A mk modified by
// a previous run is restored from backup, which must be an original. On
// success the print rule is added to mk.
func RestoreOriginal(mk, backup string) error {
	orig, err := isOriginal(mk)
	if err != nil {
		return err
	}
	if orig {
		if err := Copy(mk, backup); err != nil {
			return fmt.Errorf("backup Makefile: %w", err)
		}
		slog.Info("Makefile backup created", "backup", backup)
	} else {
		switch orig, err := isOriginal(backup); {
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf(
				"%s was already modified and %s does not exist, regenerate the project: %w",
				mk, backup, ErrStructuralMismatch,
			)
		case err != nil:
			return err
		case !orig:
			return fmt.Errorf(
				"%s was already modified, delete both Makefiles and regenerate the project: %w",
				backup, ErrStructuralMismatch,
			)
		}
		if err := Copy(backup, mk); err != nil {
			return fmt.Errorf("restore Makefile: %w", err)
		}
		slog.Info("Makefile restored from backup", "backup", backup)
	}
	f, err := Load(mk)
	if err != nil {
		return err
	}
	f.Lines = AddPrintRule(f.Lines)
	return f.Save()
}

func isOriginal(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return false, err
	}
	f, err := Load(path)
	if err != nil {
		return false, err
	}
	return !HasPrintRule(f.Lines), nil
}
