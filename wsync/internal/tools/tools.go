// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tools finds the external tools used to build and debug the project
// and the files derived from their locations.
package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/embeddedgo/wsync/svd"
	"github.com/embeddedgo/wsync/wsync/internal/settings"
)

// ErrNotFound is returned when a tool or a derived file cannot be found.
var ErrNotFound = errors.New("not found")

// Exists reports whether p is an existing file or folder or a command found
// in the directories named by the PATH environment variable.
func Exists(p string) bool {
	if p == "" {
		return false
	}
	if _, err := os.Stat(p); err == nil {
		return true
	}
	_, err := exec.LookPath(p)
	return err == nil
}

// Resolve returns the absolute, symlink free path of the file or command p.
func Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path: %w", ErrNotFound)
	}
	if _, err := os.Stat(p); err != nil {
		if p, err = exec.LookPath(p); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	p, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(p)
}

// root returns the installation folder of a tool executable (the parent of
// its bin folder).
func root(exe string) (string, error) {
	p, err := Resolve(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(filepath.Dir(p)), nil
}

// find returns the first file named name in the tree rooted at dir for which
// accept returns true.
func find(dir, name string, accept func(path string) bool) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // unreadable subfolder
		}
		if !d.IsDir() && d.Name() == name && accept(path) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%s in %s: %w", name, dir, ErrNotFound)
	}
	return found, nil
}

func anyFile(string) bool { return true }

// GccIncludePath returns the folder of the GCC standard headers. It is the
// folder of stdint.h inside the lib/gcc/arm-none-eabi tree of the toolchain.
func GccIncludePath(gcc string) (string, error) {
	r, err := root(gcc)
	if err != nil {
		return "", fmt.Errorf("gcc include path: %w", err)
	}
	p, err := find(filepath.Join(r, "lib", "gcc", "arm-none-eabi"), "stdint.h", anyFile)
	if err != nil {
		return "", fmt.Errorf("gcc include path (official GCC folder structure must remain intact): %w", err)
	}
	return filepath.Dir(p), nil
}

// OpenOcdInterface returns the path of the named OpenOCD interface
// configuration file (for example stlink.cfg).
func OpenOcdInterface(openocd, name string) (string, error) {
	r, err := root(openocd)
	if err != nil {
		return "", fmt.Errorf("openocd interface: %w", err)
	}
	for _, scripts := range []string{
		filepath.Join(r, "scripts"),
		filepath.Join(r, "share", "openocd", "scripts"),
	} {
		p := filepath.Join(scripts, "interface", name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	inInterface := func(p string) bool { return filepath.Base(filepath.Dir(p)) == "interface" }
	p, err := find(r, name, inInterface)
	if err != nil {
		return "", fmt.Errorf("openocd interface: %w", err)
	}
	return p, nil
}

// OpenOcdConfigs returns the absolute paths of the OpenOCD configuration
// files. A relative path is relative to the OpenOCD scripts folder, the
// grandparent of the interface file.
func OpenOcdConfigs(iface string, cfgs []string) ([]string, error) {
	scripts := filepath.Dir(filepath.Dir(iface))
	paths := make([]string, 0, len(cfgs))
	for _, c := range cfgs {
		c = strings.Trim(strings.TrimSpace(c), `"'`)
		if c == "" {
			continue
		}
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return nil, err
			}
			paths = append(paths, filepath.ToSlash(abs))
			continue
		}
		p := filepath.Join(scripts, c)
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			return nil, fmt.Errorf("openocd configuration %s: %w", p, ErrNotFound)
		}
		paths = append(paths, filepath.ToSlash(p))
	}
	return paths, nil
}

// CheckSVD parses the SVD file and returns the described device.
func CheckSVD(path string) (*svd.Device, error) {
	dev, err := svd.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("SVD file", "device", dev.Name, "peripherals", len(dev.Peripherals))
	return dev, nil
}

// Verify checks the paths stored in the build data. Missing required tools
// are returned as errors, missing optional ones are logged.
func Verify(bd *settings.BuildData) error {
	var errs []error
	check := func(key, p string, required bool) {
		if Exists(p) {
			return
		}
		msg := "not found"
		if p == "" {
			msg = "not set"
		} else {
			msg += ": " + p
		}
		if required {
			errs = append(errs, &settings.ValidationError{File: "buildData.json", Key: key, Msg: msg})
			return
		}
		slog.Warn("optional tool path invalid", "key", key, "msg", msg)
	}
	check("gccExePath", bd.GccExePath, true)
	check("buildToolsPath", bd.BuildToolsPath, true)
	check("openOcdPath", bd.OpenOcdPath, false)
	check("openOcdInterfacePath", bd.OpenOcdInterfacePath, false)
	check("stm32SvdPath", bd.Stm32SvdPath, false)
	for _, c := range bd.OpenOcdConfig {
		check("openOcdConfig", c, false)
	}
	return errors.Join(errs...)
}
