// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package settings

import (
	"errors"
	"time"
)

// ToolsPaths is the user-level cache of tool locations shared by all
// workspaces on this machine.
type ToolsPaths struct {
	Stamp

	// GccExePath is the arm-none-eabi-gcc executable.
	GccExePath string `json:"gccExePath" jsonschema:"description=arm-none-eabi-gcc executable"`
	// BuildToolsPath is the make executable.
	BuildToolsPath string `json:"buildToolsPath" jsonschema:"description=make executable"`
	// OpenOcdPath is the openocd executable.
	OpenOcdPath string `json:"openOcdPath" jsonschema:"description=openocd executable"`
	// OpenOcdInterfacePath is the OpenOCD debug probe configuration.
	OpenOcdInterfacePath string `json:"openOcdInterfacePath" jsonschema:"description=OpenOCD interface configuration (stlink.cfg)"`
}

// LoadToolsPaths reads the toolsPaths.json file. A missing or invalid file
// gives an empty record.
func LoadToolsPaths(path string) (*ToolsPaths, error) {
	tp := new(ToolsPaths)
	if _, err := loadRecord(path, tp); err != nil {
		return nil, err
	}
	return tp, nil
}

// Merge returns t with every non-empty path of o copied over.
func (t ToolsPaths) Merge(o ToolsPaths) ToolsPaths {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&t.GccExePath, o.GccExePath)
	set(&t.BuildToolsPath, o.BuildToolsPath)
	set(&t.OpenOcdPath, o.OpenOcdPath)
	set(&t.OpenOcdInterfacePath, o.OpenOcdInterfacePath)
	return t
}

// Validate reports the tools that are required to build the project but
// have no path.
func (t *ToolsPaths) Validate() error {
	var errs []error
	if t.GccExePath == "" {
		errs = append(errs, &ValidationError{"toolsPaths.json", "gccExePath", "required"})
	}
	if t.BuildToolsPath == "" {
		errs = append(errs, &ValidationError{"toolsPaths.json", "buildToolsPath", "required"})
	}
	return errors.Join(errs...)
}

// Save stamps the record and writes it to path.
func (t *ToolsPaths) Save(path, version string, now time.Time) error {
	t.set(version, now)
	return saveRecord(path, t)
}
