// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package settings

import (
	"errors"
	"path"
	"time"

	"github.com/embeddedgo/wsync/wsync/internal/makefile"
)

// BuildData is the content of .vscode/buildData.json: everything the editor
// tasks need to build, flash and debug the project.
type BuildData struct {
	Stamp

	CSources   []string `json:"cSources"`
	AsmSources []string `json:"asmSources"`
	LdSources  []string `json:"ldSources"`

	CIncludes   []string `json:"cIncludes"`
	AsmIncludes []string `json:"asmIncludes"`
	LdIncludes  []string `json:"ldIncludes"`

	CDefines   []string `json:"cDefines"`
	AsmDefines []string `json:"asmDefines"`

	CFlags   []string `json:"cFlags"`
	AsmFlags []string `json:"asmFlags"`
	LdFlags  []string `json:"ldFlags"`

	BuildDir             string `json:"buildDir" jsonschema:"description=build folder relative to the workspace root"`
	TargetExecutablePath string `json:"targetExecutablePath" jsonschema:"description=ELF file produced by the build"`

	GccExePath           string `json:"gccExePath"`
	GccIncludePath       string `json:"gccIncludePath" jsonschema:"description=folder with the GCC standard headers"`
	BuildToolsPath       string `json:"buildToolsPath"`
	OpenOcdPath          string `json:"openOcdPath"`
	OpenOcdInterfacePath string `json:"openOcdInterfacePath"`

	OpenOcdConfig     []string `json:"openOcdConfig" jsonschema:"description=OpenOCD target configuration files"`
	Stm32SvdPath      string   `json:"stm32SvdPath" jsonschema:"description=CMSIS SVD file of the target chip"`
	CubeMxProjectPath string   `json:"cubeMxProjectPath,omitempty"`
}

// DefaultBuildData returns the record written for a new workspace.
func DefaultBuildData() *BuildData {
	bd := new(BuildData)
	bd.normalize()
	return bd
}

// normalize replaces nil lists with empty ones so they are written as [].
func (bd *BuildData) normalize() {
	for _, p := range []*[]string{
		&bd.CSources, &bd.AsmSources, &bd.LdSources,
		&bd.CIncludes, &bd.AsmIncludes, &bd.LdIncludes,
		&bd.CDefines, &bd.AsmDefines,
		&bd.CFlags, &bd.AsmFlags, &bd.LdFlags,
		&bd.OpenOcdConfig,
	} {
		if *p == nil {
			*p = []string{}
		}
	}
}

// LoadBuildData reads buildData.json. A missing or invalid file gives the
// default record.
func LoadBuildData(name string) (*BuildData, error) {
	bd := DefaultBuildData()
	if _, err := loadRecord(name, bd); err != nil {
		return nil, err
	}
	bd.normalize()
	return bd, nil
}

// ApplyMakefile copies the Makefile variables into the record.
func (bd *BuildData) ApplyMakefile(d *makefile.Data) {
	bd.CSources = d.CSources
	bd.AsmSources = d.AsmSources
	bd.LdSources = d.LdSources
	bd.CIncludes = d.CIncludes
	bd.AsmIncludes = d.AsmIncludes
	bd.LdIncludes = d.LdIncludes
	bd.CDefines = d.CDefines
	bd.AsmDefines = d.AsmDefines
	bd.CFlags = d.CFlags
	bd.AsmFlags = d.AsmFlags
	bd.LdFlags = d.LdFlags
	bd.BuildDir = d.BuildDir
	bd.TargetExecutablePath = TargetExecutable(d.BuildDir, d.ProjectName)
	bd.normalize()
}

// TargetExecutable returns the path of the ELF file built by the Makefile.
func TargetExecutable(buildDir, project string) string {
	return path.Join(buildDir, project+".elf")
}

// ApplyTools overwrites the tool paths of the record.
func (bd *BuildData) ApplyTools(t ToolsPaths) {
	bd.GccExePath = t.GccExePath
	bd.BuildToolsPath = t.BuildToolsPath
	bd.OpenOcdPath = t.OpenOcdPath
	bd.OpenOcdInterfacePath = t.OpenOcdInterfacePath
}

// Tools returns the tool paths stored in the record.
func (bd *BuildData) Tools() ToolsPaths {
	return ToolsPaths{
		GccExePath:           bd.GccExePath,
		BuildToolsPath:       bd.BuildToolsPath,
		OpenOcdPath:          bd.OpenOcdPath,
		OpenOcdInterfacePath: bd.OpenOcdInterfacePath,
	}
}

// Validate reports the keys an updated record must not leave empty.
func (bd *BuildData) Validate() error {
	var errs []error
	required := func(key, val string) {
		if val == "" {
			errs = append(errs, &ValidationError{"buildData.json", key, "required"})
		}
	}
	required("buildDir", bd.BuildDir)
	required("targetExecutablePath", bd.TargetExecutablePath)
	required("gccExePath", bd.GccExePath)
	required("buildToolsPath", bd.BuildToolsPath)
	return errors.Join(errs...)
}

// Save stamps the record and writes it to the named file.
func (bd *BuildData) Save(name, version string, now time.Time) error {
	bd.set(version, now)
	bd.normalize()
	return saveRecord(name, bd)
}
