// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workspace describes the layout of a VS Code workspace that holds
// a STM32CubeMX Makefile project.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

const (
	workspaceExt = ".code-workspace"
	cubeMXExt    = ".ioc"

	// ToolsPathsEnv overrides the location of the user-level toolsPaths.json.
	ToolsPathsEnv = "WSYNC_TOOLS_PATHS"
)

// Workspace holds every path the update pipeline reads or writes.
type Workspace struct {
	Root   string `yaml:"root"`
	Name   string `yaml:"name"` // workspace file name without extension
	File   string `yaml:"file"` // the *.code-workspace file
	VSCode string `yaml:"vscode"`

	Makefile          string `yaml:"makefile"`
	MakefileBackup    string `yaml:"makefileBackup"`
	CProperties       string `yaml:"cProperties"`
	CPropertiesBackup string `yaml:"cPropertiesBackup"`
	BuildData         string `yaml:"buildData"`
	ToolsPaths        string `yaml:"toolsPaths"`

	// CubeMX is the STM32CubeMX project file or an empty string if the
	// root contains none or more than one *.ioc file.
	CubeMX string `yaml:"cubeMX"`
}

// Open checks the folder structure of the workspace at root and returns its
// description. The .vscode folder is created if it does not exist.
func Open(root string) (*Workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	var wsFiles, iocFiles []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case workspaceExt:
			wsFiles = append(wsFiles, e.Name())
		case cubeMXExt:
			iocFiles = append(iocFiles, e.Name())
		}
	}
	if len(wsFiles) != 1 {
		return nil, fmt.Errorf(
			"open workspace: exactly one '*%s' file expected in %s, found %d",
			workspaceExt, root, len(wsFiles),
		)
	}
	ws := &Workspace{
		Root:   root,
		Name:   strings.TrimSuffix(wsFiles[0], workspaceExt),
		File:   filepath.Join(root, wsFiles[0]),
		VSCode: filepath.Join(root, ".vscode"),
	}
	if err := checkWorkspaceFile(ws.File); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(ws.VSCode, 0o755); err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	ws.Makefile = filepath.Join(root, "Makefile")
	ws.MakefileBackup = ws.Makefile + ".backup"
	ws.CProperties = filepath.Join(ws.VSCode, "c_cpp_properties.json")
	ws.CPropertiesBackup = ws.CProperties + ".backup"
	ws.BuildData = filepath.Join(ws.VSCode, "buildData.json")
	if ws.ToolsPaths, err = toolsPathsFile(); err != nil {
		return nil, err
	}
	switch len(iocFiles) {
	case 1:
		ws.CubeMX = filepath.Join(root, iocFiles[0])
		slog.Debug("STM32CubeMX project found", "file", ws.CubeMX)
	default:
		slog.Warn("none or more than one STM32CubeMX project file found", "count", len(iocFiles))
	}
	return ws, nil
}

// checkWorkspaceFile makes sure the workspace file is a valid JSON document.
// VS Code allows comments and trailing commas in it.
func checkWorkspaceFile(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("open workspace: %w", err)
	}
	v, err := hujson.Parse(data)
	if err != nil {
		return fmt.Errorf("open workspace: %s: %w", name, err)
	}
	if _, ok := v.Value.(*hujson.Object); !ok {
		return fmt.Errorf("open workspace: %s: not a JSON object", name)
	}
	return nil
}

func toolsPathsFile() (string, error) {
	if p := os.Getenv(ToolsPathsEnv); p != "" {
		return filepath.Abs(p)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate toolsPaths.json (set %s): %w", ToolsPathsEnv, err)
	}
	return filepath.Join(dir, "Code", "User", "toolsPaths.json"), nil
}

// BuildDir creates (if necessary) the build folder and returns its path.
func (ws *Workspace) BuildDir(name string) (string, error) {
	if name == "" {
		return "", errors.New("build folder: empty name")
	}
	dir := name
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(ws.Root, name)
	}
	if _, err := os.Stat(dir); err == nil {
		slog.Debug("build folder already exists", "dir", dir)
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("build folder: %w", err)
	}
	slog.Info("build folder created", "dir", dir)
	return dir, nil
}

// Rel returns path relative to the workspace root if it lies inside it.
// Other paths are returned unchanged.
func (ws *Workspace) Rel(path string) string {
	rel, err := filepath.Rel(ws.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Relative returns a copy of ws with the paths inside the root made relative
// to it. The root itself is kept absolute.
func (ws *Workspace) Relative() *Workspace {
	r := *ws
	for _, p := range []*string{
		&r.File, &r.VSCode, &r.Makefile, &r.MakefileBackup, &r.CProperties,
		&r.CPropertiesBackup, &r.BuildData, &r.ToolsPaths, &r.CubeMX,
	} {
		if *p != "" {
			*p = ws.Rel(*p)
		}
	}
	return &r
}
