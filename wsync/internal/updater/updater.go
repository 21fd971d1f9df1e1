// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package updater implements the workspace update: it brings the Makefile,
// c_cpp_properties.json and buildData.json in line with a freshly generated
// STM32CubeMX project.
package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/embeddedgo/wsync/wsync/internal/makefile"
	"github.com/embeddedgo/wsync/wsync/internal/settings"
	"github.com/embeddedgo/wsync/wsync/internal/tools"
	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

// Interface is the OpenOCD debug probe configuration looked up next to
// the openocd executable.
const Interface = "stlink.cfg"

// Options modify a single update.
type Options struct {
	Tools         settings.ToolsPaths // non-empty paths override the cached ones
	OpenOcdConfig []string            // absolute or relative to the OpenOCD scripts folder
	SvdPath       string
	Version       string
	Now           time.Time
}

// userVar describes how a user_* list is added to a Makefile variable.
type userVar struct {
	name   string
	prefix string
	vals   func(u *settings.UserSources) settings.StringList
}

var userVars = []userVar{
	{makefile.CSources, "", func(u *settings.UserSources) settings.StringList { return u.CSources }},
	{makefile.AsmSources, "", func(u *settings.UserSources) settings.StringList { return u.AsmSources }},
	{makefile.LdSources, "-l:", func(u *settings.UserSources) settings.StringList { return u.LdSources }},
	{makefile.CIncludes, "-I", func(u *settings.UserSources) settings.StringList { return u.CIncludes }},
	{makefile.AsmIncludes, "-I", func(u *settings.UserSources) settings.StringList { return u.AsmIncludes }},
	{makefile.LdIncludes, "-L", func(u *settings.UserSources) settings.StringList { return u.LdIncludes }},
	{makefile.CDefines, "-D", func(u *settings.UserSources) settings.StringList { return u.CDefines }},
	{makefile.AsmDefines, "-D", func(u *settings.UserSources) settings.StringList { return u.AsmDefines }},
	{makefile.CFlags, "", func(u *settings.UserSources) settings.StringList { return u.CFlags }},
	{makefile.AsmFlags, "", func(u *settings.UserSources) settings.StringList { return u.AsmFlags }},
	{makefile.LdFlags, "", func(u *settings.UserSources) settings.StringList { return u.LdFlags }},
}

// Run performs the update of the workspace and returns the written build
// data. Every step reads its input from disk so an interrupted update can
// simply be run again.
func Run(ctx context.Context, ws *workspace.Workspace, opts Options) (*settings.BuildData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if _, err := os.Stat(ws.Makefile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("Makefile not found, generate the project with STM32CubeMX first: %w", err)
		}
		return nil, err
	}
	if err := makefile.RestoreOriginal(ws.Makefile, ws.MakefileBackup); err != nil {
		return nil, err
	}

	bd, err := prepareBuildData(ws, &opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mk, err := makefile.Load(ws.Makefile)
	if err != nil {
		return nil, err
	}
	orig, err := makefile.ReadData(mk.Lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ws.Makefile, err)
	}

	cp, err := settings.LoadCProperties(ws.CProperties, ws.CPropertiesBackup)
	if err != nil {
		return nil, err
	}
	err = cp.Update(settings.Generated{
		Name:           ws.Name,
		SourceFiles:    slices.Concat(orig.CSources, orig.AsmSources),
		Includes:       orig.CIncludes,
		Defines:        orig.CDefines,
		GccExePath:     bd.GccExePath,
		GccIncludePath: bd.GccIncludePath,
	})
	if err != nil {
		return nil, err
	}
	if err := cp.Save(); err != nil {
		return nil, err
	}
	user, err := cp.User()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, v := range userVars {
		vals := v.vals(user)
		if len(vals) != 0 {
			slog.Debug("user values", "var", v.name, "vals", []string(vals))
		}
		if err := mk.Append(v.name, vals, v.prefix); err != nil {
			return nil, err
		}
	}
	if mk.Lines, err = makefile.ReplaceHeader(mk.Lines, opts.Version, opts.Now); err != nil {
		return nil, err
	}
	if err := mk.Save(); err != nil {
		return nil, err
	}
	slog.Info("Makefile updated", "file", ws.Makefile)

	// The build data describe the Makefile that will be used by make.
	mk, err = makefile.Load(ws.Makefile)
	if err != nil {
		return nil, err
	}
	data, err := makefile.ReadData(mk.Lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ws.Makefile, err)
	}
	bd.ApplyMakefile(data)
	bd.CubeMxProjectPath = ws.CubeMX
	if err := bd.Validate(); err != nil {
		return nil, err
	}
	if err := bd.Save(ws.BuildData, opts.Version, opts.Now); err != nil {
		return nil, err
	}
	tp := bd.Tools()
	if err := tp.Save(ws.ToolsPaths, opts.Version, opts.Now); err != nil {
		// The cache is shared by all workspaces and may be read-only.
		slog.Warn("cannot update the tools paths cache", "err", err)
	}
	if _, err := ws.BuildDir(data.BuildDir); err != nil {
		return nil, err
	}
	return bd, nil
}

// prepareBuildData loads buildData.json and fills in the tool and target
// configuration paths. The cached tool paths win over the ones stored in
// the build data and the options win over both.
func prepareBuildData(ws *workspace.Workspace, opts *Options) (*settings.BuildData, error) {
	bd, err := settings.LoadBuildData(ws.BuildData)
	if err != nil {
		return nil, err
	}
	cached, err := settings.LoadToolsPaths(ws.ToolsPaths)
	if err != nil {
		return nil, err
	}
	tp := bd.Tools().Merge(*cached).Merge(opts.Tools)
	if err := tp.Validate(); err != nil {
		return nil, fmt.Errorf("set the tool paths with command flags: %w", err)
	}
	if tp.OpenOcdInterfacePath == "" && tp.OpenOcdPath != "" {
		if p, err := tools.OpenOcdInterface(tp.OpenOcdPath, Interface); err != nil {
			slog.Warn("OpenOCD interface not found", "err", err)
		} else {
			tp.OpenOcdInterfacePath = filepath.ToSlash(p)
		}
	}
	bd.ApplyTools(tp)

	if len(opts.OpenOcdConfig) != 0 {
		if tp.OpenOcdInterfacePath == "" {
			return nil, errors.New("OpenOCD configuration files given but the OpenOCD interface is unknown")
		}
		if bd.OpenOcdConfig, err = tools.OpenOcdConfigs(tp.OpenOcdInterfacePath, opts.OpenOcdConfig); err != nil {
			return nil, err
		}
	}
	if opts.SvdPath != "" {
		p, err := filepath.Abs(opts.SvdPath)
		if err != nil {
			return nil, err
		}
		dev, err := tools.CheckSVD(p)
		if err != nil {
			return nil, err
		}
		slog.Info("target chip", "device", dev.Name)
		bd.Stm32SvdPath = filepath.ToSlash(p)
	}

	if err := tools.Verify(bd); err != nil {
		return nil, err
	}
	if bd.GccIncludePath, err = tools.GccIncludePath(bd.GccExePath); err != nil {
		return nil, err
	}
	bd.GccIncludePath = filepath.ToSlash(bd.GccIncludePath)
	return bd, nil
}
