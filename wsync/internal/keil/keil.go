// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package keil imports the sources, includes and defines of a Keil MDK
// project (*.uvprojx) into a Makefile generated by STM32CubeMX for the same
// chip.
package keil

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/embeddedgo/wsync/wsync/internal/makefile"
)

const Ext = ".uvprojx"

type controls struct {
	Misc        string `xml:"MiscControls"`
	Define      string `xml:"Define"`
	IncludePath string `xml:"IncludePath"`
}

type target struct {
	Name    string   `xml:"TargetName"`
	Device  string   `xml:"TargetOption>TargetCommonOption>Device"`
	SFDFile string   `xml:"TargetOption>TargetCommonOption>SFDFile"`
	C       controls `xml:"TargetOption>TargetArmAds>Cads>VariousControls"`
	Asm     controls `xml:"TargetOption>TargetArmAds>Aads>VariousControls"`
	LdMisc  string   `xml:"TargetOption>TargetArmAds>LDads>Misc"`
	Files   []string `xml:"Groups>Group>Files>File>FilePath"`
}

type uvProject struct {
	XMLName xml.Name `xml:"Project"`
	Targets []target `xml:"Targets>Target"`
}

// Project holds the data imported from a Keil project. Paths are relative
// to the workspace root and use forward slashes.
type Project struct {
	Name    string // project file name without extension
	Target  string
	Device  string
	SvdFile string // base name of the chip description file

	CSources    []string
	AsmSources  []string
	CDefines    []string
	AsmDefines  []string
	CIncludes   []string
	AsmIncludes []string

	// Controls that have no Makefile counterpart.
	CMisc   string
	AsmMisc string
	LdMisc  string
}

// Find returns the only Keil project file in the root folder tree.
func Find(root string) (string, error) {
	var found []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), Ext) {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(found) != 1 {
		return "", fmt.Errorf(
			"exactly one '*%s' file expected in %s, found %d", Ext, root, len(found),
		)
	}
	return found[0], nil
}

// Load reads the Keil project file name. Paths in the project are relative
// to its folder and are rebased on root. Paths that do not exist are
// reported and skipped. The first target is used if tgt is empty.
func Load(name, root, tgt string) (*Project, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	uv := new(uvProject)
	if err := xml.NewDecoder(f).Decode(uv); err != nil {
		return nil, fmt.Errorf("keil: %s: %w", name, err)
	}
	if len(uv.Targets) == 0 {
		return nil, fmt.Errorf("keil: %s: no targets", name)
	}
	t := &uv.Targets[0]
	if tgt != "" {
		i := slices.IndexFunc(uv.Targets, func(t target) bool { return t.Name == tgt })
		if i < 0 {
			return nil, fmt.Errorf("keil: %s: no target %q", name, tgt)
		}
		t = &uv.Targets[i]
	}
	r := rebaser{dir: filepath.Dir(name), root: root}
	p := &Project{
		Name:        strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
		Target:      t.Name,
		Device:      strings.TrimSpace(t.Device),
		CDefines:    defines(t.C.Define),
		AsmDefines:  defines(t.Asm.Define),
		CIncludes:   r.paths(strings.Split(t.C.IncludePath, ";")),
		AsmIncludes: r.paths(strings.Split(t.Asm.IncludePath, ";")),
		CMisc:       strings.TrimSpace(t.C.Misc),
		AsmMisc:     strings.TrimSpace(t.Asm.Misc),
		LdMisc:      strings.TrimSpace(t.LdMisc),
	}
	if sfd := strings.TrimSpace(t.SFDFile); sfd != "" {
		p.SvdFile = path.Base(strings.ReplaceAll(sfd, `\`, "/"))
	}
	for _, src := range r.paths(t.Files) {
		switch strings.ToLower(path.Ext(src)) {
		case ".c":
			p.CSources = append(p.CSources, src)
		case ".s":
			p.AsmSources = append(p.AsmSources, src)
		default:
			slog.Warn("not a C or assembly source, add it manually", "file", src)
		}
	}
	return p, nil
}

func defines(s string) []string {
	d := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(d) == 0 {
		return nil
	}
	return d
}

type rebaser struct {
	dir, root string
}

func isAbs(p string) bool {
	// Keil runs on Windows so C:/x is absolute on every host.
	return filepath.IsAbs(filepath.FromSlash(p)) || len(p) > 2 && p[1] == ':' && p[2] == '/'
}

func (r rebaser) paths(list []string) []string {
	var out []string
	for _, p := range list {
		p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
		if p == "" {
			continue
		}
		if isAbs(p) {
			out = append(out, path.Clean(p))
			continue
		}
		abs := filepath.Join(r.dir, filepath.FromSlash(p))
		if _, err := os.Stat(abs); err != nil {
			slog.Warn("Keil project path not found, skipped", "path", p)
			continue
		}
		if rel, err := filepath.Rel(r.root, abs); err == nil {
			abs = rel
		}
		out = append(out, filepath.ToSlash(abs))
	}
	return out
}

// Cleared lists the Makefile variables replaced by the Keil project data.
var Cleared = []string{
	makefile.CSources, makefile.AsmSources,
	makefile.CDefines, makefile.AsmDefines,
	makefile.CIncludes, makefile.AsmIncludes,
}

// Apply replaces the sources, defines and includes of the CubeMX Makefile
// mk with the ones from the Keil project. The startup file of the Keil
// project is replaced with the one from mk, because the Keil one uses the
// ARM assembler syntax.
func (p *Project) Apply(mk *makefile.File) error {
	tmpl, err := mk.Values(makefile.AsmSources)
	if err != nil {
		return err
	}
	asm, err := replaceStartup(p.AsmSources, tmpl)
	if err != nil {
		return err
	}
	for _, name := range Cleared {
		if err := mk.Clear(name); err != nil {
			return err
		}
	}
	for _, v := range []struct {
		name   string
		vals   []string
		prefix string
	}{
		{makefile.CSources, p.CSources, ""},
		{makefile.AsmSources, asm, ""},
		{makefile.CIncludes, p.CIncludes, "-I"},
		{makefile.AsmIncludes, p.AsmIncludes, "-I"},
		{makefile.CDefines, p.CDefines, "-D"},
		{makefile.AsmDefines, p.AsmDefines, "-D"},
	} {
		if err := mk.Append(v.name, v.vals, v.prefix); err != nil {
			return err
		}
	}
	for _, m := range []struct{ what, ctl string }{
		{"C compiler", p.CMisc},
		{"assembler", p.AsmMisc},
		{"linker", p.LdMisc},
	} {
		if m.ctl != "" {
			slog.Warn("Keil "+m.what+" controls not imported, add them manually", "controls", m.ctl)
		}
	}
	return nil
}

func isStartup(p string) bool {
	return strings.Contains(strings.ToLower(path.Base(p)), "startup")
}

// replaceStartup returns the Keil assembly sources with the startup file
// replaced with the one found in the CubeMX sources.
func replaceStartup(keil, cube []string) ([]string, error) {
	var startup []string
	for _, s := range cube {
		if isStartup(s) {
			startup = append(startup, s)
		}
	}
	if len(startup) != 1 {
		slog.Warn("no CubeMX startup file, Keil assembly sources kept", "sources", cube)
		return keil, nil
	}
	asm := slices.Clone(keil)
	i := 0
	switch len(asm) {
	case 0:
		return startup, nil
	case 1:
	default:
		i = -1
		for k, s := range asm {
			if isStartup(s) {
				if i >= 0 {
					i = -1
					break
				}
				i = k
			}
		}
		if i < 0 {
			return nil, fmt.Errorf("cannot determine the Keil startup file among %q", keil)
		}
	}
	slog.Info("Keil startup file replaced", "keil", asm[i], "cubemx", startup[0])
	asm[i] = startup[0]
	return asm, nil
}

type folder struct {
	Path string `json:"path"`
}

type workspaceFile struct {
	Folders  []folder       `json:"folders"`
	Settings map[string]any `json:"settings"`
}

// WriteWorkspace creates the VS Code workspace file for the project in root
// unless one exists. The folders of absolute source paths are added to the
// workspace. It returns the name of the created file or an empty string.
func (p *Project) WriteWorkspace(root string) (string, error) {
	existing, err := filepath.Glob(filepath.Join(root, "*.code-workspace"))
	if err != nil {
		return "", err
	}
	if len(existing) != 0 {
		return "", nil
	}
	ws := workspaceFile{
		Folders:  []folder{{"."}},
		Settings: map[string]any{},
	}
	var dirs []string
	for _, src := range slices.Concat(p.CSources, p.AsmSources) {
		if isAbs(src) {
			dirs = append(dirs, path.Dir(src))
		}
	}
	slices.Sort(dirs)
	for _, d := range slices.Compact(dirs) {
		ws.Folders = append(ws.Folders, folder{d})
	}
	data, err := json.MarshalIndent(ws, "", "    ")
	if err != nil {
		return "", err
	}
	name := filepath.Join(root, p.Name+".code-workspace")
	if err := os.WriteFile(name, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write workspace: %w", err)
	}
	return name, nil
}

// ErrModified is returned by Import for a Makefile already updated by wsync.
var ErrModified = errors.New("the Makefile was already updated by wsync, regenerate it with STM32CubeMX")

// Import loads the Makefile at mkPath, fills it with the Keil project data
// and saves it.
func (p *Project) Import(mkPath string) error {
	mk, err := makefile.Load(mkPath)
	if err != nil {
		return err
	}
	if makefile.HasPrintRule(mk.Lines) {
		return fmt.Errorf("%s: %w", mkPath, ErrModified)
	}
	if err := p.Apply(mk); err != nil {
		return err
	}
	return mk.Save()
}
