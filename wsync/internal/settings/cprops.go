// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/tailscale/hujson"
)

// Keys of the c_cpp_properties.json "env" object written by wsync.
const (
	EnvSourceFiles    = "cubemx_sourceFiles"
	EnvIncludes       = "cubemx_includes"
	EnvDefines        = "cubemx_defines"
	EnvGccExePath     = "gccExePath"
	EnvGccIncludePath = "gccIncludePath"
)

const emptyCProperties = `{"configurations": [], "env": {}, "version": 4}`

const defaultConfiguration = `{
	"name": "",
	"includePath": [
		"${gccIncludePath}",
		"${cubemx_includes}",
		"${user_cIncludes}"
	],
	"defines": [
		"${cubemx_defines}",
		"${user_cDefines}"
	],
	"compilerPath": "${gccExePath}",
	"cStandard": "c11",
	"cppStandard": "c++17",
	"intelliSenseMode": "gcc-arm",
	"browse": {
		"limitSymbolsToIncludedHeaders": false
	}
}`

var defaultEnv = []struct {
	key string
	val any
}{
	{"user_cSources", []string{}},
	{"user_asmSources", []string{}},
	{"user_ldSources", []string{}},
	{"user_cIncludes", []string{}},
	{"user_asmIncludes", []string{}},
	{"user_ldIncludes", []string{}},
	{"user_cDefines", []string{}},
	{"user_asmDefines", []string{}},
	{"user_cFlags", []string{}},
	{"user_asmFlags", []string{}},
	{"user_ldFlags", []string{}},
	{EnvSourceFiles, []string{}},
	{EnvIncludes, []string{}},
	{EnvDefines, []string{}},
	{EnvGccExePath, ""},
	{EnvGccIncludePath, ""},
}

// StringList is a list of strings that can also be written in JSON as a
// single string.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = nil
		if s = strings.TrimSpace(s); s != "" {
			*l = StringList{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*l = list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

func (StringList) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
	}
}

// UserSources holds the user_* entries of the c_cpp_properties.json "env"
// object. They are appended to the CubeMX Makefile on every update.
type UserSources struct {
	CSources   StringList `json:"user_cSources"`
	AsmSources StringList `json:"user_asmSources"`
	LdSources  StringList `json:"user_ldSources"`

	CIncludes   StringList `json:"user_cIncludes"`
	AsmIncludes StringList `json:"user_asmIncludes"`
	LdIncludes  StringList `json:"user_ldIncludes"`

	CDefines   StringList `json:"user_cDefines"`
	AsmDefines StringList `json:"user_asmDefines"`

	CFlags   StringList `json:"user_cFlags"`
	AsmFlags StringList `json:"user_asmFlags"`
	LdFlags  StringList `json:"user_ldFlags"`
}

// CProperties is the c_cpp_properties.json document. It is edited in place
// so the user's comments and the order of keys survive an update.
type CProperties struct {
	Path string
	v    hujson.Value
}

// LoadCProperties reads the c_cpp_properties.json file. A missing file is
// replaced by the default document. An invalid one is first copied to
// backup. Keys required by wsync are added if missing.
func LoadCProperties(name, backup string) (*CProperties, error) {
	data, err := os.ReadFile(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("new c_cpp_properties.json will be created", "file", name)
		data = []byte(emptyCProperties)
	case err != nil:
		return nil, fmt.Errorf("read c_cpp_properties.json: %w", err)
	}
	v, err := parseObject(data)
	if err != nil {
		slog.Warn(
			"invalid c_cpp_properties.json, creating a backup and a new one",
			"backup", backup, "err", err,
		)
		if err := os.WriteFile(backup, data, 0o644); err != nil {
			return nil, fmt.Errorf("backup c_cpp_properties.json: %w", err)
		}
		if v, err = parseObject([]byte(emptyCProperties)); err != nil {
			return nil, err
		}
	}
	c := &CProperties{Path: name, v: v}
	if err := c.complete(); err != nil {
		return nil, fmt.Errorf("c_cpp_properties.json: %w", err)
	}
	return c, nil
}

func parseObject(data []byte) (hujson.Value, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return v, err
	}
	if _, ok := v.Value.(*hujson.Object); !ok {
		return v, errors.New("not a JSON object")
	}
	return v, nil
}

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// set returns the operation that assigns val to the member at ptr.
func (c *CProperties) set(ptr string, val any) patchOp {
	op := "add"
	if c.v.Find(ptr) != nil {
		op = "replace"
	}
	return patchOp{op, ptr, val}
}

func (c *CProperties) patch(ops ...patchOp) error {
	if len(ops) == 0 {
		return nil
	}
	b, err := json.Marshal(ops)
	if err != nil {
		return err
	}
	return c.v.Patch(b)
}

// complete adds the "env" members and the first configuration if missing.
func (c *CProperties) complete() error {
	if c.v.Find("/env") == nil {
		if err := c.patch(patchOp{"add", "/env", map[string]any{}}); err != nil {
			return err
		}
	}
	if c.v.Find("/configurations") == nil {
		if err := c.patch(patchOp{"add", "/configurations", []any{}}); err != nil {
			return err
		}
	}
	var ops []patchOp
	if c.v.Find("/configurations/0") == nil {
		ops = append(ops, patchOp{"add", "/configurations/0", json.RawMessage(defaultConfiguration)})
	}
	for _, e := range defaultEnv {
		if c.v.Find("/env/"+e.key) == nil {
			ops = append(ops, patchOp{"add", "/env/" + e.key, e.val})
		}
	}
	return c.patch(ops...)
}

// User returns the user_* entries.
func (c *CProperties) User() (*UserSources, error) {
	v := c.v.Clone()
	v.Standardize()
	var doc struct {
		Env UserSources `json:"env"`
	}
	if err := json.Unmarshal(v.Pack(), &doc); err != nil {
		return nil, fmt.Errorf("c_cpp_properties.json: env: %w", err)
	}
	return &doc.Env, nil
}

// Generated is the data wsync writes into c_cpp_properties.json.
type Generated struct {
	Name           string // configuration name, the workspace name
	SourceFiles    []string
	Includes       []string
	Defines        []string
	GccExePath     string
	GccIncludePath string
}

// Update replaces the generated entries of the document.
func (c *CProperties) Update(g Generated) error {
	list := func(l []string) []string {
		if l == nil {
			return []string{}
		}
		return l
	}
	err := c.patch(
		c.set("/env/"+EnvSourceFiles, list(g.SourceFiles)),
		c.set("/env/"+EnvIncludes, list(g.Includes)),
		c.set("/env/"+EnvDefines, list(g.Defines)),
		c.set("/env/"+EnvGccExePath, g.GccExePath),
		c.set("/env/"+EnvGccIncludePath, g.GccIncludePath),
		c.set("/configurations/0/name", g.Name),
	)
	if err != nil {
		return fmt.Errorf("update c_cpp_properties.json: %w", err)
	}
	return nil
}

// Bytes returns the formatted document.
func (c *CProperties) Bytes() []byte {
	c.v.Format()
	return c.v.Pack()
}

// Save truncates the file and writes the document into it.
func (c *CProperties) Save() error {
	if err := os.WriteFile(c.Path, c.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write c_cpp_properties.json: %w", err)
	}
	slog.Info("settings file updated", "file", c.Path)
	return nil
}
