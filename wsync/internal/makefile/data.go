// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package makefile

import (
	"errors"
	"fmt"
	"strings"
)

// Names of the variables defined by a CubeMX generated Makefile.
const (
	ProjectName = "TARGET"
	BuildDir    = "BUILD_DIR"
	CSources    = "C_SOURCES"
	AsmSources  = "ASM_SOURCES"
	LdSources   = "LIBS"
	CDefines    = "C_DEFS"
	AsmDefines  = "AS_DEFS"
	CIncludes   = "C_INCLUDES"
	AsmIncludes = "AS_INCLUDES"
	LdIncludes  = "LIBDIR"
	CFlags      = "CFLAGS"
	AsmFlags    = "ASFLAGS"
	LdFlags     = "LDFLAGS"
)

// Names lists the tracked variables in the order they appear in the
// generated Makefile.
var Names = []string{
	ProjectName, BuildDir,
	CSources, AsmSources,
	CDefines, AsmDefines, CIncludes, AsmIncludes,
	AsmFlags, CFlags,
	LdSources, LdIncludes, LdFlags,
}

// Data holds the values of the tracked variables, expanded and split into
// fields.
type Data struct {
	ProjectName string
	BuildDir    string

	CSources   []string
	AsmSources []string
	LdSources  []string

	CDefines   []string // without the -D prefix
	AsmDefines []string // without the -D prefix

	CIncludes   []string // without the -I prefix
	AsmIncludes []string // without the -I prefix
	LdIncludes  []string // without the -L prefix

	CFlags   []string
	AsmFlags []string
	LdFlags  []string
}

// ReadData extracts the tracked variables from the Makefile lines. It
// fails if any of them is missing.
func ReadData(lines []string) (*Data, error) {
	var errs []error
	get := func(name, strip string) []string {
		vals, err := Values(lines, name)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		fields := strings.Fields(Expand(lines, strings.Join(vals, " ")))
		if strip != "" {
			for i, f := range fields {
				fields[i] = strings.TrimPrefix(f, strip)
			}
		}
		return fields
	}
	one := func(name string) string {
		f := get(name, "")
		if len(f) == 0 {
			return ""
		}
		return f[0]
	}
	d := &Data{
		ProjectName: one(ProjectName),
		BuildDir:    one(BuildDir),
		CSources:    get(CSources, ""),
		AsmSources:  get(AsmSources, ""),
		LdSources:   get(LdSources, ""),
		CDefines:    get(CDefines, "-D"),
		AsmDefines:  get(AsmDefines, "-D"),
		CIncludes:   get(CIncludes, "-I"),
		AsmIncludes: get(AsmIncludes, "-I"),
		LdIncludes:  get(LdIncludes, "-L"),
		CFlags:      get(CFlags, ""),
		AsmFlags:    get(AsmFlags, ""),
		LdFlags:     get(LdFlags, ""),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if d.ProjectName == "" {
		return nil, fmt.Errorf("%s has no value: %w", ProjectName, ErrStructuralMismatch)
	}
	if d.BuildDir == "" {
		return nil, fmt.Errorf("%s has no value: %w", BuildDir, ErrStructuralMismatch)
	}
	return d, nil
}

// Expand replaces $(NAME) and ${NAME} references in s with the values of
// the variables defined in lines. References to undefined variables and
// make functions like $(addprefix ...) are left untouched.
func Expand(lines []string, s string) string {
	return expand(lines, s, make(map[string]bool))
}

func expand(lines []string, s string, visiting map[string]bool) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '$' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}
		var closing byte
		switch s[i+1] {
		case '$':
			b.WriteString("$$")
			i += 2
			continue
		case '(':
			closing = ')'
		case '{':
			closing = '}'
		default:
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(s[i+2:], closing)
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		ref := s[i : i+2+end+1]
		name := s[i+2 : i+2+end]
		i += len(ref)
		if !isVarName(name) || visiting[name] {
			b.WriteString(ref)
			continue
		}
		vals, err := Values(lines, name)
		if err != nil {
			b.WriteString(ref)
			continue
		}
		visiting[name] = true
		b.WriteString(expand(lines, strings.Join(vals, " "), visiting))
		delete(visiting, name)
	}
	return b.String()
}

func isVarName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
