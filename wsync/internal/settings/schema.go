// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package settings

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/invopop/jsonschema"
)

var schemas = map[string]func() any{
	"buildData":   func() any { return new(BuildData) },
	"toolsPaths":  func() any { return new(ToolsPaths) },
	"userSources": func() any { return new(UserSources) },
}

// SchemaNames returns the names accepted by Schema.
func SchemaNames() []string {
	return slices.Sorted(maps.Keys(schemas))
}

// Schema returns the JSON Schema of the named settings record.
func Schema(name string) ([]byte, error) {
	newRecord, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown settings record %q (known: %v)", name, SchemaNames())
	}
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	s := r.Reflect(newRecord())
	s.Title = name
	return json.MarshalIndent(s, "", "  ")
}
