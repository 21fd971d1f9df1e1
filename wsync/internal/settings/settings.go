// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package settings reads and writes the JSON files that describe the build:
// buildData.json, the user-level toolsPaths.json and the VS Code
// c_cpp_properties.json.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
)

// ValidationError reports a missing or invalid key of a settings record.
type ValidationError struct {
	File string
	Key  string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.File, e.Key, e.Msg)
}

// Stamp is written to every generated settings file.
type Stamp struct {
	Version string `json:"VERSION"`
	LastRun string `json:"LAST_RUN"`
}

func (s *Stamp) set(version string, now time.Time) {
	s.Version = version
	s.LastRun = now.Format(time.DateTime)
}

// loadRecord decodes the JSON file at path into v. Comments and trailing
// commas are accepted. A missing file leaves v untouched. A file that is not
// valid JSON is logged and removed, as it is always regenerated.
func loadRecord(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("settings file not found", "file", path)
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if data, err = hujson.Standardize(data); err == nil {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		slog.Warn("invalid settings file, it will be recreated", "file", path, "err", err)
		if err := os.Remove(path); err != nil {
			return false, fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
		return false, nil
	}
	return true, nil
}

// saveRecord truncates the file at path and writes v into it.
func saveRecord(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	slog.Info("settings file updated", "file", path)
	return nil
}
