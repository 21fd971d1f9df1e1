// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package updater

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

// Watch calls update every time the Makefile or c_cpp_properties.json is
// modified by something other than update itself. Changes are collected
// for delay before update is called. Watch returns when ctx is done.
func Watch(ctx context.Context, ws *workspace.Workspace, delay time.Duration, update func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	// Editors often replace files so the folders are watched.
	for _, dir := range []string{ws.Root, ws.VSCode} {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	watched := []string{ws.Makefile, ws.CProperties}
	last := snapshot(watched)
	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()
	slog.InfoContext(ctx, "watching workspace", "root", ws.Root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || !slices.Contains(watched, event.Name) {
				continue
			}
			slog.DebugContext(ctx, "file event", "file", event.Name, "op", event.Op.String())
			timer.Reset(delay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "error watching workspace", "err", err)
		case <-timer.C:
			if maps.Equal(last, snapshot(watched)) {
				continue
			}
			slog.InfoContext(ctx, "workspace modified, updating")
			if err := update(ctx); err != nil {
				slog.ErrorContext(ctx, "update failed", "err", err)
			}
			last = snapshot(watched)
		}
	}
}

// snapshot returns the content of the named files. Missing files have no
// content.
func snapshot(names []string) map[string]string {
	m := make(map[string]string, len(names))
	for _, name := range names {
		b, err := os.ReadFile(name)
		if err != nil {
			b = nil
		}
		m[name] = string(b)
	}
	return m
}
