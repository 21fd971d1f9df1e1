// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package updater

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/embeddedgo/wsync/wsync/internal/workspace"
)

func TestWatch(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ws := &workspace.Workspace{
		Root:        root,
		VSCode:      filepath.Join(root, ".vscode"),
		Makefile:    filepath.Join(root, "Makefile"),
		CProperties: filepath.Join(root, ".vscode", "c_cpp_properties.json"),
	}
	write(t, ws.Makefile, "TARGET = blinky\n")
	write(t, ws.CProperties, "{}")

	calls := make(chan int, 10)
	n := 0
	update := func(ctx context.Context) error {
		n++
		// Own writes must not trigger another update.
		err := os.WriteFile(ws.Makefile, []byte("TARGET = blinky\n# updated\n"), 0o644)
		calls <- n
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, ws, 50*time.Millisecond, update) }()

	// Give the watcher time to start.
	time.Sleep(200 * time.Millisecond)
	write(t, filepath.Join(root, "other.txt"), "ignored")
	write(t, ws.CProperties, `{"env": {}}`)

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("update not called")
	}
	select {
	case n := <-calls:
		t.Errorf("update called again (%d)", n)
	case <-time.After(500 * time.Millisecond):
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
