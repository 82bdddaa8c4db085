// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSecureWrite_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.json")

	if err := SecureWrite(nil, target, []byte(`{"ok":true}`), nil); err != nil {
		t.Fatalf("SecureWrite() failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("failed to read back target: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected content: %s", data)
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected permissions 0600, got %v", info.Mode().Perm())
	}
}

func TestSecureWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.json")

	if err := SecureWrite(nil, target, []byte("first"), nil); err != nil {
		t.Fatal(err)
	}
	if err := SecureWrite(nil, target, []byte("second"), nil); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(target)
	if string(data) != "second" {
		t.Errorf("expected overwrite, got %s", data)
	}
}

func TestSecureWrite_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.json")

	if err := SecureWrite(nil, target, []byte("payload"), nil); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSecureWrite_ReadOnlyMode(t *testing.T) {
	dir := t.TempDir()
	sb := &StateBox{rootPath: dir, readOnly: true}
	target := filepath.Join(dir, "out.json")

	err := SecureWrite(sb, target, []byte("nope"), nil)
	if err != ErrReadOnlyMode {
		t.Errorf("expected ErrReadOnlyMode, got %v", err)
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Error("file should not exist after read-only write")
	}
}
