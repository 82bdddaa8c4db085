// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewStateBox_DefaultPath(t *testing.T) {
	os.Unsetenv("PULSEFIT_STATE_DIR")
	os.Unsetenv("PULSEFIT_READONLY")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("NewStateBox() failed: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}
	expected := filepath.Join(home, ".pulsefit")

	if sb.RootPath() != expected {
		t.Errorf("Expected root path %s, got %s", expected, sb.RootPath())
	}
	if sb.IsReadOnly() {
		t.Error("Expected read-only to be false by default")
	}
}

func TestNewStateBox_EnvVarOverride(t *testing.T) {
	customDir := "/tmp/custom-state"
	os.Setenv("PULSEFIT_STATE_DIR", customDir)
	defer os.Unsetenv("PULSEFIT_STATE_DIR")
	os.Unsetenv("PULSEFIT_READONLY")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("NewStateBox() failed: %v", err)
	}

	if sb.RootPath() != customDir {
		t.Errorf("Expected root path %s, got %s", customDir, sb.RootPath())
	}
}

func TestNewStateBox_TildeExpansion(t *testing.T) {
	os.Setenv("PULSEFIT_STATE_DIR", "~/my-state")
	defer os.Unsetenv("PULSEFIT_STATE_DIR")
	os.Unsetenv("PULSEFIT_READONLY")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("NewStateBox() failed: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}
	expected := filepath.Join(home, "my-state")

	if sb.RootPath() != expected {
		t.Errorf("Expected root path %s, got %s", expected, sb.RootPath())
	}
}

func TestNewStateBox_ReadOnlyMode(t *testing.T) {
	os.Setenv("PULSEFIT_READONLY", "1")
	defer os.Unsetenv("PULSEFIT_READONLY")
	os.Setenv("PULSEFIT_STATE_DIR", t.TempDir())
	defer os.Unsetenv("PULSEFIT_STATE_DIR")

	sb, err := NewStateBox()
	if err != nil {
		t.Fatalf("NewStateBox() failed: %v", err)
	}
	if !sb.IsReadOnly() {
		t.Error("Expected read-only mode to be enabled")
	}
}

func TestStateBox_SubDirectories(t *testing.T) {
	root := t.TempDir()
	sb, err := NewStateBoxAt(root)
	if err != nil {
		t.Fatalf("NewStateBoxAt() failed: %v", err)
	}

	if got := sb.CollectionsDir(); got != filepath.Join(root, "collections") {
		t.Errorf("unexpected collections dir: %s", got)
	}
	if got := sb.LogsDir(); got != filepath.Join(root, "logs") {
		t.Errorf("unexpected logs dir: %s", got)
	}
	if got := sb.DatabasePath(); got != filepath.Join(root, "cache.db") {
		t.Errorf("unexpected database path: %s", got)
	}
}

func TestExpandPath_Empty(t *testing.T) {
	if _, err := ExpandPath(""); err == nil {
		t.Error("expected error for empty path")
	}
}
