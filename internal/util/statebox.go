// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util provides filesystem utilities shared by the pulsefitLocal
// data layer: state directory resolution and atomic file writes.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StateBox manages the canonical state directory for pulsefitLocal.
// All mutable application data (cached collections, auth session, logs)
// lives underneath its root, so path resolution and read-only handling
// stay in one place.
type StateBox struct {
	rootPath string
	readOnly bool
	mu       sync.RWMutex
}

// NewStateBox creates a new StateBox instance.
// It reads PULSEFIT_STATE_DIR and PULSEFIT_READONLY from environment
// variables. If PULSEFIT_STATE_DIR is not set, it defaults to ~/.pulsefit.
// If PULSEFIT_READONLY is set to "1", the StateBox operates in read-only mode.
func NewStateBox() (*StateBox, error) {
	stateDir := os.Getenv("PULSEFIT_STATE_DIR")
	if stateDir == "" {
		stateDir = "~/.pulsefit"
	}

	resolvedPath, err := ExpandPath(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}

	readOnly := os.Getenv("PULSEFIT_READONLY") == "1"

	return &StateBox{
		rootPath: resolvedPath,
		readOnly: readOnly,
	}, nil
}

// NewStateBoxAt creates a StateBox rooted at an explicit directory,
// bypassing the environment. Tests and embedders use this to isolate state.
func NewStateBoxAt(root string) (*StateBox, error) {
	resolvedPath, err := ExpandPath(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}
	return &StateBox{rootPath: resolvedPath}, nil
}

// RootPath returns the resolved State Box root directory.
func (sb *StateBox) RootPath() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.rootPath
}

// IsReadOnly returns whether the State Box is in read-only mode.
func (sb *StateBox) IsReadOnly() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.readOnly
}

// CollectionsDir returns the path to the cached-collections subdirectory.
func (sb *StateBox) CollectionsDir() string {
	return filepath.Join(sb.RootPath(), "collections")
}

// LogsDir returns the path to the logs subdirectory.
func (sb *StateBox) LogsDir() string {
	return filepath.Join(sb.RootPath(), "logs")
}

// DatabasePath returns the path of the SQLite cache database.
func (sb *StateBox) DatabasePath() string {
	return filepath.Join(sb.RootPath(), "cache.db")
}

// ExpandPath expands a leading "~" to the user's home directory and cleans
// the result. Relative paths are left relative.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Clean(path), nil
}
