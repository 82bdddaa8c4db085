// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrReadOnlyMode is returned when a write operation is attempted in read-only mode.
var ErrReadOnlyMode = errors.New("read-only environment: write operations disabled")

// SecureWriteOptions configures the secure write operation.
type SecureWriteOptions struct {
	// Permissions sets the file permissions (default: 0600)
	Permissions os.FileMode
}

// SecureWrite atomically writes data to a file using the rename-swap pattern.
// It writes to a temporary file first, calls fsync(), then atomically renames
// to the target path, so a crash mid-write never corrupts the target file.
//
// If sb is in read-only mode, returns ErrReadOnlyMode without modifying any
// files. If opts is nil, default options are used (0600 permissions).
func SecureWrite(sb *StateBox, path string, data []byte, opts *SecureWriteOptions) error {
	if sb != nil && sb.IsReadOnly() {
		return ErrReadOnlyMode
	}

	perm := os.FileMode(0600)
	if opts != nil && opts.Permissions != 0 {
		perm = opts.Permissions
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Unique temp name keeps concurrent writers from trampling each other.
	tempPath := fmt.Sprintf("%s.tmp.%s", path, uuid.New().String())

	tempFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tempPath, err)
	}

	cleanupTemp := true
	defer func() {
		if cleanupTemp {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename: rename() is atomic within the same filesystem on Unix,
	// and on NTFS for same-volume operations on Windows.
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to target: %w", err)
	}
	cleanupTemp = false

	// Best effort: sync the directory so the rename survives a crash.
	if err := syncDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to sync directory %s: %v\n", dir, err)
	}

	return nil
}

// syncDir syncs a directory to ensure metadata changes are persisted.
// This is a best-effort operation and may not be supported on all platforms.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
