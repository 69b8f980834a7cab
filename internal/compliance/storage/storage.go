// Package storage persists attachment binaries on the local filesystem
// under a configured base directory.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Disk writes attachment files under baseDir and hands back paths
// relative to it, so the base directory can move without rewriting rows.
type Disk struct {
	baseDir string
}

// NewDisk constructs a disk store rooted at baseDir.
func NewDisk(baseDir string) *Disk {
	return &Disk{baseDir: baseDir}
}

// Save writes content at relPath under the base directory, creating
// parent directories as needed. Paths escaping the base are rejected.
func (d *Disk) Save(_ context.Context, relPath string, content []byte) (string, error) {
	relPath = filepath.Clean(relPath)
	if filepath.IsAbs(relPath) || strings.HasPrefix(relPath, "..") {
		return "", fmt.Errorf("invalid attachment path %q", relPath)
	}
	full := filepath.Join(d.baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create attachment directory: %w", err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", fmt.Errorf("write attachment file: %w", err)
	}
	return relPath, nil
}

// Read returns the bytes stored at a path previously returned by Save.
func (d *Disk) Read(_ context.Context, storedPath string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(d.baseDir, filepath.Clean(storedPath)))
	if err != nil {
		return nil, fmt.Errorf("read attachment file: %w", err)
	}
	return content, nil
}

// Remove deletes the stored file. A file already gone is not an error.
func (d *Disk) Remove(_ context.Context, storedPath string) error {
	err := os.Remove(filepath.Join(d.baseDir, filepath.Clean(storedPath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment file: %w", err)
	}
	return nil
}
