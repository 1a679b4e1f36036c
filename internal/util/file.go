package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetTempDir returns base, or the system temp dir when base is empty, with an
// autocard sub directory.
func GetTempDir(base string) string {
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "autocard")
}

// MkdirTemp creates a fresh work directory for one request. Callers remove it.
func MkdirTemp(base, pattern string) (string, error) {
	tempDir := GetTempDir(base)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	return os.MkdirTemp(tempDir, pattern)
}
