package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFile is the archive file name inside the data directory.
const DefaultFile = "runs.db"

// DataDir returns the path to the global tracelearn directory.
// On Unix: ~/.tracelearn
// On Windows: %USERPROFILE%\.tracelearn
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tracelearn"), nil
}

// DefaultPath returns the archive path inside DataDir.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFile), nil
}

// EnsureDataDir creates the global tracelearn directory if it doesn't exist.
func EnsureDataDir() error {
	dir, err := DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
