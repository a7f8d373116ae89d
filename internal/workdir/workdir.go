// Package workdir locates the files the caption wizard keeps between runs.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// HistoryFile is the sqlite database holding generated captions.
	HistoryFile = "history.sqlite"
	// LogFile is the rotating log written while the terminal UI is running.
	LogFile = "captions.log"
)

// Root returns the base directory for all caption wizard files.
// The path is expanded at runtime to resolve to:
//
//	$HOME/Documents/Alkime/Captions
//
// CAPTIONS_HOME overrides it.
func Root() (string, error) {
	if dir := os.Getenv("CAPTIONS_HOME"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "Alkime", "Captions"), nil
}

// FilePath returns the full path for a file in the root directory.
func FilePath(filename string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filename), nil
}

// Prep ensures that the root directory exists.
func Prep() error {
	root, err := Root()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory %s: %w", root, err)
	}

	return nil
}
