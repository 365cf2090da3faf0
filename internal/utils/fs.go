package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ResolvePath expands ~ and joins relative paths onto base
func ResolvePath(base, path string) string {
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// IsNotExist reports whether err means a file or directory is missing
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
