// Package security validates operator-supplied locations before they are opened.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenChars are rejected in database paths. They never appear in a
// legitimate file name and point at an injection attempt.
var forbiddenChars = []string{";", "&", "|", "$", "`", "<", ">", "\n", "\r", "\x00"}

// ValidateDatabasePath checks a SQLite location and returns it cleaned and
// absolute. In-memory databases and file: URIs are returned unchanged. A
// trailing query string (?_pragma=...) is kept as is.
func ValidateDatabasePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("database path cannot be empty")
	}
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}

	file, query, _ := strings.Cut(path, "?")
	for _, char := range forbiddenChars {
		if strings.Contains(file, char) {
			return "", fmt.Errorf("database path contains forbidden character %q", char)
		}
	}

	clean := filepath.Clean(file)
	if !filepath.IsAbs(clean) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		clean = filepath.Join(cwd, clean)
	}

	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("database path %s is a directory", clean)
	}

	if query != "" {
		return clean + "?" + query, nil
	}
	return clean, nil
}
