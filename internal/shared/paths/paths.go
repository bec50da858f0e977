package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Normalize converts a blueprint-supplied path into the canonical
// project-relative form used as a VFS key.
func Normalize(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	cleaned := path.Clean(filepath.ToSlash(p))

	if path.IsAbs(cleaned) || (len(cleaned) > 1 && cleaned[1] == ':') {
		return "", fmt.Errorf("absolute path not allowed: %s", p)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path escapes project root: %s", p)
	}
	if cleaned == "." {
		return "", fmt.Errorf("path resolves to project root: %s", p)
	}

	return cleaned, nil
}

// OnDisk joins a normalized path with the project root, producing the
// platform-specific location of the real file.
func OnDisk(root, normalized string) string {
	return filepath.Join(root, filepath.FromSlash(normalized))
}

// Within reports whether child is equal to or nested under parent.
// Both arguments must already be normalized.
func Within(parent, child string) bool {
	return child == parent || strings.HasPrefix(child, parent+"/")
}
