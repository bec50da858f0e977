// Package testutil provides testing utilities and helpers for engine tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stacksmith-dev/stacksmith/internal/domain/blueprint"
	"github.com/stacksmith-dev/stacksmith/internal/domain/orchestrator"
	"github.com/stacksmith-dev/stacksmith/internal/domain/template"
	"github.com/stacksmith-dev/stacksmith/internal/shared/types"
)

// WriteTree materializes the given relative-path to content mapping under
// root, creating parent directories as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// ReadFile returns the content of root/rel, failing the test on error.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(content)
}

// FileExists reports whether root/rel exists as a regular file.
func FileExists(t *testing.T, root, rel string) bool {
	t.Helper()
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// ParseBlueprint parses a JSON blueprint document, failing the test on error.
func ParseBlueprint(t *testing.T, doc string) *types.Blueprint {
	t.Helper()
	bp, err := blueprint.NewParser().Parse([]byte(doc), blueprint.FormatJSON)
	require.NoError(t, err)
	return bp
}

// Module wraps a parsed blueprint into an installable module using the
// blueprint's own id and the given context values.
func Module(t *testing.T, doc string, values map[string]interface{}) orchestrator.Module {
	t.Helper()
	bp := ParseBlueprint(t, doc)
	return orchestrator.Module{
		ID:        bp.ID,
		Blueprint: bp,
		Context:   template.NewContext(values),
	}
}
