package unit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksmith-dev/stacksmith/internal/domain/modifier"
	"github.com/stacksmith-dev/stacksmith/internal/domain/orchestrator"
	"github.com/stacksmith-dev/stacksmith/internal/domain/snapshot"
	"github.com/stacksmith-dev/stacksmith/tests/helpers/testutil"
)

func TestFailedModuleRollsBackPredecessors(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"package.json": "{}\n",
		"taken.txt":    "original\n",
	})

	store := snapshot.NewStore(filepath.Join(t.TempDir(), "backups"), nil)
	orch := orchestrator.New(root, modifier.NewDefault(nil), nil,
		orchestrator.WithSnapshots(store))

	first := testutil.Module(t, `{
      "id": "first", "name": "First",
      "actions": [{"type": "create-file", "path": "first.txt", "content": "from first\n"}]
    }`, nil)
	// Fails: target exists and the default policy on conflict is to error.
	second := testutil.Module(t, `{
      "id": "second", "name": "Second",
      "actions": [{"type": "create-file", "path": "taken.txt", "content": "clobber\n"}]
    }`, nil)
	third := testutil.Module(t, `{
      "id": "third", "name": "Third",
      "actions": [{"type": "create-file", "path": "third.txt", "content": "never\n"}]
    }`, nil)

	report, err := orch.Install(context.Background(), []orchestrator.Module{first, second, third})
	require.Error(t, err)
	assert.Equal(t, "second", report.FailedModule)

	// The failed module never committed; the chain halted before the third.
	require.Len(t, report.Results, 2)
	assert.Equal(t, "original\n", testutil.ReadFile(t, root, "taken.txt"))
	assert.False(t, testutil.FileExists(t, root, "third.txt"))

	// The first module's artifacts were restored to the pre-install state.
	assert.Contains(t, report.RolledBack, "first")
	assert.False(t, testutil.FileExists(t, root, "first.txt"))
}

func TestFailureWithoutSnapshotsWarns(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"package.json": "{}\n",
		"taken.txt":    "original\n",
	})

	orch := orchestrator.New(root, modifier.NewDefault(nil), nil)
	first := testutil.Module(t, `{
      "id": "first", "name": "First",
      "actions": [{"type": "create-file", "path": "first.txt", "content": "from first\n"}]
    }`, nil)
	second := testutil.Module(t, `{
      "id": "second", "name": "Second",
      "actions": [{"type": "create-file", "path": "taken.txt", "content": "clobber\n"}]
    }`, nil)

	report, err := orch.Install(context.Background(), []orchestrator.Module{first, second})
	require.Error(t, err)

	// Committed work stays on disk and the report says so.
	assert.True(t, testutil.FileExists(t, root, "first.txt"))
	assert.Empty(t, report.RolledBack)
	assert.NotEmpty(t, report.Warnings)
}

func TestCancellationHaltsBetweenModules(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"package.json": "{}\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := orchestrator.New(root, modifier.NewDefault(nil), nil)
	mod := testutil.Module(t, `{
      "id": "only", "name": "Only",
      "actions": [{"type": "create-file", "path": "a.txt", "content": "x"}]
    }`, nil)

	report, err := orch.Install(ctx, []orchestrator.Module{mod})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
	assert.False(t, testutil.FileExists(t, root, "a.txt"))
}

func TestCheckOverlapRejectsSharedTargets(t *testing.T) {
	a := testutil.Module(t, `{
      "id": "a", "name": "A",
      "actions": [{"type": "create-file", "path": "src/routes/{{name}}.ts", "content": "x"}]
    }`, nil)
	b := testutil.Module(t, `{
      "id": "b", "name": "B",
      "actions": [{"type": "create-file", "path": "src/routes/users.ts", "content": "x"}]
    }`, nil)
	c := testutil.Module(t, `{
      "id": "c", "name": "C",
      "actions": [{"type": "create-file", "path": "docs/readme.md", "content": "x"}]
    }`, nil)

	orch := orchestrator.New(t.TempDir(), modifier.NewDefault(nil), nil)

	// Templated segments widen to wildcards, so a and b collide.
	err := orch.CheckOverlap([][]orchestrator.Module{{a, b}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlapping target")

	assert.NoError(t, orch.CheckOverlap([][]orchestrator.Module{{a, c}}))
	// Disjoint groups never cross-check.
	assert.NoError(t, orch.CheckOverlap([][]orchestrator.Module{{a}, {b}}))
}
