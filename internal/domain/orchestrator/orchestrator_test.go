package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stacksmith-dev/stacksmith/internal/domain/modifier"
	"github.com/stacksmith-dev/stacksmith/internal/domain/snapshot"
	"github.com/stacksmith-dev/stacksmith/internal/domain/template"
	"github.com/stacksmith-dev/stacksmith/internal/shared/types"
)

func newOrchestrator(root string) *Orchestrator {
	store := snapshot.NewStore(filepath.Join(root, ".stacksmith", "backups"), nil)
	return New(root, modifier.NewDefault(nil), nil, WithSnapshots(store))
}

func emptyModule(id string, actions ...types.Action) Module {
	return Module{
		ID:        id,
		Blueprint: &types.Blueprint{ID: id, Name: id, Actions: actions},
		Context:   template.NewContext(nil),
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestInstallSequencesModules(t *testing.T) {
	root := t.TempDir()
	o := newOrchestrator(root)

	m1 := emptyModule("base",
		types.Action{Kind: types.ActionCreateFile, Path: "package.json", Content: `{"dependencies":{}}`},
	)
	m2 := emptyModule("database",
		types.Action{
			Kind:     types.ActionEnhanceFile,
			Path:     "package.json",
			Modifier: "structured-merge",
			Params: map[string]interface{}{
				"data": map[string]interface{}{
					"dependencies": map[string]interface{}{"foo": "^1.0.0"},
				},
			},
		},
	)

	report, err := o.Install(context.Background(), []Module{m1, m2})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}

	manifest := readFile(t, root, "package.json")
	if !strings.Contains(manifest, `"foo": "^1.0.0"`) {
		t.Errorf("second module did not see first module's file: %q", manifest)
	}
}

func TestReRunDoesNotDuplicate(t *testing.T) {
	root := t.TempDir()
	o := newOrchestrator(root)

	mod := emptyModule("database",
		types.Action{
			Kind:      types.ActionEnhanceFile,
			Path:      "package.json",
			Modifier:  "structured-merge",
			OnMissing: types.FallbackCreate,
			Params: map[string]interface{}{
				"data": map[string]interface{}{
					"dependencies": map[string]interface{}{"foo": "^1.0.0"},
				},
			},
		},
	)

	if _, err := o.Install(context.Background(), []Module{mod}); err != nil {
		t.Fatal(err)
	}
	first := readFile(t, root, "package.json")

	if _, err := o.Install(context.Background(), []Module{mod}); err != nil {
		t.Fatal(err)
	}
	second := readFile(t, root, "package.json")

	if first != second {
		t.Errorf("re-run corrupted the manifest:\n%q\nvs\n%q", first, second)
	}
	if strings.Count(second, "foo") != 1 {
		t.Errorf("dependency duplicated: %q", second)
	}
}

func TestFailureRollsBackCommittedModules(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "app.css"), []byte("body {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	o := newOrchestrator(root)

	good := emptyModule("ui",
		types.Action{Kind: types.ActionCreateFile, Path: "src/theme.css", Content: ".theme {}\n"},
		types.Action{Kind: types.ActionAppendContent, Path: "app.css", Content: ".generated {}"},
	)
	bad := emptyModule("deploy",
		types.Action{Kind: types.ActionEnhanceFile, Path: "missing.json", Modifier: "structured-merge",
			OnMissing: types.FallbackError,
			Params:    map[string]interface{}{"data": map[string]interface{}{}}},
	)

	report, err := o.Install(context.Background(), []Module{good, bad})
	if err == nil {
		t.Fatal("expected failure")
	}
	if report.FailedModule != "deploy" {
		t.Errorf("unexpected failed module: %s", report.FailedModule)
	}
	if len(report.RolledBack) != 1 || report.RolledBack[0] != "ui" {
		t.Errorf("expected ui rolled back, got %v", report.RolledBack)
	}

	// The good module's artifacts are compensated away.
	if _, statErr := os.Stat(filepath.Join(root, "src", "theme.css")); !os.IsNotExist(statErr) {
		t.Error("created file survived rollback")
	}
	if got := readFile(t, root, "app.css"); got != "body {}\n" {
		t.Errorf("appended content survived rollback: %q", got)
	}
}

func TestHaltsAfterFailure(t *testing.T) {
	root := t.TempDir()
	o := newOrchestrator(root)

	bad := emptyModule("bad",
		types.Action{Kind: types.ActionEnhanceFile, Path: "x.json", Modifier: "structured-merge",
			OnMissing: types.FallbackError,
			Params:    map[string]interface{}{"data": map[string]interface{}{}}},
	)
	never := emptyModule("never",
		types.Action{Kind: types.ActionCreateFile, Path: "never.txt", Content: "x"},
	)

	report, err := o.Install(context.Background(), []Module{bad, never})
	if err == nil {
		t.Fatal("expected failure")
	}
	if len(report.Results) != 1 {
		t.Errorf("remaining modules must not run after a failure: %d results", len(report.Results))
	}
	if _, statErr := os.Stat(filepath.Join(root, "never.txt")); !os.IsNotExist(statErr) {
		t.Error("halted module still ran")
	}
}

func TestCancellationBetweenModules(t *testing.T) {
	root := t.TempDir()
	o := newOrchestrator(root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mod := emptyModule("m", types.Action{Kind: types.ActionCreateFile, Path: "a.txt", Content: "x"})
	_, err := o.Install(ctx, []Module{mod})
	if err == nil {
		t.Fatal("expected context error")
	}
	if _, statErr := os.Stat(filepath.Join(root, "a.txt")); !os.IsNotExist(statErr) {
		t.Error("module ran despite cancellation")
	}
}

func TestCheckOverlap(t *testing.T) {
	o := New(t.TempDir(), modifier.NewDefault(nil), nil)

	db := emptyModule("db", types.Action{Kind: types.ActionCreateFile, Path: "src/db/index.ts", Content: "x"})
	ui := emptyModule("ui", types.Action{Kind: types.ActionCreateFile, Path: "src/ui/index.ts", Content: "x"})
	if err := o.CheckOverlap([][]Module{{db, ui}}); err != nil {
		t.Errorf("disjoint targets rejected: %v", err)
	}

	glob := emptyModule("glob", types.Action{Kind: types.ActionCreateFile, Path: "src/db/index.ts", Content: "x"})
	glob.Targets = []string{"src/**"}
	if err := o.CheckOverlap([][]Module{{glob, ui}}); err == nil {
		t.Error("overlapping glob not detected")
	}

	templated := emptyModule("templated", types.Action{Kind: types.ActionCreateFile, Path: "src/ui/{{name}}.ts", Content: "x"})
	if err := o.CheckOverlap([][]Module{{templated, ui}}); err == nil {
		t.Error("templated path overlap not detected")
	}
}

func TestTreeUnchangedWhenFirstModuleFails(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "keep.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	before, err := snapshot.TreeHash(root, ".stacksmith")
	if err != nil {
		t.Fatal(err)
	}

	o := newOrchestrator(root)
	bad := emptyModule("bad",
		types.Action{Kind: types.ActionCreateFile, Path: "a.txt", Content: "staged"},
		types.Action{Kind: types.ActionCreateFile, Path: "keep.txt", Content: "x", OnExists: types.FallbackError},
	)
	if _, err := o.Install(context.Background(), []Module{bad}); err == nil {
		t.Fatal("expected failure")
	}

	after, err := snapshot.TreeHash(root, ".stacksmith")
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("failed blueprint mutated the real tree")
	}
}
