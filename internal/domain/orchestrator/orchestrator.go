package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/stacksmith-dev/stacksmith/internal/domain/executor"
	"github.com/stacksmith-dev/stacksmith/internal/domain/modifier"
	"github.com/stacksmith-dev/stacksmith/internal/domain/snapshot"
	"github.com/stacksmith-dev/stacksmith/internal/domain/template"
	"github.com/stacksmith-dev/stacksmith/internal/domain/vfs"
	"github.com/stacksmith-dev/stacksmith/internal/infrastructure/logging"
	"github.com/stacksmith-dev/stacksmith/internal/shared/types"
)

// Module pairs one technology module's blueprint with its template context.
// The ordering of a []Module slice is the dependency-safe install order
// computed by the caller.
type Module struct {
	ID        string
	Blueprint *types.Blueprint
	Context   *template.Context

	// Targets optionally declares the file globs this module will touch,
	// used by the parallel-scheduling pre-flight check. When empty, the
	// blueprint's literal action paths are used instead.
	Targets []string
}

// ModuleResult is the outcome of one module's installation.
type ModuleResult struct {
	ModuleID string
	Summary  *types.ExecutionSummary
	Err      error
}

// InstallReport aggregates the results of one Install run.
type InstallReport struct {
	Results      []ModuleResult
	FailedModule string
	RolledBack   []string
	Warnings     []string
}

// Orchestrator runs module blueprints in order against one project tree.
type Orchestrator struct {
	root      string
	modifiers *modifier.Registry
	snaps     *snapshot.Store
	manifest  string
	log       *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSnapshots enables pre-install backups and compensating rollback.
func WithSnapshots(store *snapshot.Store) Option {
	return func(o *Orchestrator) { o.snaps = store }
}

// WithManifest sets the manifest file that declared dependencies and
// scripts fold into.
func WithManifest(path string) Option {
	return func(o *Orchestrator) { o.manifest = path }
}

// New creates an orchestrator for the given project root.
func New(root string, modifiers *modifier.Registry, log *logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		root:      root,
		modifiers: modifiers,
		manifest:  "package.json",
		log:       logging.OrNop(log),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Install runs each module's blueprint in order. On a module's failure it
// attempts compensating rollback of already-committed modules and halts;
// remaining modules never run. Cancellation is honored between module
// boundaries only.
func (o *Orchestrator) Install(ctx context.Context, modules []Module) (*InstallReport, error) {
	report := &InstallReport{}
	var installed []Module

	for _, mod := range modules {
		if err := ctx.Err(); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("halted before module %s: %v", mod.ID, err))
			return report, err
		}

		result := o.installOne(mod)
		report.Results = append(report.Results, result)

		if result.Err != nil {
			report.FailedModule = mod.ID
			o.log.Error("module installation failed",
				zap.String("module", mod.ID),
				zap.Error(result.Err),
			)
			o.rollback(mod, result, installed, report)
			return report, fmt.Errorf("module %s failed: %w", mod.ID, result.Err)
		}

		installed = append(installed, mod)
		o.log.Info("module installed",
			zap.String("module", mod.ID),
			zap.Int("created", len(result.Summary.Created)),
			zap.Int("modified", len(result.Summary.Modified)),
		)
	}

	return report, nil
}

// installOne executes one module's blueprint with its own VFS. The snapshot
// of every staged path is captured between the last in-memory action and
// the commit, so the archive reflects exactly the pre-commit disk state.
func (o *Orchestrator) installOne(mod Module) ModuleResult {
	fs := vfs.New(o.root, o.log)

	opts := []executor.Option{executor.WithManifest(o.manifest)}
	if o.snaps != nil {
		opts = append(opts, executor.WithPreCommit(func(fs *vfs.VFS) error {
			snap, err := o.snaps.Capture(mod.ID, o.root, fs.StagedPaths())
			if err != nil {
				return err
			}
			return o.snaps.Save(snap)
		}))
	}

	exec := executor.New(o.modifiers, o.log, opts...)
	summary, err := exec.Execute(mod.Blueprint, mod.Context, fs)
	return ModuleResult{ModuleID: mod.ID, Summary: summary, Err: err}
}

// rollback restores already-committed modules in reverse install order, and
// the failed module itself when its commit partially landed. Best-effort:
// restore problems become warnings, and without a snapshot store the
// rollback is skipped entirely.
func (o *Orchestrator) rollback(failed Module, result ModuleResult, installed []Module, report *InstallReport) {
	if o.snaps == nil {
		report.Warnings = append(report.Warnings, "snapshots disabled: committed modules were not rolled back")
		return
	}

	// A partial commit is the one case where the failed module itself has
	// artifacts on disk.
	var commitErr *vfs.CommitError
	if errors.As(result.Err, &commitErr) {
		o.restoreModule(failed.ID, report)
	}

	for i := len(installed) - 1; i >= 0; i-- {
		o.restoreModule(installed[i].ID, report)
	}
}

func (o *Orchestrator) restoreModule(moduleID string, report *InstallReport) {
	snap, err := o.snaps.Load(moduleID)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("rollback of %s skipped: %v", moduleID, err))
		return
	}

	_, warnings := o.snaps.Restore(o.root, snap)
	report.Warnings = append(report.Warnings, warnings...)
	report.RolledBack = append(report.RolledBack, moduleID)
}

// CheckOverlap is the pre-flight check for the parallel-scheduling
// extension: modules grouped for concurrent execution must declare disjoint
// file targets. Matching is best-effort glob-against-literal via
// doublestar; templated path segments widen to a single-segment wildcard.
func (o *Orchestrator) CheckOverlap(groups [][]Module) error {
	for _, group := range groups {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if target, ok := overlaps(targetsOf(a), targetsOf(b)); ok {
					return fmt.Errorf("modules %s and %s declare overlapping target %q", a.ID, b.ID, target)
				}
			}
		}
	}
	return nil
}

func targetsOf(m Module) []string {
	if len(m.Targets) > 0 {
		return m.Targets
	}
	var out []string
	for _, action := range m.Blueprint.Actions {
		if action.Path != "" {
			out = append(out, widenTemplates(action.Path))
		}
	}
	return out
}

// widenTemplates turns each {{...}} marker into a glob wildcard so paths
// that are only known after expansion still participate in the check.
func widenTemplates(p string) string {
	for {
		open := strings.Index(p, "{{")
		if open < 0 {
			return p
		}
		end := strings.Index(p[open:], "}}")
		if end < 0 {
			return p
		}
		p = p[:open] + "*" + p[open+end+2:]
	}
}

func overlaps(a, b []string) (string, bool) {
	for _, pa := range a {
		for _, pb := range b {
			if pa == pb {
				return pa, true
			}
			if ok, _ := doublestar.Match(pa, pb); ok {
				return pb, true
			}
			if ok, _ := doublestar.Match(pb, pa); ok {
				return pa, true
			}
		}
	}
	return "", false
}
