package executor

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stacksmith-dev/stacksmith/internal/domain/modifier"
	"github.com/stacksmith-dev/stacksmith/internal/domain/template"
	"github.com/stacksmith-dev/stacksmith/internal/domain/vfs"
	"github.com/stacksmith-dev/stacksmith/internal/infrastructure/logging"
	"github.com/stacksmith-dev/stacksmith/internal/shared/types"
	"github.com/stacksmith-dev/stacksmith/internal/shared/utils"
)

// PreCommitHook runs after all actions have succeeded in memory and before
// the VFS commits. The orchestrator uses it to capture pre-install
// snapshots of the paths about to change.
type PreCommitHook func(fs *vfs.VFS) error

// Executor runs blueprints against a VFS overlay.
type Executor struct {
	resolver  *template.Resolver
	modifiers *modifier.Registry
	hasher    *utils.Hasher
	manifest  string
	preCommit PreCommitHook
	log       *logging.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithManifest sets the manifest file that declared dependencies and
// scripts are folded into. Defaults to package.json.
func WithManifest(path string) Option {
	return func(e *Executor) { e.manifest = path }
}

// WithPreCommit installs a hook invoked between the last action and the
// commit.
func WithPreCommit(hook PreCommitHook) Option {
	return func(e *Executor) { e.preCommit = hook }
}

// New creates an executor backed by the given modifier registry.
func New(modifiers *modifier.Registry, log *logging.Logger, opts ...Option) *Executor {
	e := &Executor{
		resolver:  template.NewResolver(),
		modifiers: modifiers,
		hasher:    utils.DefaultHasher(),
		manifest:  "package.json",
		log:       logging.OrNop(log),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every action of the blueprint in order and commits the VFS
// on success. On failure the VFS is left uncommitted and the returned
// summary describes how far execution got; the real tree is untouched
// unless the commit itself failed partway.
func (e *Executor) Execute(bp *types.Blueprint, ctx *template.Context, fs *vfs.VFS) (*types.ExecutionSummary, error) {
	summary := &types.ExecutionSummary{
		ExecutionID: uuid.NewString(),
		BlueprintID: bp.ID,
	}

	if err := bp.Validate(); err != nil {
		return summary, fmt.Errorf("invalid blueprint: %w", err)
	}

	// Template validation is cheap and fully static; run it over every
	// action before mutating anything so a malformed template in action 7
	// cannot leave actions 1-6 staged.
	for i := range bp.Actions {
		if err := e.validateTemplates(&bp.Actions[i]); err != nil {
			return summary, &ActionError{BlueprintID: bp.ID, Index: i, Kind: bp.Actions[i].Kind, Path: bp.Actions[i].Path, Err: err}
		}
	}

	for i := range bp.Actions {
		action, err := e.expand(&bp.Actions[i], ctx)
		if err != nil {
			return summary, &ActionError{BlueprintID: bp.ID, Index: i, Kind: bp.Actions[i].Kind, Path: bp.Actions[i].Path, Err: err}
		}

		if action.Condition != "" && !e.resolver.EvalTruthy(action.Condition, ctx) {
			summary.Skipped = append(summary.Skipped, skipLabel(action))
			e.log.Debug("action skipped by condition",
				zap.String("blueprint", bp.ID),
				zap.Int("action", i),
				zap.String("condition", action.Condition),
			)
			continue
		}

		if err := e.dispatch(action, fs, summary); err != nil {
			e.log.Warn("blueprint aborted",
				zap.String("blueprint", bp.ID),
				zap.Int("action", i),
				zap.Error(err),
			)
			return summary, &ActionError{BlueprintID: bp.ID, Index: i, Kind: action.Kind, Path: action.Path, Err: err}
		}
	}

	if err := e.foldDeclarations(summary, fs); err != nil {
		return summary, err
	}

	if e.preCommit != nil {
		if err := e.preCommit(fs); err != nil {
			return summary, fmt.Errorf("pre-commit hook failed: %w", err)
		}
	}

	e.classify(fs, summary)

	report, err := fs.Commit()
	if err != nil {
		if cErr, ok := err.(*vfs.CommitError); ok {
			summary.CommittedPaths = cErr.Written
			summary.NotAttemptedPaths = cErr.NotAttempted
		}
		return summary, err
	}

	summary.Success = true
	summary.Hashes = make(map[string]string, len(report.Written))
	for _, p := range report.Written {
		if content, ok, _ := fs.Read(p); ok {
			hash := e.hasher.HashString(content)
			summary.Hashes[p] = hash
			e.log.Debug("file committed",
				zap.String("path", p),
				zap.String("hash", utils.ShortHash(hash)),
			)
		}
	}

	e.log.Info("blueprint committed",
		zap.String("blueprint", bp.ID),
		zap.String("execution", summary.ExecutionID),
		zap.Int("written", len(report.Written)),
		zap.Int("deleted", len(report.Deleted)),
	)
	return summary, nil
}

// dispatch runs one expanded action against the VFS.
func (e *Executor) dispatch(action *types.Action, fs *vfs.VFS, summary *types.ExecutionSummary) error {
	switch action.Kind {
	case types.ActionCreateFile:
		return e.createFile(action, fs, summary)
	case types.ActionEnhanceFile:
		return e.enhanceFile(action, action.Modifier, action.Params, fs, summary)
	case types.ActionAppendContent:
		// Append is enhancement with the text-append modifier; the missing
		// target default flips to create.
		appendAction := *action
		if appendAction.OnMissing == "" {
			appendAction.OnMissing = types.FallbackCreate
		}
		return e.enhanceFile(&appendAction, "text-append", map[string]interface{}{"content": action.Content}, fs, summary)
	case types.ActionDeclareDependency:
		summary.Dependencies = append(summary.Dependencies, types.DeclaredDependency{
			Name:    action.Name,
			Version: action.Version,
			Kind:    action.DepKind,
		})
		return nil
	case types.ActionDeclareScript:
		summary.Scripts = append(summary.Scripts, types.DeclaredScript{
			Name:    action.Name,
			Command: action.Command,
		})
		return nil
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

func (e *Executor) createFile(action *types.Action, fs *vfs.VFS, summary *types.ExecutionSummary) error {
	exists, err := fs.Exists(action.Path)
	if err != nil {
		return err
	}

	if !exists {
		return fs.Write(action.Path, action.Content)
	}

	switch action.OnExists {
	case types.FallbackOverwrite:
		return fs.Write(action.Path, action.Content)
	case types.FallbackSkip:
		summary.AddWarning(fmt.Sprintf("skipped creating %s: already exists", action.Path))
		summary.Skipped = append(summary.Skipped, action.Path)
		return nil
	default:
		return &PreconditionError{Kind: action.Kind, Path: action.Path, Reason: "target already exists"}
	}
}

func (e *Executor) enhanceFile(action *types.Action, modifierName string, params map[string]interface{}, fs *vfs.VFS, summary *types.ExecutionSummary) error {
	current, exists, err := fs.Read(action.Path)
	if err != nil {
		return err
	}

	if !exists {
		switch action.OnMissing {
		case types.FallbackCreate:
			seed, ok := e.modifiers.Seed(modifierName, params)
			if !ok {
				return &modifier.TransformError{Modifier: modifierName, Path: action.Path, Reason: "modifier not registered"}
			}
			current = seed
		case types.FallbackSkip:
			summary.AddWarning(fmt.Sprintf("skipped enhancing %s: target missing", action.Path))
			summary.Skipped = append(summary.Skipped, action.Path)
			return nil
		default:
			return &PreconditionError{Kind: action.Kind, Path: action.Path, Reason: "target missing"}
		}
	}

	result, err := e.modifiers.Execute(modifierName, action.Path, current, params)
	if err != nil {
		return err
	}
	return fs.Write(action.Path, result)
}

// foldDeclarations merges collected dependency and script facts into the
// manifest through the structured-merge modifier, inside the same staged
// execution so the manifest edit commits atomically with the rest of the
// blueprint.
func (e *Executor) foldDeclarations(summary *types.ExecutionSummary, fs *vfs.VFS) error {
	if len(summary.Dependencies) == 0 && len(summary.Scripts) == 0 {
		return nil
	}

	runtime := map[string]interface{}{}
	dev := map[string]interface{}{}
	for _, dep := range summary.Dependencies {
		if dep.Kind == types.DependencyDev {
			dev[dep.Name] = dep.Version
		} else {
			runtime[dep.Name] = dep.Version
		}
	}
	scripts := map[string]interface{}{}
	for _, s := range summary.Scripts {
		scripts[s.Name] = s.Command
	}

	data := map[string]interface{}{}
	if len(runtime) > 0 {
		data["dependencies"] = runtime
	}
	if len(dev) > 0 {
		data["devDependencies"] = dev
	}
	if len(scripts) > 0 {
		data["scripts"] = scripts
	}

	action := &types.Action{
		Kind:      types.ActionEnhanceFile,
		Path:      e.manifest,
		OnMissing: types.FallbackCreate,
	}
	return e.enhanceFile(action, "structured-merge", map[string]interface{}{"data": data}, fs, summary)
}

// classify splits the staged paths into created versus modified based on
// what was on disk when the VFS first touched them.
func (e *Executor) classify(fs *vfs.VFS, summary *types.ExecutionSummary) {
	for _, p := range fs.StagedPaths() {
		_, onDisk, err := fs.DiskContent(p)
		if err != nil {
			continue
		}
		if exists, _ := fs.Exists(p); !exists {
			summary.Deleted = append(summary.Deleted, p)
			continue
		}
		if onDisk {
			summary.Modified = append(summary.Modified, p)
		} else {
			summary.Created = append(summary.Created, p)
		}
	}
}

// validateTemplates pre-validates every templated string field of an
// action.
func (e *Executor) validateTemplates(action *types.Action) error {
	for _, field := range []string{action.Path, action.Content, action.Condition, action.Name, action.Version, action.Command} {
		if field == "" {
			continue
		}
		if err := e.resolver.Validate(field); err != nil {
			return err
		}
	}
	return validateParamTemplates(e.resolver, action.Params)
}

func validateParamTemplates(r *template.Resolver, value interface{}) error {
	switch v := value.(type) {
	case string:
		return r.Validate(v)
	case map[string]interface{}:
		for _, nested := range v {
			if err := validateParamTemplates(r, nested); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, nested := range v {
			if err := validateParamTemplates(r, nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// expand returns a copy of the action with every templated string field
// resolved against the context. The blueprint itself is never mutated.
func (e *Executor) expand(action *types.Action, ctx *template.Context) (*types.Action, error) {
	expanded := *action
	var err error

	resolve := func(s string) string {
		if err != nil || s == "" {
			return s
		}
		var out string
		out, err = e.resolver.Resolve(s, ctx)
		if err != nil {
			return s
		}
		return out
	}

	expanded.Path = resolve(action.Path)
	expanded.Content = resolve(action.Content)
	expanded.Name = resolve(action.Name)
	expanded.Version = resolve(action.Version)
	expanded.Command = resolve(action.Command)
	if err != nil {
		return nil, err
	}

	// The condition is evaluated as an expression, not substituted, so it
	// passes through untouched.
	if action.Params != nil {
		params, pErr := expandParams(e.resolver, ctx, action.Params)
		if pErr != nil {
			return nil, pErr
		}
		expanded.Params = params.(map[string]interface{})
	}

	return &expanded, nil
}

func expandParams(r *template.Resolver, ctx *template.Context, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return r.Resolve(v, ctx)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, nested := range v {
			expanded, err := expandParams(r, ctx, nested)
			if err != nil {
				return nil, err
			}
			out[key] = expanded
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, nested := range v {
			expanded, err := expandParams(r, ctx, nested)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return value, nil
	}
}

func skipLabel(action *types.Action) string {
	if action.Path != "" {
		return action.Path
	}
	return string(action.Kind) + ":" + action.Name
}
