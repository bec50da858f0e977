package modifier

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/stacksmith-dev/stacksmith/internal/infrastructure/logging"
)

// Params carries a modifier's declared parameters.
type Params map[string]interface{}

// String returns a string-typed parameter.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Bool returns a bool-typed parameter, false when absent.
func (p Params) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// Map returns an object-typed parameter.
func (p Params) Map(key string) (map[string]interface{}, bool) {
	v, ok := p[key].(map[string]interface{})
	return v, ok
}

// Slice returns an array-typed parameter.
func (p Params) Slice(key string) ([]interface{}, bool) {
	v, ok := p[key].([]interface{})
	return v, ok
}

// Modifier is a pure content transform.
type Modifier interface {
	// Name is the registry key the blueprint references.
	Name() string
	// ValidateParams rejects invalid parameters before the transform runs.
	ValidateParams(params Params) error
	// Apply transforms current content into new content. It must be pure:
	// no side effects, identical output for identical input.
	Apply(current string, params Params) (string, error)
	// Seed returns the minimal file content synthesized when an enhance
	// action targets a missing file with the "create" fallback.
	Seed(params Params) string
}

// ParamError reports invalid parameters passed to a named modifier.
type ParamError struct {
	Modifier string
	Param    string
	Reason   string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("modifier %s: invalid parameter %q: %s", e.Modifier, e.Param, e.Reason)
}

// TransformError reports a modifier that could not parse or merge the
// current content of a file.
type TransformError struct {
	Modifier string
	Path     string
	Reason   string
	Err      error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("modifier %s on %s: %s: %v", e.Modifier, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("modifier %s on %s: %s", e.Modifier, e.Path, e.Reason)
}

func (e *TransformError) Unwrap() error { return e.Err }

// knownNames is the fixed allow-list of modifier names the engine ships.
// Registering outside this list is permitted but logged, so a typo in a
// blueprint or a custom registration surfaces at startup instead of at
// dispatch time.
var knownNames = map[string]struct{}{
	"structured-merge":    {},
	"module-augmentation": {},
	"text-append":         {},
	"wrap-component":      {},
}

// KnownName reports whether name is on the built-in allow-list.
func KnownName(name string) bool {
	_, ok := knownNames[name]
	return ok
}

// Registry manages modifier registration and execution.
type Registry struct {
	modifiers sync.Map
	log       *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{log: logging.OrNop(log)}
}

// NewDefault creates a registry with the built-in modifiers registered.
func NewDefault(log *logging.Logger) *Registry {
	r := NewRegistry(log)
	r.Register(NewStructuredMerge())
	r.Register(NewModuleAugmentation())
	r.Register(NewTextAppend())
	r.Register(NewWrapComponent())
	return r
}

// Register adds a modifier. Last write wins on name collision, with a
// logged warning.
func (r *Registry) Register(m Modifier) error {
	name := m.Name()
	if name == "" {
		return fmt.Errorf("modifier name cannot be empty")
	}
	if !KnownName(name) {
		r.log.Warn("registering modifier outside the known allow-list",
			zap.String("modifier", name),
		)
	}
	if _, collided := r.modifiers.Load(name); collided {
		r.log.Warn("modifier name collision, replacing previous registration",
			zap.String("modifier", name),
		)
	}
	r.modifiers.Store(name, m)
	return nil
}

// Get retrieves a modifier by name.
func (r *Registry) Get(name string) (Modifier, bool) {
	v, ok := r.modifiers.Load(name)
	if !ok {
		return nil, false
	}
	return v.(Modifier), true
}

// Execute validates params and runs the named modifier against the current
// content of path. Errors never escape untyped: a missing modifier, invalid
// params, binary content, or a failed transform each come back as a
// ParamError or TransformError.
func (r *Registry) Execute(name, path, current string, params Params) (string, error) {
	m, ok := r.Get(name)
	if !ok {
		return "", &TransformError{Modifier: name, Path: path, Reason: "modifier not registered"}
	}

	if err := m.ValidateParams(params); err != nil {
		return "", err
	}

	if isBinary(current) {
		return "", &TransformError{Modifier: name, Path: path, Reason: "content is not text"}
	}

	result, err := m.Apply(current, params)
	if err != nil {
		var tErr *TransformError
		if errors.As(err, &tErr) {
			if tErr.Path == "" {
				tErr.Path = path
			}
			return "", tErr
		}
		var pErr *ParamError
		if errors.As(err, &pErr) {
			return "", pErr
		}
		return "", &TransformError{Modifier: name, Path: path, Reason: "transform failed", Err: err}
	}
	return result, nil
}

// Seed returns the creation default of the named modifier.
func (r *Registry) Seed(name string, params Params) (string, bool) {
	m, ok := r.Get(name)
	if !ok {
		return "", false
	}
	return m.Seed(params), true
}

// Names returns the registered modifier names.
func (r *Registry) Names() []string {
	var names []string
	r.modifiers.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	return names
}

// isBinary reports whether content is something no text modifier should
// touch. Every textual MIME type descends from text/plain in mimetype's
// hierarchy; JSON and friends detect as text/plain first.
func isBinary(content string) bool {
	if content == "" {
		return false
	}
	for m := mimetype.Detect([]byte(content)); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return false
		}
	}
	return true
}

// ensure compile-time interface conformity for the built-ins
var (
	_ Modifier = (*StructuredMerge)(nil)
	_ Modifier = (*ModuleAugmentation)(nil)
	_ Modifier = (*TextAppend)(nil)
	_ Modifier = (*WrapComponent)(nil)
)
