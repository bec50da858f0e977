package types

import "fmt"

// ActionKind discriminates the closed set of blueprint action variants.
type ActionKind string

const (
	ActionCreateFile        ActionKind = "create-file"
	ActionEnhanceFile       ActionKind = "enhance-file"
	ActionAppendContent     ActionKind = "append-content"
	ActionDeclareDependency ActionKind = "declare-dependency"
	ActionDeclareScript     ActionKind = "declare-script"
)

// FallbackPolicy selects the behavior when an action's file-existence
// precondition is violated. It is never consulted when the precondition
// holds.
type FallbackPolicy string

const (
	FallbackOverwrite FallbackPolicy = "overwrite"
	FallbackCreate    FallbackPolicy = "create"
	FallbackSkip      FallbackPolicy = "skip"
	FallbackError     FallbackPolicy = "error"
)

// DependencyKind separates runtime from development dependencies.
type DependencyKind string

const (
	DependencyRuntime DependencyKind = "runtime"
	DependencyDev     DependencyKind = "dev"
)

// Action is one declarative file-mutation instruction. Exactly one variant's
// field set is meaningful for a given Kind; the blueprint parser enforces
// this at load time.
type Action struct {
	Kind ActionKind `json:"type" yaml:"type"`

	// File-targeting variants (create-file, enhance-file, append-content)
	Path      string                 `json:"path,omitempty" yaml:"path,omitempty"`
	Content   string                 `json:"content,omitempty" yaml:"content,omitempty"`
	Condition string                 `json:"condition,omitempty" yaml:"condition,omitempty"`
	Modifier  string                 `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
	OnExists  FallbackPolicy         `json:"on_exists,omitempty" yaml:"on_exists,omitempty"`
	OnMissing FallbackPolicy         `json:"on_missing,omitempty" yaml:"on_missing,omitempty"`

	// declare-dependency
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Version string         `json:"version,omitempty" yaml:"version,omitempty"`
	DepKind DependencyKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// declare-script (reuses Name)
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

// Blueprint is an ordered sequence of actions contributed by one technology
// module. Immutable once loaded; consumed once per module installation.
type Blueprint struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Actions []Action `json:"actions" yaml:"actions"`
}

// Validate checks structural invariants of the blueprint. Field-level
// validation of individual actions happens in the parser; this guards the
// identifiers required for error reporting.
func (b *Blueprint) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("blueprint id is required")
	}
	if b.Name == "" {
		return fmt.Errorf("blueprint name is required")
	}
	return nil
}

// DeclaredDependency is a structured fact recorded by a declare-dependency
// action, folded into the dependency manifest before commit.
type DeclaredDependency struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Kind    DependencyKind `json:"kind"`
}

// DeclaredScript is a structured fact recorded by a declare-script action.
type DeclaredScript struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}
