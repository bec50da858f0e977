package template

import "strings"

// Context is the read-only nested parameter structure used to expand
// markers. Built once per blueprint execution; never mutated during
// execution.
type Context struct {
	values map[string]interface{}
}

// NewContext creates a context over the given nested key/value structure.
// The map is not copied; callers must not mutate it after handoff.
func NewContext(values map[string]interface{}) *Context {
	if values == nil {
		values = map[string]interface{}{}
	}
	return &Context{values: values}
}

// Lookup resolves a dotted path against the context without alias fallback.
func (c *Context) Lookup(path string) (interface{}, bool) {
	segments := strings.Split(path, ".")
	var current interface{} = c.values

	for _, seg := range segments {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// aliasRule redirects a parameter name to same-named parameters under other
// modules' namespaces, with a final hard-coded default. Rules are fixed:
// modules cannot extend this table at runtime.
type aliasRule struct {
	alternates []string
	fallback   interface{}
}

var aliasRules = map[string]aliasRule{
	"packageManager": {
		alternates: []string{"project.packageManager", "modules.base.packageManager"},
		fallback:   "npm",
	},
	"projectName": {
		alternates: []string{"project.name", "modules.base.projectName"},
		fallback:   "app",
	},
	"typescript": {
		alternates: []string{"project.typescript", "modules.base.typescript"},
		fallback:   true,
	},
	"database.orm": {
		alternates: []string{"modules.database.orm", "modules.backend.orm"},
		fallback:   "none",
	},
	"styling.framework": {
		alternates: []string{"modules.ui.framework", "modules.frontend.framework"},
		fallback:   "css",
	},
}

// Resolve resolves a dotted path, consulting the fixed alias table when the
// direct lookup fails. The second return is false only when neither the
// context nor the alias rules produce a value.
func (c *Context) Resolve(path string) (interface{}, bool) {
	if v, ok := c.Lookup(path); ok {
		return v, true
	}

	rule, ok := aliasRules[path]
	if !ok {
		return nil, false
	}
	for _, alt := range rule.alternates {
		if v, ok := c.Lookup(alt); ok {
			return v, true
		}
	}
	return rule.fallback, true
}
