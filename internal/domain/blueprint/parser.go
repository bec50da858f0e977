package blueprint

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"

	"github.com/stacksmith-dev/stacksmith/internal/domain/modifier"
	"github.com/stacksmith-dev/stacksmith/internal/shared/types"
)

// Format identifies the serialization of a blueprint document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Parser handles blueprint document to typed Blueprint conversion.
type Parser struct{}

// NewParser creates a new blueprint parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse converts blueprint content to a validated Blueprint.
func (p *Parser) Parse(content []byte, format Format) (*types.Blueprint, error) {
	var bp types.Blueprint

	switch format {
	case FormatJSON:
		if err := sonic.Unmarshal(content, &bp); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &bp); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown blueprint format %q", format)
	}

	if err := bp.Validate(); err != nil {
		return nil, err
	}
	if len(bp.Actions) == 0 {
		return nil, fmt.Errorf("blueprint %s has no actions", bp.ID)
	}

	for i := range bp.Actions {
		if err := p.validateAction(&bp.Actions[i]); err != nil {
			return nil, fmt.Errorf("blueprint %s: action %d: %w", bp.ID, i, err)
		}
	}

	return &bp, nil
}

// ParseFile parses a blueprint file, selecting the format by extension.
func (p *Parser) ParseFile(path string, content []byte) (*types.Blueprint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return p.Parse(content, FormatYAML)
	default:
		return p.Parse(content, FormatJSON)
	}
}

// validateAction checks one action's fields against its kind and fills in
// the default fallback policy where the document left it unset.
func (p *Parser) validateAction(action *types.Action) error {
	switch action.Kind {
	case types.ActionCreateFile:
		if action.Path == "" {
			return fmt.Errorf("create-file requires path")
		}
		if action.OnExists == "" {
			action.OnExists = types.FallbackError
		}
		switch action.OnExists {
		case types.FallbackOverwrite, types.FallbackSkip, types.FallbackError:
		default:
			return fmt.Errorf("create-file: invalid on_exists policy %q", action.OnExists)
		}

	case types.ActionEnhanceFile:
		if action.Path == "" {
			return fmt.Errorf("enhance-file requires path")
		}
		if action.Modifier == "" {
			return fmt.Errorf("enhance-file requires modifier")
		}
		if !modifier.KnownName(action.Modifier) {
			return fmt.Errorf("enhance-file: unknown modifier %q", action.Modifier)
		}
		if action.OnMissing == "" {
			action.OnMissing = types.FallbackError
		}
		switch action.OnMissing {
		case types.FallbackCreate, types.FallbackSkip, types.FallbackError:
		default:
			return fmt.Errorf("enhance-file: invalid on_missing policy %q", action.OnMissing)
		}

	case types.ActionAppendContent:
		if action.Path == "" {
			return fmt.Errorf("append-content requires path")
		}
		if action.Content == "" {
			return fmt.Errorf("append-content requires content")
		}
		if action.OnMissing == "" {
			action.OnMissing = types.FallbackCreate
		}
		switch action.OnMissing {
		case types.FallbackCreate, types.FallbackSkip, types.FallbackError:
		default:
			return fmt.Errorf("append-content: invalid on_missing policy %q", action.OnMissing)
		}

	case types.ActionDeclareDependency:
		if action.Name == "" || action.Version == "" {
			return fmt.Errorf("declare-dependency requires name and version")
		}
		if action.DepKind == "" {
			action.DepKind = types.DependencyRuntime
		}
		if action.DepKind != types.DependencyRuntime && action.DepKind != types.DependencyDev {
			return fmt.Errorf("declare-dependency: invalid kind %q", action.DepKind)
		}

	case types.ActionDeclareScript:
		if action.Name == "" || action.Command == "" {
			return fmt.Errorf("declare-script requires name and command")
		}

	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}

	return nil
}
