package modifier

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	toml "github.com/pelletier/go-toml/v2"
)

// jsonCfg serializes with sorted keys so merge output is deterministic and
// re-applying the same declaration is byte-stable.
var jsonCfg = sonic.Config{
	SortMapKeys: true,
	EscapeHTML:  false,
}.Froze()

// StructuredMerge deep-merges declared keys into a structured file
// (dependency manifests, compiler options). Objects merge recursively,
// arrays concatenate with duplicate elimination by value equality, and
// scalar conflicts follow last-writer-wins unless strict mode is requested.
type StructuredMerge struct{}

// NewStructuredMerge creates the structured-merge modifier.
func NewStructuredMerge() *StructuredMerge {
	return &StructuredMerge{}
}

// Name returns the registry key.
func (s *StructuredMerge) Name() string { return "structured-merge" }

// ValidateParams requires a "data" object and an optional known "format".
func (s *StructuredMerge) ValidateParams(params Params) error {
	if _, ok := params.Map("data"); !ok {
		return &ParamError{Modifier: s.Name(), Param: "data", Reason: "object required"}
	}
	if format, ok := params.String("format"); ok {
		switch format {
		case "json", "yaml", "toml":
		default:
			return &ParamError{Modifier: s.Name(), Param: "format", Reason: fmt.Sprintf("unknown format %q", format)}
		}
	}
	return nil
}

// Seed returns an empty document in the requested format.
func (s *StructuredMerge) Seed(params Params) string {
	if format, _ := params.String("format"); format == "yaml" || format == "toml" {
		return ""
	}
	return "{}\n"
}

// Apply parses the current document, merges the declared data into it, and
// re-serializes with deterministic key order.
func (s *StructuredMerge) Apply(current string, params Params) (string, error) {
	data, _ := params.Map("data")
	format, ok := params.String("format")
	if !ok {
		format = "json"
	}
	strict := params.Bool("strict")

	doc, err := s.parse(current, format)
	if err != nil {
		return "", &TransformError{Modifier: s.Name(), Reason: fmt.Sprintf("cannot parse %s document", format), Err: err}
	}

	if err := deepMerge(doc, data, strict, ""); err != nil {
		return "", &TransformError{Modifier: s.Name(), Reason: "merge conflict", Err: err}
	}

	return s.serialize(doc, format)
}

func (s *StructuredMerge) parse(current, format string) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if strings.TrimSpace(current) == "" {
		return doc, nil
	}

	switch format {
	case "json":
		if err := jsonCfg.Unmarshal([]byte(current), &doc); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal([]byte(current), &doc); err != nil {
			return nil, err
		}
	case "toml":
		if err := toml.Unmarshal([]byte(current), &doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (s *StructuredMerge) serialize(doc map[string]interface{}, format string) (string, error) {
	switch format {
	case "yaml":
		out, err := yaml.Marshal(doc)
		if err != nil {
			return "", &TransformError{Modifier: s.Name(), Reason: "cannot serialize yaml", Err: err}
		}
		return string(out), nil
	case "toml":
		out, err := toml.Marshal(doc)
		if err != nil {
			return "", &TransformError{Modifier: s.Name(), Reason: "cannot serialize toml", Err: err}
		}
		return string(out), nil
	default:
		out, err := jsonCfg.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", &TransformError{Modifier: s.Name(), Reason: "cannot serialize json", Err: err}
		}
		return string(out) + "\n", nil
	}
}

// deepMerge folds src into dst in place. path tracks the key chain for
// conflict reporting.
func deepMerge(dst, src map[string]interface{}, strict bool, path string) error {
	for key, sv := range src {
		keyPath := key
		if path != "" {
			keyPath = path + "." + key
		}

		dv, exists := dst[key]
		if !exists {
			dst[key] = sv
			continue
		}

		dmap, dIsMap := dv.(map[string]interface{})
		smap, sIsMap := sv.(map[string]interface{})
		if dIsMap && sIsMap {
			if err := deepMerge(dmap, smap, strict, keyPath); err != nil {
				return err
			}
			continue
		}

		darr, dIsArr := dv.([]interface{})
		sarr, sIsArr := sv.([]interface{})
		if dIsArr && sIsArr {
			dst[key] = mergeArrays(darr, sarr)
			continue
		}

		if strict && !reflect.DeepEqual(dv, sv) {
			return fmt.Errorf("conflicting values at %q", keyPath)
		}
		dst[key] = sv
	}
	return nil
}

// mergeArrays concatenates with duplicate elimination by value equality,
// preserving first-seen order.
func mergeArrays(dst, src []interface{}) []interface{} {
	out := make([]interface{}, 0, len(dst)+len(src))
	out = append(out, dst...)

	for _, sv := range src {
		duplicate := false
		for _, existing := range out {
			if reflect.DeepEqual(existing, sv) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, sv)
		}
	}
	return out
}
