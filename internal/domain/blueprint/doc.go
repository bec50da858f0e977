// Package blueprint provides parsing and validation of blueprint documents.
//
// A blueprint is a declarative, ordered list of file-mutation actions
// contributed by one technology module. This package handles loading .json
// and .yaml blueprint files into the typed action model and validating each
// action's fields before execution.
//
// Key guarantees:
//   - Action kinds form a closed set; unknown kinds fail at parse time
//   - Fallback policies are checked against the legal set per action kind
//   - Modifier references are checked against the engine's allow-list
//   - Parsed blueprints are immutable value structures
//
// Example:
//
//	parser := blueprint.NewParser()
//	bp, err := parser.Parse(content, blueprint.FormatJSON)
package blueprint
