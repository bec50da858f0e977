package modifier

import (
	"fmt"
	"strings"
)

// ModuleAugmentation adds import statements and appends top-level statements
// to a source module. Imports are deduplicated by (symbol, origin) pair; the
// original content is preserved byte-for-byte apart from the inserted and
// appended material. Unrelated code is never reformatted or reordered.
type ModuleAugmentation struct{}

// NewModuleAugmentation creates the module-augmentation modifier.
func NewModuleAugmentation() *ModuleAugmentation {
	return &ModuleAugmentation{}
}

// Name returns the registry key.
func (m *ModuleAugmentation) Name() string { return "module-augmentation" }

// ValidateParams requires at least one of "imports" or "statements".
func (m *ModuleAugmentation) ValidateParams(params Params) error {
	imports, hasImports := params.Slice("imports")
	statements, hasStatements := params.Slice("statements")
	if !hasImports && !hasStatements {
		return &ParamError{Modifier: m.Name(), Param: "imports", Reason: "imports or statements required"}
	}

	for i, raw := range imports {
		spec, ok := raw.(map[string]interface{})
		if !ok {
			return &ParamError{Modifier: m.Name(), Param: "imports", Reason: fmt.Sprintf("entry %d is not an object", i)}
		}
		if symbol, _ := spec["symbol"].(string); symbol == "" {
			return &ParamError{Modifier: m.Name(), Param: "imports", Reason: fmt.Sprintf("entry %d missing symbol", i)}
		}
		if from, _ := spec["from"].(string); from == "" {
			return &ParamError{Modifier: m.Name(), Param: "imports", Reason: fmt.Sprintf("entry %d missing from", i)}
		}
	}

	for i, raw := range statements {
		if _, ok := raw.(string); !ok {
			return &ParamError{Modifier: m.Name(), Param: "statements", Reason: fmt.Sprintf("entry %d is not a string", i)}
		}
	}
	return nil
}

// Seed returns an empty module.
func (m *ModuleAugmentation) Seed(Params) string { return "" }

// Apply inserts missing imports after the last existing import line and
// appends missing statements after the existing content.
func (m *ModuleAugmentation) Apply(current string, params Params) (string, error) {
	lines := strings.Split(current, "\n")
	existing, lastImport := scanImports(lines)

	var newImports []string
	if imports, ok := params.Slice("imports"); ok {
		for _, raw := range imports {
			spec := raw.(map[string]interface{})
			symbol, _ := spec["symbol"].(string)
			from, _ := spec["from"].(string)

			key := symbol + "\x00" + from
			if _, dup := existing[key]; dup {
				continue
			}
			existing[key] = struct{}{}
			newImports = append(newImports, renderImport(spec, symbol, from))
		}
	}

	if len(newImports) > 0 {
		insertAt := lastImport + 1
		spliced := make([]string, 0, len(lines)+len(newImports))
		spliced = append(spliced, lines[:insertAt]...)
		spliced = append(spliced, newImports...)
		spliced = append(spliced, lines[insertAt:]...)
		lines = spliced
	}

	out := strings.Join(lines, "\n")

	if statements, ok := params.Slice("statements"); ok {
		for _, raw := range statements {
			stmt := raw.(string)
			// Skip statements already present so re-runs stay clean.
			if strings.Contains(out, stmt) {
				continue
			}
			if out != "" && !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			out += stmt + "\n"
		}
	}

	return out, nil
}

// scanImports collects (symbol, origin) pairs from existing single-line
// import statements and the index of the last import line. Multi-line
// imports are left untouched and simply not considered for deduplication.
func scanImports(lines []string) (map[string]struct{}, int) {
	existing := make(map[string]struct{})
	lastImport := -1

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "import'") && !strings.HasPrefix(trimmed, "import\"") {
			continue
		}

		origin, ok := importOrigin(trimmed)
		if !ok {
			continue
		}
		lastImport = i

		for _, symbol := range importSymbols(trimmed) {
			existing[symbol+"\x00"+origin] = struct{}{}
		}
	}

	return existing, lastImport
}

// importOrigin extracts the module specifier from an import line.
func importOrigin(line string) (string, bool) {
	for _, quote := range []byte{'\'', '"'} {
		start := strings.IndexByte(line, quote)
		if start < 0 {
			continue
		}
		end := strings.IndexByte(line[start+1:], quote)
		if end < 0 {
			continue
		}
		return line[start+1 : start+1+end], true
	}
	return "", false
}

// importSymbols extracts the local binding names from an import line:
// named imports in braces, default imports, and namespace imports.
func importSymbols(line string) []string {
	var symbols []string

	if open := strings.IndexByte(line, '{'); open >= 0 {
		if closing := strings.IndexByte(line[open:], '}'); closing >= 0 {
			for _, part := range strings.Split(line[open+1:open+closing], ",") {
				name := strings.TrimSpace(part)
				// "X as Y" binds Y locally; dedupe on the source symbol X.
				if idx := strings.Index(name, " as "); idx >= 0 {
					name = strings.TrimSpace(name[:idx])
				}
				if name != "" {
					symbols = append(symbols, name)
				}
			}
		}
	}

	head := strings.TrimPrefix(line, "import ")
	if idx := strings.Index(head, " from "); idx >= 0 {
		head = strings.TrimSpace(head[:idx])
		if star := strings.Index(head, "* as "); star >= 0 {
			symbols = append(symbols, strings.TrimSpace(head[star+len("* as "):]))
		} else if head != "" && !strings.HasPrefix(head, "{") {
			// Default import, possibly "Default, { a, b }".
			if comma := strings.IndexByte(head, ','); comma >= 0 {
				head = head[:comma]
			}
			name := strings.TrimSpace(head)
			if name != "" && !strings.HasPrefix(name, "{") {
				symbols = append(symbols, name)
			}
		}
	}

	return symbols
}

// renderImport produces the statement for one requested import.
func renderImport(spec map[string]interface{}, symbol, from string) string {
	if isDefault, _ := spec["default"].(bool); isDefault {
		return fmt.Sprintf("import %s from '%s';", symbol, from)
	}
	if isNamespace, _ := spec["namespace"].(bool); isNamespace {
		return fmt.Sprintf("import * as %s from '%s';", symbol, from)
	}
	return fmt.Sprintf("import { %s } from '%s';", symbol, from)
}
