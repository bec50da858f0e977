package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const (
	markerOpen  = "{{"
	markerClose = "}}"
	ifPrefix    = "#if"
	ifClose     = "/if"
)

// ResolutionError reports a structural problem with a template string,
// detected before any expansion runs.
type ResolutionError struct {
	Reason string
	Offset int
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("template error at offset %d: %s", e.Offset, e.Reason)
}

// Resolver expands template markers against a Context.
type Resolver struct{}

// NewResolver creates a new resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Validate scans the input for malformed markers: an unclosed "{{" or an
// unbalanced {{#if}}/{{/if}} pair. It runs before any expansion so invalid
// templates fail before a single byte is staged.
func (r *Resolver) Validate(input string) error {
	depth := 0
	pos := 0

	for {
		open := strings.Index(input[pos:], markerOpen)
		if open < 0 {
			break
		}
		open += pos

		end := strings.Index(input[open+len(markerOpen):], markerClose)
		if end < 0 {
			return &ResolutionError{Reason: "unterminated marker", Offset: open}
		}
		expr := strings.TrimSpace(input[open+len(markerOpen) : open+len(markerOpen)+end])

		switch {
		case strings.HasPrefix(expr, ifPrefix+" ") || expr == ifPrefix:
			if expr == ifPrefix {
				return &ResolutionError{Reason: "conditional block missing condition", Offset: open}
			}
			depth++
		case expr == ifClose:
			depth--
			if depth < 0 {
				return &ResolutionError{Reason: "unmatched {{/if}}", Offset: open}
			}
		}

		pos = open + len(markerOpen) + end + len(markerClose)
	}

	if depth != 0 {
		return &ResolutionError{Reason: "unmatched {{#if}}", Offset: len(input)}
	}
	return nil
}

// Resolve validates the input, evaluates conditional blocks, then expands
// variable markers. Unresolvable variables are left verbatim.
func (r *Resolver) Resolve(input string, ctx *Context) (string, error) {
	if err := r.Validate(input); err != nil {
		return "", err
	}

	out, err := r.resolveBlocks(input, ctx)
	if err != nil {
		return "", err
	}
	return r.expandVariables(out, ctx), nil
}

// resolveBlocks walks the input left to right, replacing each
// {{#if cond}}...{{/if}} span. Each opening marker is matched non-greedily
// with the nearest closing marker; nesting is not supported.
func (r *Resolver) resolveBlocks(input string, ctx *Context) (string, error) {
	var sb strings.Builder
	pos := 0

	for {
		open := strings.Index(input[pos:], markerOpen+ifPrefix+" ")
		if open < 0 {
			sb.WriteString(input[pos:])
			break
		}
		open += pos
		sb.WriteString(input[pos:open])

		condEnd := strings.Index(input[open:], markerClose)
		// Validate already ruled this out; guard anyway.
		if condEnd < 0 {
			return "", &ResolutionError{Reason: "unterminated marker", Offset: open}
		}
		cond := strings.TrimSpace(input[open+len(markerOpen)+len(ifPrefix) : open+condEnd])
		bodyStart := open + condEnd + len(markerClose)

		closeMarker := markerOpen + ifClose + markerClose
		closeIdx := strings.Index(input[bodyStart:], closeMarker)
		if closeIdx < 0 {
			return "", &ResolutionError{Reason: "unmatched {{#if}}", Offset: open}
		}
		body := input[bodyStart : bodyStart+closeIdx]

		if truthy(r.evalCondition(cond, ctx)) {
			sb.WriteString(body)
		}

		pos = bodyStart + closeIdx + len(closeMarker)
	}

	return sb.String(), nil
}

// expandVariables replaces {{expr}} markers with context values. Markers
// whose expression cannot be resolved are emitted unchanged.
func (r *Resolver) expandVariables(input string, ctx *Context) string {
	var sb strings.Builder
	pos := 0

	for {
		open := strings.Index(input[pos:], markerOpen)
		if open < 0 {
			sb.WriteString(input[pos:])
			break
		}
		open += pos
		sb.WriteString(input[pos:open])

		end := strings.Index(input[open+len(markerOpen):], markerClose)
		if end < 0 {
			sb.WriteString(input[open:])
			break
		}
		marker := input[open : open+len(markerOpen)+end+len(markerClose)]
		expr := strings.TrimSpace(input[open+len(markerOpen) : open+len(markerOpen)+end])

		if value, ok := ctx.Resolve(expr); ok {
			sb.WriteString(stringify(value))
		} else {
			sb.WriteString(marker)
		}

		pos = open + len(markerOpen) + end + len(markerClose)
	}

	return sb.String()
}

// EvalTruthy evaluates a bare conditional expression (the condition field of
// an action) under the same truthiness rules as {{#if}} blocks.
func (r *Resolver) EvalTruthy(cond string, ctx *Context) bool {
	return truthy(r.evalCondition(cond, ctx))
}

// evalCondition evaluates a conditional expression: quoted strings and
// numeric literals evaluate as themselves, everything else is resolved
// against the context. Unresolved names evaluate as absent.
func (r *Resolver) evalCondition(cond string, ctx *Context) interface{} {
	if len(cond) >= 2 {
		if (cond[0] == '"' && cond[len(cond)-1] == '"') || (cond[0] == '\'' && cond[len(cond)-1] == '\'') {
			return cond[1 : len(cond)-1]
		}
	}
	if n, err := strconv.ParseFloat(cond, 64); err == nil {
		return n
	}
	if cond == "true" {
		return true
	}
	if cond == "false" {
		return false
	}

	value, ok := ctx.Resolve(cond)
	if !ok {
		return nil
	}
	return value
}

// truthy implements the engine's truthiness rules: nil, false, empty
// string, "false", "0", numeric zero, and empty collections are falsy.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "false" && x != "0"
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// stringify renders a context value for inline substitution. Whole-number
// floats (the common case after JSON decoding) render without a fraction.
func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return stringify(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprintf("%v", v)
}
