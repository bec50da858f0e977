package modifier

import "strings"

// TextAppend appends a block at end-of-file. The operation is idempotent
// when the exact block is already the file's suffix, which keeps flat text
// targets (stylesheets, env files, ignore lists) stable across re-runs.
type TextAppend struct{}

// NewTextAppend creates the text-append modifier.
func NewTextAppend() *TextAppend {
	return &TextAppend{}
}

// Name returns the registry key.
func (t *TextAppend) Name() string { return "text-append" }

// ValidateParams requires a non-empty "content" string.
func (t *TextAppend) ValidateParams(params Params) error {
	content, ok := params.String("content")
	if !ok || content == "" {
		return &ParamError{Modifier: t.Name(), Param: "content", Reason: "non-empty string required"}
	}
	return nil
}

// Seed returns an empty file.
func (t *TextAppend) Seed(Params) string { return "" }

// Apply appends the block unless it is already the file's suffix.
func (t *TextAppend) Apply(current string, params Params) (string, error) {
	content, _ := params.String("content")
	block := strings.TrimRight(content, "\n")

	trimmed := strings.TrimRight(current, "\n")
	if trimmed == block || strings.HasSuffix(trimmed, "\n"+block) {
		return current, nil
	}

	if current == "" {
		return block + "\n", nil
	}
	if !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	return current + block + "\n", nil
}
