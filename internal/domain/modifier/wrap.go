package modifier

import "errors"

// ErrNotSupported is returned by modifiers whose contract exists but whose
// transform is not implemented.
var ErrNotSupported = errors.New("not supported")

// WrapComponent is the placeholder contract for wrapping a declared root
// element with a provider or wrapper component. The transform is not
// implemented: it fails loudly instead of silently no-opping, so a
// blueprint relying on it surfaces the gap immediately.
type WrapComponent struct{}

// NewWrapComponent creates the wrap-component modifier.
func NewWrapComponent() *WrapComponent {
	return &WrapComponent{}
}

// Name returns the registry key.
func (w *WrapComponent) Name() string { return "wrap-component" }

// ValidateParams requires the target element and wrapper names so callers
// exercise the full contract even though the transform is unimplemented.
func (w *WrapComponent) ValidateParams(params Params) error {
	if target, ok := params.String("target"); !ok || target == "" {
		return &ParamError{Modifier: w.Name(), Param: "target", Reason: "non-empty string required"}
	}
	if wrapper, ok := params.String("wrapper"); !ok || wrapper == "" {
		return &ParamError{Modifier: w.Name(), Param: "wrapper", Reason: "non-empty string required"}
	}
	return nil
}

// Seed returns an empty file.
func (w *WrapComponent) Seed(Params) string { return "" }

// Apply always fails with a "not supported" error.
func (w *WrapComponent) Apply(string, Params) (string, error) {
	return "", &TransformError{
		Modifier: w.Name(),
		Reason:   "component wrapping is not supported",
		Err:      ErrNotSupported,
	}
}
