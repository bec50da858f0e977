package executor

import (
	"fmt"

	"github.com/stacksmith-dev/stacksmith/internal/shared/types"
)

// PreconditionError reports an action whose file-existence precondition was
// violated under the "error" fallback policy.
type PreconditionError struct {
	Kind   types.ActionKind
	Path   string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s on %s: precondition violated: %s", e.Kind, e.Path, e.Reason)
}

// ActionError identifies the failing action, its target path, and the
// reason. Every executor failure surfaces as one of these; callers never
// see a generic "something went wrong".
type ActionError struct {
	BlueprintID string
	Index       int
	Kind        types.ActionKind
	Path        string
	Err         error
}

func (e *ActionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("blueprint %s: action %d (%s) on %s: %v", e.BlueprintID, e.Index, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("blueprint %s: action %d (%s): %v", e.BlueprintID, e.Index, e.Kind, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
