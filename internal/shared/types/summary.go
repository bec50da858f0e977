package types

// ExecutionSummary is the outcome of running one blueprint. It is returned
// to the caller on success and alongside the error on failure so partial
// state is always observable.
type ExecutionSummary struct {
	ExecutionID string   `json:"execution_id"`
	BlueprintID string   `json:"blueprint_id"`
	Success     bool     `json:"success"`
	Created     []string `json:"created,omitempty"`
	Modified    []string `json:"modified,omitempty"`
	Deleted     []string `json:"deleted,omitempty"`
	Skipped     []string `json:"skipped,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`

	// Content hashes of committed paths, for drift detection by callers.
	Hashes map[string]string `json:"hashes,omitempty"`

	Dependencies []DeclaredDependency `json:"dependencies,omitempty"`
	Scripts      []DeclaredScript     `json:"scripts,omitempty"`

	// Populated only when the final commit failed partway: which paths were
	// confirmed written versus never attempted. Disk writes are not
	// transactional across files, so this is the caller's remediation map.
	CommittedPaths    []string `json:"committed_paths,omitempty"`
	NotAttemptedPaths []string `json:"not_attempted_paths,omitempty"`
}

// AddWarning appends a non-fatal warning to the summary.
func (s *ExecutionSummary) AddWarning(w string) {
	s.Warnings = append(s.Warnings, w)
}
