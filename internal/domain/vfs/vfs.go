package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/stacksmith-dev/stacksmith/internal/infrastructure/logging"
	"github.com/stacksmith-dev/stacksmith/internal/shared/paths"
)

// entry tracks the per-path staged state of one file.
//
// Invariants: stagedDelete implies no staged content; a read yields staged
// content if present, else disk content, else absent.
type entry struct {
	diskContent string
	onDisk      bool

	stagedContent string
	hasStaged     bool
	stagedDelete  bool
}

// VFS is the virtual file system overlay for one blueprint execution.
type VFS struct {
	root    string
	entries map[string]*entry
	log     *logging.Logger
}

// CommitError reports a failed final commit. Because per-file writes are not
// wrapped in a transactional filesystem primitive, it enumerates which paths
// were confirmed written and which were never attempted so the caller can
// decide on manual remediation.
type CommitError struct {
	Path         string
	Written      []string
	NotAttempted []string
	Err          error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed at %s (%d written, %d not attempted): %v",
		e.Path, len(e.Written), len(e.NotAttempted), e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// CommitReport describes a successful commit.
type CommitReport struct {
	Written []string
	Deleted []string
}

// New creates an empty VFS rooted at the given project directory.
func New(root string, log *logging.Logger) *VFS {
	return &VFS{
		root:    root,
		entries: make(map[string]*entry),
		log:     logging.OrNop(log),
	}
}

// Root returns the project root directory.
func (v *VFS) Root() string {
	return v.root
}

// Read returns the effective content of a path and whether it exists in the
// overlay's view. The first touch of a path populates it from disk.
func (v *VFS) Read(path string) (string, bool, error) {
	e, err := v.load(path)
	if err != nil {
		return "", false, err
	}

	if e.stagedDelete {
		return "", false, nil
	}
	if e.hasStaged {
		return e.stagedContent, true, nil
	}
	if e.onDisk {
		return e.diskContent, true, nil
	}
	return "", false, nil
}

// Exists reports whether a path exists in the overlay's view.
func (v *VFS) Exists(path string) (bool, error) {
	_, ok, err := v.Read(path)
	return ok, err
}

// Write stages new content for a path. The real tree is untouched.
func (v *VFS) Write(path, content string) error {
	e, err := v.load(path)
	if err != nil {
		return err
	}

	e.stagedContent = content
	e.hasStaged = true
	e.stagedDelete = false
	return nil
}

// Delete stages removal of a path. Staged content for the path is dropped.
func (v *VFS) Delete(path string) error {
	e, err := v.load(path)
	if err != nil {
		return err
	}

	e.stagedContent = ""
	e.hasStaged = false
	e.stagedDelete = true
	return nil
}

// StagedPaths returns the normalized paths with a staged write or delete,
// sorted for deterministic iteration.
func (v *VFS) StagedPaths() []string {
	out := make([]string, 0, len(v.entries))
	for p, e := range v.entries {
		if e.hasStaged || e.stagedDelete {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// DiskContent returns what was on disk for a path when the VFS first
// touched it, before any staged change. Used by the snapshot store to
// capture pre-install state.
func (v *VFS) DiskContent(path string) (string, bool, error) {
	e, err := v.load(path)
	if err != nil {
		return "", false, err
	}
	return e.diskContent, e.onDisk, nil
}

// Commit applies every staged write and delete to the real tree. Paths are
// processed in sorted order; on the first I/O error a CommitError is
// returned carrying the partition of paths already written versus never
// attempted.
func (v *VFS) Commit() (*CommitReport, error) {
	staged := v.StagedPaths()
	report := &CommitReport{}

	for i, p := range staged {
		e := v.entries[p]
		onDisk := paths.OnDisk(v.root, p)

		var err error
		if e.stagedDelete {
			err = v.remove(onDisk)
			if err == nil {
				report.Deleted = append(report.Deleted, p)
			}
		} else {
			err = v.flush(onDisk, e.stagedContent)
			if err == nil {
				report.Written = append(report.Written, p)
			}
		}

		if err != nil {
			v.log.Error("commit failed",
				zap.String("path", p),
				zap.Error(err),
			)
			return nil, &CommitError{
				Path:         p,
				Written:      append(report.Written, report.Deleted...),
				NotAttempted: staged[i+1:],
				Err:          err,
			}
		}
	}

	v.log.Debug("vfs committed",
		zap.Int("written", len(report.Written)),
		zap.Int("deleted", len(report.Deleted)),
	)
	return report, nil
}

func (v *VFS) flush(onDisk, content string) error {
	if err := os.MkdirAll(filepath.Dir(onDisk), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(onDisk, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (v *VFS) remove(onDisk string) error {
	err := os.Remove(onDisk)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// load normalizes the path and populates its entry from disk on first touch.
func (v *VFS) load(path string) (*entry, error) {
	norm, err := paths.Normalize(path)
	if err != nil {
		return nil, err
	}

	if e, ok := v.entries[norm]; ok {
		return e, nil
	}

	e := &entry{}
	data, err := os.ReadFile(paths.OnDisk(v.root, norm))
	switch {
	case err == nil:
		e.diskContent = string(data)
		e.onDisk = true
	case os.IsNotExist(err):
		// Absent on disk; entry stays empty.
	default:
		return nil, fmt.Errorf("failed to read %s: %w", norm, err)
	}

	v.entries[norm] = e
	return e, nil
}
