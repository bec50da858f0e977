// Package vfs provides the in-memory staging overlay over the real project
// tree.
//
// All reads and writes during one blueprint's execution go through a VFS
// instance. Entries are populated lazily from disk the first time a path is
// touched and served from the overlay thereafter, so a blueprint sees a
// consistent view even if the real tree changes mid-execution, and later
// actions see the staged output of earlier actions in the same blueprint.
//
// Nothing touches disk until Commit, which applies every staged write and
// delete. Per-file writes are not transactional across files: a mid-commit
// I/O failure leaves the commit report enumerating which paths were
// confirmed written and which were never attempted.
//
// A VFS instance is created per blueprint execution and discarded after a
// successful commit or a failure. It never persists across two executions.
package vfs
