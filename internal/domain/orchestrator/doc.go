// Package orchestrator sequences blueprint executions for multiple modules
// against the same project tree.
//
// Modules run strictly in the supplied dependency order, never concurrently:
// later modules may enhance files created by earlier ones, so sequencing is
// the correctness mechanism, not a performance choice. Each module gets its
// own VFS overlay, committed independently.
//
// Before a module's commit, the orchestrator captures a snapshot of every
// path the blueprint staged. If a later module fails, already-committed
// modules are rolled back from those snapshots in reverse install order —
// best-effort, with restore failures reported as warnings.
//
// Cancellation is coarse-grained: the context is checked between module
// boundaries only. An in-flight blueprint always finishes its current
// execution and commits or discards cleanly rather than being interrupted
// mid-mutation.
package orchestrator
