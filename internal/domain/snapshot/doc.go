// Package snapshot captures pre-install state of the paths a blueprint is
// about to change, so the orchestrator can perform best-effort compensating
// rollback when a later module fails.
//
// A snapshot records the prior content of every path that existed on disk
// and the set of paths that did not exist (files the module created, which
// rollback removes). Snapshots are serialized as gzip-compressed JSON under
// the backup directory, one archive per module installation.
//
// Restoration is explicitly best-effort: individual restore failures are
// collected as warnings, never escalated. The engine does not promise
// transactional rollback across already-committed modules.
package snapshot
