// Package executor interprets blueprint actions against a VFS overlay.
//
// Each action runs through the same state machine: template-expand its
// string fields, evaluate its optional condition, dispatch by kind, and on
// precondition violation apply the action's fallback policy. Actions execute
// strictly in sequence, so later actions see content staged by earlier
// actions in the same blueprint.
//
// The executor commits the VFS exactly once, after every action has
// succeeded in memory. Any failure before that point leaves the real tree
// byte-identical to its pre-execution state: the overlay is simply
// discarded.
//
// Dependency and script declarations are collected as structured facts and
// folded into the project manifest with the structured-merge modifier
// before the commit, so a blueprint's manifest edits ride the same
// all-or-nothing boundary as its file mutations.
package executor
