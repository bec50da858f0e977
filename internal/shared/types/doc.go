// Package types defines shared data structures used across the engine.
//
// Types here are pure data with JSON/YAML tags and no behavior beyond
// validation helpers. They are shared between the blueprint parser, the
// action executor, and the orchestrator to avoid circular dependencies.
//
// Key types:
//   - Blueprint: ordered list of file-mutation actions owned by one module
//   - Action: closed tagged variant (create, enhance, append, dependency, script)
//   - ExecutionSummary: per-blueprint outcome exposed to callers
package types
