// Package paths provides normalized project-relative path handling for the engine.
//
// Every file the engine touches is addressed by a slash-separated path
// relative to the project root. Normalization happens once, at the edge, so
// the VFS, snapshot store, and executor all agree on a single key per file.
//
// Rules:
//   - Paths are cleaned and converted to forward slashes
//   - Absolute paths are rejected
//   - Paths escaping the project root via ".." are rejected
package paths
