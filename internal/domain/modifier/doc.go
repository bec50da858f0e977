// Package modifier provides the registry of pure content transforms used by
// enhance-style blueprint actions.
//
// A modifier is a named, pure, total function from (current content, params)
// to new content. Purity is load-bearing: calling a modifier twice with
// identical inputs yields identical output, which underwrites the engine's
// atomicity guarantees and makes every transform testable in isolation.
//
// Built-in modifiers:
//   - structured-merge: deep-merges declared keys into JSON/YAML/TOML files
//   - module-augmentation: injects deduplicated imports and appends statements
//   - text-append: appends a block at end-of-file, idempotent on exact suffix
//   - wrap-component: placeholder contract, fails with a "not supported" error
//
// Registration is last-write-wins with a logged warning on name collision.
// Registered names are checked against a fixed allow-list to catch typos at
// startup; the registry itself stays open for extension.
package modifier
