// Package template resolves variable and conditional markers in blueprint
// action fields.
//
// Two marker forms are supported:
//   - {{path.to.value}}: dotted lookup against the template context
//   - {{#if cond}}...{{/if}}: conditional block kept or removed by truthiness
//
// Resolution is implemented as a small hand-written scanner over the two
// marker forms rather than regular expressions, so adjacent blocks and
// malformed markers are handled precisely and validation errors carry exact
// offsets.
//
// A variable that cannot be resolved (directly or through the cross-module
// alias table) is left verbatim in the output. Missing parameters surface as
// literal unresolved text in generated files instead of vanishing silently.
package template
