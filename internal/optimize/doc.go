// Package optimize rewrites parsed Bicep-style templates against the
// verified-module catalog.
//
// Each module declaration found in a template is looked up in the registry
// and run through a fixed pipeline of three rules: security hardening, cost
// optimization, then default elision. The ordering matters: the first two
// rules may change a value into the schema default, and elision must judge
// the final value.
//
// Rules are pure with respect to the input text. They accumulate per-param
// state and diagnostics; the optimizer materializes the surviving changes as
// surgical span edits so that every untouched region of the template comes
// out byte-identical. A rule that cannot prove a rewrite is safe (non-literal
// value, unknown shape) does nothing for that parameter.
package optimize
