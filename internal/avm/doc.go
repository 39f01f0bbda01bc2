// Package avm holds the catalog of verified infrastructure module schemas:
// parameter defaults, cost-tier orderings and security rules keyed by a
// version-agnostic module path.
//
// Registry entries are authored as HCL manifests. A builtin catalog is
// embedded in the binary; additional manifest files can be loaded from a
// directory at startup. The registry is validated once during construction
// and is immutable afterwards, so a single instance is safe to share
// read-only across concurrent optimization calls.
//
// A lookup miss is deliberately not an error. A module reference the
// catalog does not know is a module the optimizer must not touch.
package avm
