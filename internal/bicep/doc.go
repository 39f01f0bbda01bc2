// Package bicep parses Bicep-style templates into an offset-tracked document
// model and renders them back out with surgical span replacement.
//
// The parser is deliberately not a full Bicep front end. It recognizes
// exactly one construct, the module declaration:
//
//	module <symbolicName> '<moduleSource>' = {
//	  name: <expression>
//	  params: {
//	    <key>: <value>
//	  }
//	}
//
// Everything else in the input is carried as opaque literal spans. Block
// boundaries are found by brace-depth counting that is aware of string
// literals and of string interpolation (`${...}`), so values like
// `'${uniqueString(resourceGroup().id)}-x'` do not close a block early.
//
// Every node records byte offsets into the original source. Rendering a
// document with no edits returns the source unchanged, byte for byte; edits
// splice replacement text into the recorded spans and never touch anything
// outside them. That property is what lets the optimizer guarantee that
// regions it does not understand are passed through untouched.
package bicep
