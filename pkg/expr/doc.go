// Package expr provides the CEL (Common Expression Language) environment used
// by the `match` rule predicate.
//
// Expressions are evaluated with two variables:
//   - `files` (list<string>): every path matched by the rule's filename
//   - `dir` (string): the name of the base directory
//
// On top of the standard CEL library and the [ext.Strings] and [ext.Lists]
// extensions, the environment provides `pathBase`, `pathDir`, and `pathExt`.
package expr
