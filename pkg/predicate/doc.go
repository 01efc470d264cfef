// Package predicate implements the checks a rule makes against the
// filesystem.
//
// A rule names a path or glob (its filename) and declares any number of
// predicates. The filename is resolved once into a [Target]; every predicate
// is then evaluated against that target and the results are AND-ed by
// [Evaluate]. The set of predicate kinds is declared in [Schema], which also
// defines which rule keys are reserved and which are caller metadata.
//
// Most failures are soft: an unreadable file, invalid JSON, or a failing
// expression simply make the predicate false. The one hard failure is
// [ErrAssertionViolation], raised when `exists: false` is contradicted.
package predicate
