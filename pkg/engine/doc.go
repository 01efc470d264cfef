// Package engine runs a list of rules against a directory and selects the
// matching ones.
//
// Every rule is evaluated independently and concurrently. Outcomes are
// written to a slot per rule, so the result is always in declaration order
// regardless of which evaluation finished first: [Result.First] is the
// lowest-indexed match and [Result.All] lists every match.
package engine
