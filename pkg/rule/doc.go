// Package rule defines the rules that gumshoe evaluates.
//
// A rule is a record with a required `filename`, any number of predicates
// (see [predicate.Schema] for the reserved keys), and arbitrary caller
// metadata. When a rule matches, its metadata is returned with the reserved
// keys removed and the remaining keys in their original order.
package rule
