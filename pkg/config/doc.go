// Package config loads gumshoe configuration documents.
//
// [Loader] decodes and validates any configuration kind. [LoadRules] picks
// the rule set for a target directory, from (in order of precedence) an
// explicit file, a project file next to or above the target, the user's rules
// file, or the embedded defaults.
package config
