package predicate

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// FilenameKey is the rule key holding the path or glob that predicates are
// evaluated against. It is reserved alongside every [Kind] in [Schema].
const FilenameKey = "filename"

// Kind identifies a predicate. It is also the rule key the predicate is
// declared with.
type Kind string

const (
	KindExists        Kind = "exists"
	KindIsFile        Kind = "isFile"
	KindIsDir         Kind = "isDir"
	KindGrep          Kind = "grep"
	KindJSONKeyExists Kind = "jsonKeyExists"
	KindYAMLKeyExists Kind = "yamlKeyExists"
	KindMatch         Kind = "match"
)

// Class groups predicates by the filesystem access they need. Predicates are
// evaluated in ascending class order, so cheaper checks run first and
// existence assertions are always reached.
type Class int

const (
	ClassExistence Class = iota // Needs glob expansion only.
	ClassType                   // Needs a stat of the first match.
	ClassFiles                  // Needs the full match list.
	ClassContent                // Needs the content of the first match.
)

var (
	// ErrAssertionViolation indicates that a rule declared `exists: false`
	// and the filename matched.
	ErrAssertionViolation = errors.New("assertion violated")
	// ErrInvalidValue indicates that a predicate was declared with a value of
	// the wrong type or shape.
	ErrInvalidValue = errors.New("invalid predicate value")
)

// Predicate is a single check against a resolved [Target].
type Predicate interface {
	// Kind returns the kind of the predicate.
	Kind() Kind
	// Eval reports whether the predicate holds. A false result with a nil
	// error is an ordinary non-match. Errors are reserved for conditions
	// that must fail the whole run.
	Eval(ctx context.Context, t *Target) (bool, error)
	// Value returns the declared value, as it would appear in a rule.
	Value() any
}

// Spec declares a predicate kind.
type Spec struct {
	// Decode builds a predicate from a rule value.
	Decode func(value any) (Predicate, error)
	// Kind is the predicate kind and rule key.
	Kind Kind
	// Description is used for documentation and schema generation.
	Description string
	// Type is the JSON schema type of the rule value.
	Type string
	// Class orders evaluation.
	Class Class
}

// Schema lists every predicate kind the engine understands. It is the single
// source of truth for which rule keys are reserved.
var Schema = []Spec{
	{
		Kind:        KindExists,
		Class:       ClassExistence,
		Description: "Whether the filename must match (true) or must not match (false).",
		Type:        "boolean",
		Decode:      decodeBool(func(b bool) Predicate { return Exists(b) }),
	},
	{
		Kind:        KindIsFile,
		Class:       ClassType,
		Description: "Whether the first match must be a regular file.",
		Type:        "boolean",
		Decode:      decodeBool(func(b bool) Predicate { return IsFile(b) }),
	},
	{
		Kind:        KindIsDir,
		Class:       ClassType,
		Description: "Whether the first match must be a directory.",
		Type:        "boolean",
		Decode:      decodeBool(func(b bool) Predicate { return IsDir(b) }),
	},
	{
		Kind:        KindMatch,
		Class:       ClassFiles,
		Description: "CEL expression over `files` and `dir` that must return true.",
		Type:        "string",
		Decode:      decodeString(func(s string) (Predicate, error) { return NewMatch(s) }),
	},
	{
		Kind:        KindGrep,
		Class:       ClassContent,
		Description: "Regular expression that must match the content of the first match.",
		Type:        "string",
		Decode:      decodeGrep,
	},
	{
		Kind:        KindJSONKeyExists,
		Class:       ClassContent,
		Description: "Dotted key path that must exist in the first match, parsed as JSON.",
		Type:        "string",
		Decode:      decodeString(func(s string) (Predicate, error) { return NewJSONKeyExists(s) }),
	},
	{
		Kind:        KindYAMLKeyExists,
		Class:       ClassContent,
		Description: "Dotted key path that must exist in the first match, parsed as YAML.",
		Type:        "string",
		Decode:      decodeString(func(s string) (Predicate, error) { return NewYAMLKeyExists(s) }),
	},
}

// Lookup returns the [Spec] for a rule key.
func Lookup(key string) (Spec, bool) {
	for _, s := range Schema {
		if string(s.Kind) == key {
			return s, true
		}
	}

	return Spec{}, false
}

// IsReserved reports whether key is interpreted by the engine rather than
// carried through as metadata.
func IsReserved(key string) bool {
	if key == FilenameKey {
		return true
	}

	_, ok := Lookup(key)

	return ok
}

// ReservedKeys returns every reserved rule key, starting with [FilenameKey].
func ReservedKeys() []string {
	keys := make([]string, 0, len(Schema)+1)
	keys = append(keys, FilenameKey)

	for _, s := range Schema {
		keys = append(keys, string(s.Kind))
	}

	return keys
}

// ClassOf returns the evaluation class of p.
func ClassOf(p Predicate) Class {
	s, ok := Lookup(string(p.Kind()))
	if !ok {
		return ClassContent
	}

	return s.Class
}

// Sort orders predicates by [Class], keeping declaration order within a class.
func Sort(preds []Predicate) {
	slices.SortStableFunc(preds, func(a, b Predicate) int {
		return int(ClassOf(a)) - int(ClassOf(b))
	})
}

// Evaluate reports whether every predicate holds for t. An empty predicate
// list never matches.
func Evaluate(ctx context.Context, t *Target, preds []Predicate) (bool, error) {
	if len(preds) == 0 {
		return false, nil
	}

	for _, p := range preds {
		err := ctx.Err()
		if err != nil {
			return false, err //nolint:wrapcheck // Return the context error.
		}

		ok, err := p.Eval(ctx, t)
		if err != nil {
			return false, fmt.Errorf("%s: %w", p.Kind(), err)
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func decodeBool(fn func(bool) Predicate) func(any) (Predicate, error) {
	return func(value any) (Predicate, error) {
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: want bool, got %T", ErrInvalidValue, value)
		}

		return fn(b), nil
	}
}

func decodeString(fn func(string) (Predicate, error)) func(any) (Predicate, error) {
	return func(value any) (Predicate, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrInvalidValue, value)
		}

		return fn(s)
	}
}
