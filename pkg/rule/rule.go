package rule

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/macropower/gumshoe/pkg/fsys"
	"github.com/macropower/gumshoe/pkg/predicate"
)

// Metadata is an ordered record of rule fields.
type Metadata = orderedmap.OrderedMap[string, any]

var (
	// ErrMissingFilename indicates a rule without a filename.
	ErrMissingFilename = errors.New("rule must have a filename")
	// ErrInvalidRule indicates a rule that cannot be evaluated.
	ErrInvalidRule = errors.New("invalid rule")
)

// Rule is a filename, a conjunction of predicates, and the metadata returned
// when every predicate holds.
type Rule struct {
	metadata *Metadata
	// order holds the keys in the order they were declared.
	order []string

	// Filename is a path or glob, relative to the base directory.
	Filename string
	// Predicates are evaluated in order; see [predicate.Sort].
	Predicates []predicate.Predicate
}

// Opt configures a [Rule].
type Opt func(*Rule) error

// WithPredicates adds predicates to the rule.
func WithPredicates(preds ...predicate.Predicate) Opt {
	return func(r *Rule) error {
		r.Predicates = append(r.Predicates, preds...)
		for _, p := range preds {
			r.declare(string(p.Kind()))
		}

		return nil
	}
}

// WithMetadata appends a metadata field. Reserved keys are rejected.
func WithMetadata(key string, value any) Opt {
	return func(r *Rule) error {
		if predicate.IsReserved(key) {
			return fmt.Errorf("%w: %q is a reserved key", ErrInvalidRule, key)
		}

		r.metadata.Set(key, value)
		r.declare(key)

		return nil
	}
}

// New creates a new [Rule] for filename.
func New(filename string, opts ...Opt) (*Rule, error) {
	r := &Rule{
		Filename: filename,
		metadata: orderedmap.New[string, any](),
		order:    []string{predicate.FilenameKey},
	}

	for _, opt := range opts {
		err := opt(r)
		if err != nil {
			return nil, err
		}
	}

	err := r.Validate()
	if err != nil {
		return nil, err
	}

	predicate.Sort(r.Predicates)

	return r, nil
}

// MustNew creates a new [Rule] and panics on error.
func MustNew(filename string, opts ...Opt) *Rule {
	r, err := New(filename, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

// Parse builds a [Rule] from a raw record. Keys listed in [predicate.Schema]
// become predicates; [predicate.FilenameKey] becomes the filename; every
// other key is kept as metadata, in order.
func Parse(fields *Metadata) (*Rule, error) {
	r := &Rule{metadata: orderedmap.New[string, any]()}

	if fields != nil {
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			err := r.parseField(pair.Key, pair.Value)
			if err != nil {
				return nil, err
			}
		}
	}

	err := r.Validate()
	if err != nil {
		return nil, err
	}

	predicate.Sort(r.Predicates)

	return r, nil
}

func (r *Rule) parseField(key string, value any) error {
	r.declare(key)

	if key == predicate.FilenameKey {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s: want string, got %T", ErrInvalidRule, key, value)
		}

		r.Filename = s

		return nil
	}

	spec, ok := predicate.Lookup(key)
	if !ok {
		r.metadata.Set(key, value)

		return nil
	}

	p, err := spec.Decode(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRule, key, err)
	}

	r.Predicates = append(r.Predicates, p)

	return nil
}

// Validate checks that the rule has a usable filename.
func (r *Rule) Validate() error {
	if r.Filename == "" {
		return ErrMissingFilename
	}

	_, err := fsys.CleanName(r.Filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	return nil
}

// Name returns the cleaned filename. It returns the raw filename if it is
// not valid; call [Rule.Validate] first.
func (r *Rule) Name() string {
	name, err := fsys.CleanName(r.Filename)
	if err != nil {
		return r.Filename
	}

	return name
}

// Result returns a copy of the rule's metadata: the rule's fields without
// the reserved keys, in their original order. It is never nil.
func (r *Rule) Result() *Metadata {
	out := orderedmap.New[string, any]()
	if r.metadata == nil {
		return out
	}

	for pair := r.metadata.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}

	return out
}

func (r *Rule) declare(key string) {
	if !slices.Contains(r.order, key) {
		r.order = append(r.order, key)
	}
}

// Fields returns the full record of the rule: the filename, each predicate
// keyed by its kind, and the metadata, in the order they were declared.
// Keys without a recorded position follow in that same grouping.
func (r *Rule) Fields() *Metadata {
	values := orderedmap.New[string, any]()
	values.Set(predicate.FilenameKey, r.Filename)

	for _, p := range r.Predicates {
		values.Set(string(p.Kind()), p.Value())
	}

	if r.metadata != nil {
		for pair := r.metadata.Oldest(); pair != nil; pair = pair.Next() {
			values.Set(pair.Key, pair.Value)
		}
	}

	out := orderedmap.New[string, any]()

	for _, key := range r.order {
		if v, ok := values.Get(key); ok {
			out.Set(key, v)
		}
	}

	for pair := values.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := out.Get(pair.Key); !ok {
			out.Set(pair.Key, pair.Value)
		}
	}

	return out
}

// String returns a compact description of the rule, for logs.
func (r *Rule) String() string {
	parts := make([]string, 0, len(r.Predicates)+1)
	parts = append(parts, fmt.Sprintf("%s=%q", predicate.FilenameKey, r.Filename))

	for _, p := range r.Predicates {
		parts = append(parts, fmt.Sprintf("%s=%v", p.Kind(), p.Value()))
	}

	return strings.Join(parts, " ")
}

// Project returns a new record holding only the non-reserved keys of fields,
// in their original order.
func Project(fields *Metadata) *Metadata {
	out := orderedmap.New[string, any]()
	if fields == nil {
		return out
	}

	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		if predicate.IsReserved(pair.Key) {
			continue
		}

		out.Set(pair.Key, pair.Value)
	}

	return out
}
