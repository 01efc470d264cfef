// Package rulesets provides the RuleSet configuration kind for gumshoe.
package rulesets

import (
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	_ "embed"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/macropower/gumshoe/api"
	"github.com/macropower/gumshoe/api/v1beta1"
	"github.com/macropower/gumshoe/pkg/predicate"
	"github.com/macropower/gumshoe/pkg/rule"
	"github.com/macropower/gumshoe/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/ruleset/main.go -o rulesets.v1beta1.json

const (
	// Kind is the kind of a [RuleSet] document.
	Kind = "RuleSet"
	// SchemaURL identifies the RuleSet JSON schema.
	SchemaURL = "https://raw.githubusercontent.com/macropower/gumshoe/refs/heads/main/api/v1beta1/rulesets/rulesets.v1beta1.json"
	// FileName is the name of the user rules file.
	FileName = "rules.yaml"
)

var (
	//go:embed default.yaml
	defaultRuleSetYAML []byte

	// ValidKinds contains the valid kind values for rule set documents.
	ValidKinds = []string{Kind}

	// ProjectFileNames are looked up in the target directory and its parents.
	ProjectFileNames = []string{".gumshoe.yaml", ".gumshoe.yml"}

	defaultValidator = sync.OnceValues(func() (*yaml.Validator, error) {
		data, err := NewSchemaGenerator().Generate()
		if err != nil {
			return nil, err
		}

		return yaml.NewValidator(SchemaURL, data)
	})

	// Compile-time interface checks.
	_ v1beta1.Object = (*RuleSet)(nil)
)

// RuleSet is an ordered list of rules.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type RuleSet struct {
	v1beta1.TypeMeta `json:",inline"`

	// Rules are evaluated concurrently; the first rule in this list whose
	// predicates all hold is selected.
	Rules []*Entry `json:"rules" jsonschema:"title=Rules"`
}

// New creates a new, empty [RuleSet].
func New() *RuleSet {
	rs := &RuleSet{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
	rs.EnsureDefaults()

	return rs
}

// EnsureDefaults initializes nil fields to their default values.
func (rs *RuleSet) EnsureDefaults() {
	if rs.Rules == nil {
		rs.Rules = []*Entry{}
	}
}

// Compile parses every entry into a [rule.Rule].
func (rs *RuleSet) Compile() ([]*rule.Rule, error) {
	rules := make([]*rule.Rule, 0, len(rs.Rules))

	for i, e := range rs.Rules {
		r, err := rule.Parse(e.Fields())
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}

		rules = append(rules, r)
	}

	return rules, nil
}

func (rs RuleSet) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// Entry is a single rule as written in a [RuleSet]: a filename, predicates,
// and metadata, in their original order.
type Entry struct {
	fields *rule.Metadata
}

// NewEntry creates an [Entry] from a record.
func NewEntry(fields *rule.Metadata) *Entry {
	return &Entry{fields: fields}
}

// Fields returns the raw record of the entry.
func (e *Entry) Fields() *rule.Metadata {
	if e == nil || e.fields == nil {
		return orderedmap.New[string, any]()
	}

	return e.fields
}

// UnmarshalYAML decodes the entry, keeping its key order.
func (e *Entry) UnmarshalYAML(data []byte) error {
	fields, err := yaml.UnmarshalOrdered(data)
	if err != nil {
		return fmt.Errorf("decode rule: %w", err)
	}

	e.fields = fields

	return nil
}

// MarshalYAML encodes the entry, keeping its key order.
func (e Entry) MarshalYAML() (any, error) {
	return yaml.ToMapSlice(e.fields), nil
}

// MarshalJSON encodes the entry, keeping its key order.
func (e Entry) MarshalJSON() ([]byte, error) {
	return e.Fields().MarshalJSON() //nolint:wrapcheck // Return the original error.
}

// JSONSchema describes an entry: a required filename, the predicates in
// [predicate.Schema], and any other metadata keys.
func (Entry) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set(predicate.FilenameKey, &jsonschema.Schema{
		Type:        "string",
		Title:       "Filename",
		Description: "Path or glob, relative to the base directory, that predicates are evaluated against.",
		MinLength:   ptr(uint64(1)),
	})

	for _, spec := range predicate.Schema {
		props.Set(string(spec.Kind), &jsonschema.Schema{
			Type:        spec.Type,
			Description: spec.Description,
		})
	}

	return &jsonschema.Schema{
		Type:       "object",
		Title:      "Rule",
		Properties: props,
		Required:   []string{predicate.FilenameKey},
	}
}

// NewSchemaGenerator returns a generator for the RuleSet JSON schema.
func NewSchemaGenerator() *yaml.SchemaGenerator {
	return yaml.NewSchemaGenerator(New(), SchemaURL)
}

// DefaultValidator returns the validator for RuleSet documents.
func DefaultValidator() (*yaml.Validator, error) {
	return defaultValidator()
}

// Default returns the embedded default rule set document.
func Default() []byte {
	return defaultRuleSetYAML
}

// WriteDefault writes the embedded default rule set to path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultRuleSetYAML, force, "rules")
	if err != nil {
		return fmt.Errorf("write default rules: %w", err)
	}

	return nil
}

func ptr[T any](v T) *T {
	return &v
}
