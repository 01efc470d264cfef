package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator generates JSON schemas from Go types.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	reflector *jsonschema.Reflector
	v         any
	id        jsonschema.ID
}

// NewSchemaGenerator creates a new [SchemaGenerator] for v. The schema is
// identified by id, which is also the URL passed to [NewValidator].
func NewSchemaGenerator(v any, id string) *SchemaGenerator {
	return &SchemaGenerator{
		v:  v,
		id: jsonschema.ID(id),
		reflector: &jsonschema.Reflector{
			ExpandedStruct: true,
			DoNotReference: true,
		},
	}
}

// Schema returns the reflected schema.
func (g *SchemaGenerator) Schema() *jsonschema.Schema {
	jss := g.reflector.Reflect(g.v)
	jss.ID = g.id

	return jss
}

// Generate returns the schema as indented JSON.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	data, err := json.MarshalIndent(g.Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}
