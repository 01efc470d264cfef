package yaml

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultEncoderOptions are used by every [Encoder]. Sequences are not
// indented, so a top-level list starts at column zero.
var DefaultEncoderOptions = []yaml.EncodeOption{
	yaml.Indent(2),
}

// Encoder writes YAML documents. Ordered records are written with their
// keys in insertion order.
type Encoder struct {
	e *yaml.Encoder
}

// NewEncoder creates a new [Encoder] writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		e: yaml.NewEncoder(w, DefaultEncoderOptions...),
	}
}

// Encode writes v as a YAML document.
func (e *Encoder) Encode(v any) error {
	return e.e.Encode(toYAMLValue(v)) //nolint:wrapcheck // Return the original error.
}

// Close flushes the encoder.
func (e *Encoder) Close() error {
	return e.e.Close() //nolint:wrapcheck // Return the original error.
}

// MarshalFlow encodes v on a single line, using flow style for records and
// sequences. Ordered records keep their key order.
func MarshalFlow(v any) (string, error) {
	b, err := yaml.MarshalWithOptions(toYAMLValue(v), yaml.Flow(true))
	if err != nil {
		return "", fmt.Errorf("marshal flow yaml: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}
