package yaml

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder reads YAML documents and converts parser errors into [Error]s.
type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder creates a new [Decoder] reading from r. Duplicate map keys are
// allowed; the last value wins.
func NewDecoder(r io.Reader, opts ...yaml.DecodeOption) *Decoder {
	opts = append([]yaml.DecodeOption{yaml.AllowDuplicateMapKey()}, opts...)

	return &Decoder{
		d: yaml.NewDecoder(r, opts...),
	}
}

// Decode reads the next document into v.
func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

// UnmarshalOrdered decodes data into an ordered record. Nested mappings are
// decoded as ordered records too.
func UnmarshalOrdered(data []byte) (*OrderedMap, error) {
	var ms yaml.MapSlice

	err := yaml.UnmarshalWithOptions(data, &ms, yaml.UseOrderedMap())
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return FromMapSlice(ms), nil
}
