package yaml_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/gumshoe/pkg/yaml"
)

func TestError_AnnotatesSource(t *testing.T) {
	t.Parallel()

	source := []byte(`rules:
  - filename: go.mod
    exists: yes-please
  - filename: Cargo.toml
`)

	err := yaml.NewError(
		errors.New("got string, want boolean"),
		yaml.WithPath(yaml.NewPathBuilder().Root().Child("rules").Index(0).Child("exists").Build()),
		yaml.WithSource(source),
	)

	msg := err.Error()
	assert.Contains(t, msg, "[3:5] got string, want boolean")
	assert.Contains(t, msg, "exists: yes-please")
}

func TestDecoder_Error(t *testing.T) {
	t.Parallel()

	source := []byte("rules:\n  - filename: [\n")

	var v any

	err := yaml.NewDecoder(bytes.NewReader(source)).Decode(&v)
	require.Error(t, err)

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)
	assert.NotNil(t, yamlErr.Token)

	wrapped := yaml.NewErrorWrapper(yaml.WithSource(source)).Wrap(err)
	assert.Contains(t, wrapped.Error(), "filename")
}

func TestErrorWrapper_PassesThrough(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain")

	require.NoError(t, yaml.NewErrorWrapper().Wrap(nil))
	assert.Same(t, plain, yaml.NewErrorWrapper().Wrap(plain))
}
