package rulesets_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/gumshoe/api/v1beta1"
	"github.com/macropower/gumshoe/api/v1beta1/rulesets"
	"github.com/macropower/gumshoe/pkg/engine"
	"github.com/macropower/gumshoe/pkg/fsys"
	"github.com/macropower/gumshoe/pkg/yaml"
)

func decode(t *testing.T, data []byte) *rulesets.RuleSet {
	t.Helper()

	rs := rulesets.New()
	require.NoError(t, yaml.NewDecoder(bytes.NewReader(data)).Decode(rs))

	return rs
}

func TestNew(t *testing.T) {
	t.Parallel()

	rs := rulesets.New()
	assert.Equal(t, v1beta1.APIVersion, rs.APIVersion)
	assert.Equal(t, rulesets.Kind, rs.Kind)
	assert.NotNil(t, rs.Rules)
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	v, err := rulesets.DefaultValidator()
	require.NoError(t, err)

	var doc any
	require.NoError(t, yaml.NewDecoder(bytes.NewReader(rulesets.Default())).Decode(&doc))
	require.NoError(t, v.Validate(doc))

	rules, err := decode(t, rulesets.Default()).Compile()
	require.NoError(t, err)
	assert.NotEmpty(t, rules)
}

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	rules, err := decode(t, rulesets.Default()).Compile()
	require.NoError(t, err)

	tcs := map[string]struct {
		files     map[string]string
		language  string
		framework string
	}{
		"express": {
			files:     map[string]string{"package.json": `{"dependencies":{"express":"^4.0.0"}}`},
			language:  "javascript",
			framework: "express",
		},
		"plain node": {
			files:    map[string]string{"package.json": `{"name":"x"}`},
			language: "javascript",
		},
		"go": {
			files:    map[string]string{"go.mod": "module example.com/x\n\ngo 1.25\n"},
			language: "go",
		},
		"cargo workspace": {
			files:     map[string]string{"Cargo.toml": "[workspace]\nmembers = []\n"},
			language:  "rust",
			framework: "cargo-workspace",
		},
		"gradle": {
			files:     map[string]string{"build.gradle.kts": ""},
			language:  "java",
			framework: "gradle",
		},
		"laravel": {
			files:     map[string]string{"composer.json": `{"require":{"laravel/framework":"^11.0"}}`},
			language:  "php",
			framework: "laravel",
		},
		"helm": {
			files:    map[string]string{"Chart.yaml": "apiVersion: v2\nname: x\n"},
			language: "helm",
		},
		"dotnet": {
			files:    map[string]string{"App.csproj": "<Project />"},
			language: "dotnet",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := fstest.MapFS{}
			for name, content := range tc.files {
				m[name] = &fstest.MapFile{Data: []byte(content)}
			}

			res, err := engine.New(fsys.New(m)).Run(t.Context(), rules)
			require.NoError(t, err)

			lang, ok := res.First.Get("language")
			require.True(t, ok)
			assert.Equal(t, tc.language, lang)

			fw, ok := res.First.Get("framework")
			if tc.framework == "" {
				assert.False(t, ok)
			} else {
				assert.Equal(t, tc.framework, fw)
			}

			_, ok = res.First.Get("filename")
			assert.False(t, ok)
		})
	}
}

func TestCompile_Error(t *testing.T) {
	t.Parallel()

	rs := decode(t, []byte(`apiVersion: gumshoe.jacobcolvin.com/v1beta1
kind: RuleSet
rules:
  - filename: go.mod
    exists: true
  - filename: go.sum
    jsonKeyExists: 5
`))

	_, err := rs.Compile()
	require.ErrorContains(t, err, "rules[1]")
}

func TestEntry_Marshal(t *testing.T) {
	t.Parallel()

	rs := decode(t, []byte(`rules:
  - test: go test ./...
    filename: go.mod
    exists: true
`))
	require.Len(t, rs.Rules, 1)

	js, err := json.Marshal(rs.Rules[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"test":"go test ./...","filename":"go.mod","exists":true}`, string(js))
	assert.Equal(t, `{"test":"go test ./...","filename":"go.mod","exists":true}`, string(js))

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	require.NoError(t, enc.Encode(rs.Rules[0].Fields()))
	require.NoError(t, enc.Close())
	assert.Equal(t, "test: go test ./...\nfilename: go.mod\nexists: true\n", buf.String())
}

func TestSchema(t *testing.T) {
	t.Parallel()

	data, err := rulesets.NewSchemaGenerator().Generate()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, rulesets.SchemaURL, schema["$id"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "apiVersion")
	assert.Contains(t, props, "kind")
	assert.Contains(t, props, "rules")

	for _, key := range []string{"filename", "exists", "grep", "jsonKeyExists", "yamlKeyExists", "match"} {
		assert.Contains(t, string(data), `"`+key+`"`)
	}
}
