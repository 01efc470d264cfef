package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/macropower/gumshoe/pkg/predicate"
	"github.com/macropower/gumshoe/pkg/rule"
)

func record(kv ...any) *rule.Metadata {
	m := orderedmap.New[string, any]()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("record keys must be strings")
		}

		m.Set(key, kv[i+1])
	}

	return m
}

func keys(m *rule.Metadata) []string {
	out := []string{}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}

	return out
}

func TestProject(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   *rule.Metadata
		want []string
	}{
		"strips reserved keys": {
			in:   record("filename", "f", "exists", true, "grep", "x", "jsonKeyExists", "a", "tag", "X"),
			want: []string{"tag"},
		},
		"keeps order": {
			in:   record("z", 1, "filename", "f", "a", 2, "isDir", true, "m", 3),
			want: []string{"z", "a", "m"},
		},
		"only reserved": {
			in:   record("filename", "f", "exists", true),
			want: []string{},
		},
		"nil": {
			want: []string{},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := rule.Project(tc.in)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, keys(got))
		})
	}
}

func TestProject_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := record("filename", "f", "tag", "X")
	out := rule.Project(in)
	out.Set("tag", "Y")

	assert.Equal(t, []string{"filename", "tag"}, keys(in))

	v, _ := in.Get("tag")
	assert.Equal(t, "X", v)
}

func TestParse(t *testing.T) {
	t.Parallel()

	r, err := rule.Parse(record(
		"framework", "express",
		"filename", "package.json",
		"jsonKeyExists", "dependencies.express",
		"exists", true,
		"language", "javascript",
	))
	require.NoError(t, err)

	assert.Equal(t, "package.json", r.Filename)
	require.Len(t, r.Predicates, 2)
	assert.Equal(t, predicate.KindExists, r.Predicates[0].Kind())
	assert.Equal(t, predicate.KindJSONKeyExists, r.Predicates[1].Kind())

	assert.Equal(t, []string{"framework", "language"}, keys(r.Result()))
	assert.Equal(t, keys(rule.Project(r.Fields())), keys(r.Result()))
	assert.Equal(t, []string{"framework", "filename", "jsonKeyExists", "exists", "language"}, keys(r.Fields()))
}

func TestRule_Fields(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		build func(t *testing.T) *rule.Rule
		want  []string
	}{
		"parsed keeps declaration order": {
			build: func(t *testing.T) *rule.Rule {
				t.Helper()

				r, err := rule.Parse(record(
					"grep", "^module",
					"zeta", 1,
					"alpha", 2,
					"exists", true,
					"filename", "go.mod",
				))
				require.NoError(t, err)

				return r
			},
			want: []string{"grep", "zeta", "alpha", "exists", "filename"},
		},
		"built with options": {
			build: func(t *testing.T) *rule.Rule {
				t.Helper()

				return rule.MustNew("go.mod",
					rule.WithMetadata("language", "go"),
					rule.WithPredicates(predicate.MustNewGrep("^module"), predicate.Exists(true)),
				)
			},
			want: []string{"filename", "language", "grep", "exists"},
		},
		"literal": {
			build: func(*testing.T) *rule.Rule {
				return &rule.Rule{
					Filename:   "go.mod",
					Predicates: []predicate.Predicate{predicate.MustNewGrep("^module"), predicate.Exists(true)},
				}
			},
			want: []string{"filename", "grep", "exists"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, keys(tc.build(t).Fields()))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in      *rule.Metadata
		wantErr error
	}{
		"missing filename": {
			in:      record("exists", true),
			wantErr: rule.ErrMissingFilename,
		},
		"empty filename": {
			in:      record("filename", "", "exists", true),
			wantErr: rule.ErrMissingFilename,
		},
		"non-string filename": {
			in:      record("filename", 1),
			wantErr: rule.ErrInvalidRule,
		},
		"absolute filename": {
			in:      record("filename", "/etc/passwd"),
			wantErr: rule.ErrInvalidRule,
		},
		"bad predicate value": {
			in:      record("filename", "f", "exists", "yes"),
			wantErr: predicate.ErrInvalidValue,
		},
		"bad glob": {
			in:      record("filename", "[a"),
			wantErr: rule.ErrInvalidRule,
		},
		"nil": {
			wantErr: rule.ErrMissingFilename,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := rule.Parse(tc.in)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := rule.New("./src/../go.mod",
		rule.WithPredicates(predicate.MustNewGrep("^module"), predicate.Exists(true)),
		rule.WithMetadata("language", "go"),
	)
	require.NoError(t, err)

	assert.Equal(t, "go.mod", r.Name())
	assert.Equal(t, predicate.KindExists, r.Predicates[0].Kind())
	assert.Equal(t, `filename="./src/../go.mod" exists=true grep=^module`, r.String())

	_, err = rule.New("go.mod", rule.WithMetadata("grep", "x"))
	require.ErrorIs(t, err, rule.ErrInvalidRule)

	assert.Panics(t, func() {
		rule.MustNew("")
	})
}

func TestRule_Result(t *testing.T) {
	t.Parallel()

	r := rule.MustNew("f", rule.WithMetadata("tag", "X"))

	first := r.Result()
	first.Set("tag", "Y")
	first.Set("extra", true)

	second := r.Result()
	v, _ := second.Get("tag")
	assert.Equal(t, "X", v)
	assert.Equal(t, []string{"tag"}, keys(second))

	var zero rule.Rule

	assert.NotNil(t, zero.Result())
	assert.Equal(t, 0, zero.Result().Len())
}
