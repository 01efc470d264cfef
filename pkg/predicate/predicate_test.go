package predicate_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/gumshoe/pkg/fsys"
	"github.com/macropower/gumshoe/pkg/predicate"
)

func target(t *testing.T, files fstest.MapFS, name string) *predicate.Target {
	t.Helper()

	tgt, err := predicate.Resolve(t.Context(), fsys.New(files), ".", name)
	require.NoError(t, err)

	return tgt
}

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func TestReservedKeys(t *testing.T) {
	t.Parallel()

	keys := predicate.ReservedKeys()
	assert.Equal(t, predicate.FilenameKey, keys[0])

	for _, k := range []string{"filename", "exists", "isFile", "isDir", "grep", "jsonKeyExists", "yamlKeyExists", "match"} {
		assert.Contains(t, keys, k)
		assert.True(t, predicate.IsReserved(k), k)
	}

	for _, k := range []string{"tag", "name", "Exists", ""} {
		assert.False(t, predicate.IsReserved(k), k)
	}
}

func TestSort(t *testing.T) {
	t.Parallel()

	preds := []predicate.Predicate{
		predicate.MustNewGrep("a"),
		predicate.MustNewJSONKeyExists("b"),
		predicate.IsFile(true),
		predicate.MustNewMatch("true"),
		predicate.Exists(false),
	}

	predicate.Sort(preds)

	kinds := make([]predicate.Kind, 0, len(preds))
	for _, p := range preds {
		kinds = append(kinds, p.Kind())
	}

	assert.Equal(t, []predicate.Kind{
		predicate.KindExists,
		predicate.KindIsFile,
		predicate.KindMatch,
		predicate.KindGrep,
		predicate.KindJSONKeyExists,
	}, kinds)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"main.go": file("package main")}

	tcs := map[string]struct {
		name    string
		preds   []predicate.Predicate
		want    bool
		wantErr error
	}{
		"empty never matches": {
			name: "main.go",
		},
		"all hold": {
			name:  "main.go",
			preds: []predicate.Predicate{predicate.Exists(true), predicate.IsFile(true), predicate.MustNewGrep("main")},
			want:  true,
		},
		"one fails": {
			name:  "main.go",
			preds: []predicate.Predicate{predicate.Exists(true), predicate.MustNewGrep("nope")},
		},
		"absent target with exists false": {
			name:  "*.py",
			preds: []predicate.Predicate{predicate.Exists(false)},
			want:  true,
		},
		"absent target with content predicate": {
			name:  "missing.json",
			preds: []predicate.Predicate{predicate.Exists(false), predicate.MustNewJSONKeyExists("a")},
		},
		"absent target with type predicate": {
			name:  "missing",
			preds: []predicate.Predicate{predicate.IsFile(false)},
		},
		"assertion violation": {
			name:    "*.go",
			preds:   []predicate.Predicate{predicate.Exists(false)},
			wantErr: predicate.ErrAssertionViolation,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := predicate.Evaluate(t.Context(), target(t, files, tc.name), tc.preds)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.ErrorContains(t, err, "exists:")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTypePredicates(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"src/index.js": file("")}

	dir := target(t, files, "src")
	reg := target(t, files, "src/index.js")

	tcs := map[string]struct {
		pred predicate.Predicate
		tgt  *predicate.Target
		want bool
	}{
		"isDir on dir":         {pred: predicate.IsDir(true), tgt: dir, want: true},
		"isDir on file":        {pred: predicate.IsDir(true), tgt: reg},
		"not isDir on file":    {pred: predicate.IsDir(false), tgt: reg, want: true},
		"isFile on file":       {pred: predicate.IsFile(true), tgt: reg, want: true},
		"isFile on dir":        {pred: predicate.IsFile(true), tgt: dir},
		"not isFile on dir":    {pred: predicate.IsFile(false), tgt: dir, want: true},
		"exists on dir":        {pred: predicate.Exists(true), tgt: dir, want: true},
		"exists on file":       {pred: predicate.Exists(true), tgt: reg, want: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.pred.Eval(t.Context(), tc.tgt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		value   any
		key     string
		wantErr bool
	}{
		"bool exists":        {key: "exists", value: true},
		"string exists":      {key: "exists", value: "yes", wantErr: true},
		"string grep":        {key: "grep", value: "/a/i"},
		"bad grep":           {key: "grep", value: "(", wantErr: true},
		"empty grep":         {key: "grep", value: "", wantErr: true},
		"int grep":           {key: "grep", value: 1, wantErr: true},
		"json path":          {key: "jsonKeyExists", value: "a.b"},
		"empty json path":    {key: "jsonKeyExists", value: "", wantErr: true},
		"yaml path":          {key: "yamlKeyExists", value: "a.b"},
		"match":              {key: "match", value: `files.exists(f, f.endsWith(".go"))`},
		"match not compiled": {key: "match", value: `files.(`, wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			spec, ok := predicate.Lookup(tc.key)
			require.True(t, ok)

			p, err := spec.Decode(tc.value)
			if tc.wantErr {
				require.ErrorIs(t, err, predicate.ErrInvalidValue)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, predicate.Kind(tc.key), p.Kind())
			assert.Equal(t, tc.value, p.Value())
		})
	}
}
