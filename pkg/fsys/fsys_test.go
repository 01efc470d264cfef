package fsys_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/gumshoe/pkg/fsys"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"package.json":           {Data: []byte(`{"name":"app"}`)},
		"main.go":                {Data: []byte("package main")},
		"cmd/tool/main.go":       {Data: []byte("package main")},
		"docs/README.md":         {Data: []byte("# docs")},
		"testdata/empty.foobar":  {Data: []byte{}},
		"testdata/second.foobar": {Data: []byte("x")},
	}
}

func TestOpenDir(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup   func(t *testing.T) string
		wantErr bool
	}{
		"existing directory": {
			setup: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
		},
		"non-existent directory": {
			setup: func(t *testing.T) string {
				t.Helper()

				return "/nonexistent/path"
			},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := tc.setup(t)

			f, err := fsys.OpenDir(dir)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "open directory")
				assert.Nil(t, f)

				return
			}

			require.NoError(t, err)
			assert.Contains(t, f.Name(), filepath.Base(dir))
			require.NoError(t, f.Close())
		})
	}
}

func TestOpenDir_ReadsFromRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o750))

	f, err := fsys.OpenDir(dir)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	info, err := f.Stat("go.mod")
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())

	info, err = f.Stat("src")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := f.ReadFile("go.mod")
	require.NoError(t, err)
	assert.Equal(t, "module x", string(data))

	_, err = f.ReadFile("../escape")
	require.Error(t, err)
}

func TestFileSystem_Glob(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern string
		want    []string
	}{
		"single directory": {
			pattern: "*.go",
			want:    []string{"main.go"},
		},
		"recursive": {
			pattern: "**/*.go",
			want:    []string{"cmd/tool/main.go", "main.go"},
		},
		"alternation": {
			pattern: "*.{json,md}",
			want:    []string{"package.json"},
		},
		"lexical order": {
			pattern: "testdata/*.foobar",
			want:    []string{"testdata/empty.foobar", "testdata/second.foobar"},
		},
		"no matches": {
			pattern: "*.rs",
			want:    nil,
		},
	}

	f := fsys.New(testFS())

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := f.Glob(tc.pattern)
			require.NoError(t, err)

			if tc.want == nil {
				assert.Empty(t, got)
			} else {
				assert.ElementsMatch(t, tc.want, got)
			}
		})
	}
}

func TestFileSystem_ReadFile_MaxReadSize(t *testing.T) {
	t.Parallel()

	f := fsys.New(fstest.MapFS{
		"small.txt": {Data: []byte("ok")},
		"big.txt":   {Data: make([]byte, 2048)},
	}, fsys.WithMaxReadSize(1024))

	data, err := f.ReadFile("small.txt")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	_, err = f.ReadFile("big.txt")
	require.ErrorIs(t, err, fsys.ErrTooLarge)
	assert.Contains(t, err.Error(), "2.0 KiB")
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    string
		wantErr bool
	}{
		"plain":             {input: "package.json", want: "package.json"},
		"dot prefix":        {input: "./package.json", want: "package.json"},
		"nested":            {input: "src/main.go", want: "src/main.go"},
		"glob":              {input: "**/*.csproj", want: "**/*.csproj"},
		"empty":             {input: "", wantErr: true},
		"absolute":          {input: "/etc/passwd", wantErr: true},
		"parent":            {input: "../go.mod", wantErr: true},
		"unclosed bracket":  {input: "[abc", wantErr: true},
		"unclosed brace":    {input: "*.{json", wantErr: true},
		"trailing slash ok": {input: "src/", want: "src"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := fsys.CleanName(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, fsys.ErrInvalidPath)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	f := fsys.New(testFS())

	tests := map[string]struct {
		name string
		want []string
	}{
		"literal present":  {name: "package.json", want: []string{"package.json"}},
		"literal missing":  {name: "Cargo.toml"},
		"literal dir":      {name: "docs", want: []string{"docs"}},
		"pattern present":  {name: "testdata/*.foobar", want: []string{"testdata/empty.foobar", "testdata/second.foobar"}},
		"pattern no match": {name: "*.py"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := fsys.Resolve(f, tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, nilIfEmpty(got))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}

	return s
}
