package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
)

var (
	// ErrInvalidPath indicates that a rule filename cannot be used.
	ErrInvalidPath = errors.New("invalid path")
	// ErrTooLarge indicates that a file exceeds the configured read limit.
	ErrTooLarge = errors.New("file too large")
)

// FS is the set of filesystem operations needed to evaluate rules.
type FS interface {
	// Stat returns a [fs.FileInfo] describing the named file.
	Stat(name string) (fs.FileInfo, error)
	// Glob returns the names of all files matching pattern, in lexical
	// walk order. A pattern matching nothing returns an empty slice.
	Glob(pattern string) ([]string, error)
	// ReadFile reads the whole named file.
	ReadFile(name string) ([]byte, error)
}

// Opt configures a [FileSystem].
type Opt func(*FileSystem)

// WithMaxReadSize limits [FileSystem.ReadFile] to files of at most n bytes.
// A value of zero disables the limit.
func WithMaxReadSize(n int64) Opt {
	return func(f *FileSystem) {
		f.maxReadSize = n
	}
}

// WithName sets the name reported by [FileSystem.Name].
func WithName(name string) Opt {
	return func(f *FileSystem) {
		f.name = name
	}
}

// FileSystem implements [FS] on top of an [fs.FS].
type FileSystem struct {
	fsys        fs.FS
	root        *os.Root // Set when opened with OpenDir.
	name        string
	maxReadSize int64
}

// New creates a new [FileSystem] backed by fsys.
func New(fsys fs.FS, opts ...Opt) *FileSystem {
	f := &FileSystem{
		fsys: fsys,
		name: ".",
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// OpenDir opens dirPath as an [os.Root] and returns a [FileSystem] rooted
// there. The caller must call [FileSystem.Close] when done.
func OpenDir(dirPath string, opts ...Opt) (*FileSystem, error) {
	root, err := os.OpenRoot(dirPath)
	if err != nil {
		return nil, fmt.Errorf("open directory %q: %w", dirPath, err)
	}

	opts = append([]Opt{WithName(root.Name())}, opts...)

	f := New(root.FS(), opts...)
	f.root = root

	return f, nil
}

// Close releases the underlying [os.Root], if any.
func (f *FileSystem) Close() error {
	if f.root == nil {
		return nil
	}

	return f.root.Close() //nolint:wrapcheck // Return the original error.
}

// Name returns the name of the base directory.
func (f *FileSystem) Name() string {
	return f.name
}

// Stat implements [FS].
func (f *FileSystem) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(f.fsys, name) //nolint:wrapcheck // Callers check fs.ErrNotExist.
}

// Glob implements [FS].
func (f *FileSystem) Glob(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(f.fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	return matches, nil
}

// ReadFile implements [FS].
func (f *FileSystem) ReadFile(name string) ([]byte, error) {
	if f.maxReadSize > 0 {
		info, err := fs.Stat(f.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("stat file: %w", err)
		}

		if info.Size() > f.maxReadSize {
			return nil, fmt.Errorf("%w: %s is %s, limit is %s", ErrTooLarge, name,
				humanize.IBytes(uint64(info.Size())),  //nolint:gosec // G115: size is positive here.
				humanize.IBytes(uint64(f.maxReadSize)), //nolint:gosec // G115: limit is positive here.
			)
		}
	}

	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// IsPattern reports whether name contains glob metacharacters.
func IsPattern(name string) bool {
	return strings.ContainsAny(name, `*?[{\`)
}

// CleanName normalizes a rule filename into a slash-separated path relative
// to the base directory, and checks that glob patterns are well formed.
func CleanName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty filename", ErrInvalidPath)
	}

	cleaned := path.Clean(filepath.ToSlash(name))
	if !fs.ValidPath(cleaned) {
		return "", fmt.Errorf("%w: %q must be relative to the base directory", ErrInvalidPath, name)
	}

	if IsPattern(cleaned) && !doublestar.ValidatePattern(cleaned) {
		return "", fmt.Errorf("%w: %q is not a valid glob pattern", ErrInvalidPath, name)
	}

	return cleaned, nil
}

// Resolve returns the entries named by a cleaned rule filename, in glob
// expansion order. Literal names are checked with a single stat. A name that
// matches nothing yields an empty slice and no error.
func Resolve(f FS, name string) ([]string, error) {
	if IsPattern(name) {
		return f.Glob(name) //nolint:wrapcheck // Already wrapped.
	}

	_, err := f.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", name, err)
	}

	return []string{name}, nil
}
