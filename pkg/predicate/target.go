package predicate

import (
	"context"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/macropower/gumshoe/pkg/fsys"
	"github.com/macropower/gumshoe/pkg/log"
)

// Target is a rule filename resolved against a base directory. The stat and
// content of the first match are loaded at most once, on first use, and
// shared by every predicate of the rule.
type Target struct {
	fs      fsys.FS
	info    fs.FileInfo
	infoErr error
	readErr error

	// Dir is the name of the base directory.
	Dir string
	// Name is the cleaned rule filename.
	Name string
	// Matches holds every entry matched by Name, in expansion order.
	Matches []string

	content  []byte
	statOnce sync.Once
	readOnce sync.Once
}

// Resolve expands name against f. A name that matches nothing produces an
// absent [Target], not an error.
func Resolve(ctx context.Context, f fsys.FS, dir, name string) (*Target, error) {
	matches, err := fsys.Resolve(f, name)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	log.WithContext(ctx).Debug("resolved filename",
		slog.String("filename", name),
		slog.Int("matches", len(matches)),
	)

	return &Target{
		fs:      f,
		Dir:     dir,
		Name:    name,
		Matches: matches,
	}, nil
}

// Present reports whether the filename matched at least one entry.
func (t *Target) Present() bool {
	return len(t.Matches) > 0
}

// Path returns the first match, or an empty string if absent.
func (t *Target) Path() string {
	if !t.Present() {
		return ""
	}

	return t.Matches[0]
}

// Info returns the [fs.FileInfo] of the first match.
func (t *Target) Info() (fs.FileInfo, error) {
	if !t.Present() {
		return nil, fs.ErrNotExist
	}

	t.statOnce.Do(func() {
		t.info, t.infoErr = t.fs.Stat(t.Path())
	})

	return t.info, t.infoErr
}

// Content returns the full content of the first match.
func (t *Target) Content() ([]byte, error) {
	if !t.Present() {
		return nil, fs.ErrNotExist
	}

	t.readOnce.Do(func() {
		t.content, t.readErr = t.fs.ReadFile(t.Path())
	})

	return t.content, t.readErr
}
