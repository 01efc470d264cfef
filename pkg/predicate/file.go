package predicate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/macropower/gumshoe/pkg/log"
)

// Exists checks whether the rule filename matched anything.
//
// Exists(false) is an assertion rather than a filter: if the filename
// matches, evaluation fails with [ErrAssertionViolation].
type Exists bool

// Kind implements [Predicate].
func (Exists) Kind() Kind { return KindExists }

// Value implements [Predicate].
func (p Exists) Value() any { return bool(p) }

// Eval implements [Predicate].
func (p Exists) Eval(_ context.Context, t *Target) (bool, error) {
	present := t.Present()
	if bool(p) {
		return present, nil
	}

	if present {
		return false, fmt.Errorf("%w: %q matched %q", ErrAssertionViolation, t.Name, t.Path())
	}

	return true, nil
}

// IsFile checks whether the first match is (or is not) a regular file.
// It never holds for an absent target.
type IsFile bool

// Kind implements [Predicate].
func (IsFile) Kind() Kind { return KindIsFile }

// Value implements [Predicate].
func (p IsFile) Value() any { return bool(p) }

// Eval implements [Predicate].
func (p IsFile) Eval(ctx context.Context, t *Target) (bool, error) {
	info, ok := stat(ctx, t)
	if !ok {
		return false, nil
	}

	return info.Mode().IsRegular() == bool(p), nil
}

// IsDir checks whether the first match is (or is not) a directory.
// It never holds for an absent target.
type IsDir bool

// Kind implements [Predicate].
func (IsDir) Kind() Kind { return KindIsDir }

// Value implements [Predicate].
func (p IsDir) Value() any { return bool(p) }

// Eval implements [Predicate].
func (p IsDir) Eval(ctx context.Context, t *Target) (bool, error) {
	info, ok := stat(ctx, t)
	if !ok {
		return false, nil
	}

	return info.IsDir() == bool(p), nil
}

func stat(ctx context.Context, t *Target) (fs.FileInfo, bool) {
	if !t.Present() {
		return nil, false
	}

	info, err := t.Info()
	if err != nil {
		log.WithContext(ctx).Debug("stat failed, treating as no match",
			slog.String("path", t.Path()),
			slog.Any("err", err),
		)

		return nil, false
	}

	return info, true
}
