package predicate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/macropower/gumshoe/pkg/expr"
	"github.com/macropower/gumshoe/pkg/log"
)

var defaultEnvironment = sync.OnceValues(func() (*expr.Environment, error) {
	return expr.NewEnvironment()
})

// Match checks a CEL expression against every entry matched by the rule
// filename. See [expr] for the variables and functions available.
type Match struct {
	m *expr.Matcher
}

// NewMatch compiles a CEL expression into a [Match].
func NewMatch(expression string) (*Match, error) {
	env, err := defaultEnvironment()
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	m, err := expr.NewMatcher(env, expression)
	if err != nil {
		return nil, errors.Join(ErrInvalidValue, err)
	}

	return &Match{m: m}, nil
}

// MustNewMatch creates a [Match] and panics on error.
func MustNewMatch(expression string) *Match {
	p, err := NewMatch(expression)
	if err != nil {
		panic(err)
	}

	return p
}

// Kind implements [Predicate].
func (*Match) Kind() Kind { return KindMatch }

// Value implements [Predicate].
func (p *Match) Value() any { return p.m.String() }

// Eval implements [Predicate].
func (p *Match) Eval(ctx context.Context, t *Target) (bool, error) {
	ok, err := p.m.Match(t.Dir, t.Matches)
	if err != nil {
		log.WithContext(ctx).Debug("match expression failed, treating as no match",
			slog.String("filename", t.Name),
			slog.Any("err", err),
		)

		return false, nil
	}

	return ok, nil
}
