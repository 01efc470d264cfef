package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/gumshoe/pkg/fsys"
	"github.com/macropower/gumshoe/pkg/log"
	"github.com/macropower/gumshoe/pkg/predicate"
	"github.com/macropower/gumshoe/pkg/rule"
)

var (
	// ErrNoMatch is returned when no rule matched. Runs that fail because of
	// an `exists: false` assertion also match this error, along with
	// [predicate.ErrAssertionViolation].
	ErrNoMatch = errors.New("no rules matched")
	// ErrConfiguration is returned when a rule cannot be evaluated.
	ErrConfiguration = errors.New("invalid rule configuration")
)

// Engine evaluates rules against a filesystem.
type Engine struct {
	fs          fsys.FS
	tracer      trace.Tracer
	dir         string
	concurrency int
	ruleTimeout time.Duration
}

// Opt configures an [Engine].
type Opt func(*Engine)

// WithConcurrency limits the number of rules evaluated at once. A value of
// zero or less means no limit.
func WithConcurrency(n int) Opt {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithRuleTimeout bounds the evaluation of each rule. A rule that runs out
// of time does not match. Zero disables the timeout.
func WithRuleTimeout(d time.Duration) Opt {
	return func(e *Engine) {
		e.ruleTimeout = d
	}
}

// WithDir sets the directory name exposed to `match` expressions as `dir`.
func WithDir(dir string) Opt {
	return func(e *Engine) {
		e.dir = dir
	}
}

// New creates a new [Engine] that reads from f.
func New(f fsys.FS, opts ...Opt) *Engine {
	e := &Engine{
		fs:     f,
		dir:    ".",
		tracer: otel.Tracer("gumshoe-engine"),
	}

	if named, ok := f.(interface{ Name() string }); ok {
		e.dir = named.Name()
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Outcome is the result of evaluating a single rule.
type Outcome struct {
	// Rule is the evaluated rule.
	Rule *rule.Rule
	// Result is the projected metadata, or nil if the rule did not match.
	Result *rule.Metadata
	// Index is the rule's position in the input.
	Index int
}

// Matched reports whether the rule matched.
func (o Outcome) Matched() bool {
	return o.Result != nil
}

// Result holds the outcome of every rule, in declaration order.
type Result struct {
	// First is the metadata of the first matching rule.
	First *rule.Metadata
	// All holds the metadata of every matching rule, in declaration order.
	All []*rule.Metadata
	// Outcomes holds one entry per input rule, in declaration order.
	Outcomes []Outcome
}

// Run evaluates rules concurrently and selects the matches.
//
// Rules without a filename fail the run with [ErrConfiguration] before any
// filesystem access. If no rule matches, Run returns [ErrNoMatch].
func (e *Engine) Run(ctx context.Context, rules []*rule.Rule) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("dir", e.dir),
		attribute.Int("rules", len(rules)),
	))
	defer span.End()

	err := validate(rules)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	slots := make([]Outcome, len(rules))

	g, gctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}

	for i, r := range rules {
		g.Go(func() error {
			result, err := e.evaluate(gctx, i, r)
			if err != nil {
				return err
			}

			slots[i] = Outcome{Index: i, Rule: r, Result: result}

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	res := selectMatches(slots)
	if res.First == nil {
		span.SetStatus(codes.Error, ErrNoMatch.Error())

		return nil, ErrNoMatch
	}

	span.SetAttributes(attribute.Int("matches", len(res.All)))

	return res, nil
}

// Run evaluates rules against baseDir. It is a shorthand for opening the
// directory with [fsys.OpenDir] and calling [Engine.Run].
func Run(ctx context.Context, baseDir string, rules []*rule.Rule, opts ...Opt) (*Result, error) {
	err := validate(rules)
	if err != nil {
		return nil, err
	}

	f, err := fsys.OpenDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("open base directory: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only.

	return New(f, opts...).Run(ctx, rules)
}

func validate(rules []*rule.Rule) error {
	for i, r := range rules {
		if r == nil {
			return fmt.Errorf("%w: rule %d: %w", ErrConfiguration, i, rule.ErrMissingFilename)
		}

		err := r.Validate()
		if err != nil {
			return fmt.Errorf("%w: rule %d: %w", ErrConfiguration, i, err)
		}
	}

	return nil
}

// evaluate returns the projected metadata of r, or nil if r does not match.
// Only hard failures are returned as errors.
func (e *Engine) evaluate(ctx context.Context, idx int, r *rule.Rule) (*rule.Metadata, error) {
	ctx, span := e.tracer.Start(ctx, "rule", trace.WithAttributes(
		attribute.Int("index", idx),
		attribute.String("filename", r.Filename),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(
		slog.Int("rule", idx),
		slog.String("filename", r.Filename),
	)
	ctx = log.NewContext(ctx, logger)

	parent := ctx
	if e.ruleTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.ruleTimeout)
		defer cancel()
	}

	ok, err := e.match(ctx, r)

	switch {
	case err == nil:
	case parent.Err() != nil:
		// A sibling failed, or the caller canceled the run.
		return nil, parent.Err() //nolint:wrapcheck // Return the context error.
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("rule timed out, treating as no match", slog.Duration("timeout", e.ruleTimeout))

		return nil, nil
	case errors.Is(err, predicate.ErrAssertionViolation):
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("%w: rule %d: %w", ErrNoMatch, idx, err)
	default:
		logger.Debug("rule failed, treating as no match", slog.Any("err", err))

		return nil, nil
	}

	span.SetAttributes(attribute.Bool("matched", ok))
	logger.Debug("evaluated rule", slog.Bool("matched", ok))

	if !ok {
		return nil, nil
	}

	return r.Result(), nil
}

func (e *Engine) match(ctx context.Context, r *rule.Rule) (bool, error) {
	err := ctx.Err()
	if err != nil {
		return false, err //nolint:wrapcheck // Return the context error.
	}

	t, err := predicate.Resolve(ctx, e.fs, e.dir, r.Name())
	if err != nil {
		return false, err //nolint:wrapcheck // Already wrapped.
	}

	// Rules built as literals may not be sorted yet.
	preds := slices.Clone(r.Predicates)
	predicate.Sort(preds)

	ok, err := predicate.Evaluate(ctx, t, preds)
	if err != nil {
		return false, err //nolint:wrapcheck // Already wrapped.
	}

	// A result that arrives after the deadline is discarded.
	err = ctx.Err()
	if err != nil {
		return false, err //nolint:wrapcheck // Return the context error.
	}

	return ok, nil
}

// selectMatches derives the first and all matches from slots, which must be
// in declaration order.
func selectMatches(slots []Outcome) *Result {
	res := &Result{Outcomes: slots}

	for _, o := range slots {
		if !o.Matched() {
			continue
		}

		if res.First == nil {
			res.First = o.Result
		}

		res.All = append(res.All, o.Result)
	}

	return res
}
