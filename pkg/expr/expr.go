package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// ErrNotBool indicates that an expression did not evaluate to a boolean.
var ErrNotBool = errors.New("expression did not return a bool")

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates a new [Environment] with the `files` and `dir`
// variables declared.
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := createEnvironment(opts...)
	if err != nil {
		return nil, err
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

func createEnvironment(opts ...cel.EnvOption) (*cel.Env, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	opts = append(opts,
		cel.Variable("files", cel.ListType(cel.StringType)),
		cel.Variable("dir", cel.StringType),
		cel.Lib(&lib{}),
	)

	celEnv, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return celEnv, nil
}

// Compile compiles a CEL expression and returns a program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// Matcher is a compiled boolean expression over a set of matched files.
type Matcher struct {
	program    cel.Program
	expression string
}

// NewMatcher compiles expression in env.
func NewMatcher(env *Environment, expression string) (*Matcher, error) {
	program, err := env.Compile(expression)
	if err != nil {
		return nil, err
	}

	return &Matcher{program: program, expression: expression}, nil
}

// String returns the source expression.
func (m *Matcher) String() string {
	return m.expression
}

// Match evaluates the expression. Evaluation errors and non-boolean results
// are returned as errors; callers treat both as a non-match.
func (m *Matcher) Match(dir string, files []string) (bool, error) {
	if files == nil {
		files = []string{}
	}

	result, _, err := m.program.Eval(map[string]any{
		"files": files,
		"dir":   dir,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", m.expression, err)
	}

	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %s", ErrNotBool, m.expression, result.Type().TypeName())
	}

	return b, nil
}
