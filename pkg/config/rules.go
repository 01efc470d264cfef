package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/macropower/gumshoe/api"
	"github.com/macropower/gumshoe/api/v1beta1/rulesets"
	"github.com/macropower/gumshoe/pkg/rule"
)

// ErrInvalidRules indicates a rule set that failed to load.
var ErrInvalidRules = errors.New("invalid rules")

// SourceKind describes where a rule set came from.
type SourceKind string

const (
	SourceFile    SourceKind = "file"
	SourceProject SourceKind = "project"
	SourceUser    SourceKind = "user"
	SourceDefault SourceKind = "default"
)

// Rules is a loaded, compiled rule set.
type Rules struct {
	// Kind describes where the rules were loaded from.
	Kind SourceKind
	// Path is the file the rules were loaded from. It is empty for
	// [SourceDefault].
	Path string
	// Rules are the compiled rules, in declaration order.
	Rules []*rule.Rule
}

// RulesOpt configures [LoadRules].
type RulesOpt func(*rulesOptions)

type rulesOptions struct {
	file       string
	userPath   string
	loaderOpts []LoaderOpt
	noProject  bool
}

// WithRulesFile loads rules from path and nothing else.
func WithRulesFile(path string) RulesOpt {
	return func(o *rulesOptions) {
		o.file = path
	}
}

// WithUserRulesPath overrides the location of the user's rules file.
func WithUserRulesPath(path string) RulesOpt {
	return func(o *rulesOptions) {
		o.userPath = path
	}
}

// WithoutProjectRules disables the lookup of project rule files.
func WithoutProjectRules() RulesOpt {
	return func(o *rulesOptions) {
		o.noProject = true
	}
}

// WithLoaderOpts passes options to every [Loader] used.
func WithLoaderOpts(opts ...LoaderOpt) RulesOpt {
	return func(o *rulesOptions) {
		o.loaderOpts = append(o.loaderOpts, opts...)
	}
}

// LoadRules loads the rule set that applies to targetPath.
func LoadRules(targetPath string, opts ...RulesOpt) (*Rules, error) {
	options := &rulesOptions{
		userPath: api.GetConfigPath(rulesets.FileName),
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.file != "" {
		return loadRulesFile(SourceFile, options.file, options.loaderOpts)
	}

	if !options.noProject {
		projectPath, err := api.FindConfigFile(targetPath, rulesets.ProjectFileNames)
		if err != nil {
			return nil, fmt.Errorf("find project rules: %w", err)
		}

		if projectPath != "" {
			return loadRulesFile(SourceProject, projectPath, options.loaderOpts)
		}
	}

	_, err := os.Stat(options.userPath)
	switch {
	case err == nil:
		return loadRulesFile(SourceUser, options.userPath, options.loaderOpts)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("stat user rules: %w", err)
	}

	slog.Debug("using default rules")

	return loadRules(SourceDefault, "", rulesets.Default(), options.loaderOpts)
}

func loadRulesFile(kind SourceKind, path string, opts []LoaderOpt) (*Rules, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s rules: %w", kind, err)
	}

	return loadRules(kind, path, data, opts)
}

func loadRules(kind SourceKind, path string, data []byte, opts []LoaderOpt) (*Rules, error) {
	validator, err := rulesets.DefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("create rules validator: %w", err)
	}

	loader := NewLoaderFromBytes(data, rulesets.New, validator, opts...)

	err = loader.Validate()
	if err != nil {
		return nil, wrapRulesError(path, err)
	}

	rs, err := loader.Load()
	if err != nil {
		return nil, wrapRulesError(path, err)
	}

	rules, err := rs.Compile()
	if err != nil {
		return nil, wrapRulesError(path, err)
	}

	slog.Debug("loaded rules",
		slog.String("source", string(kind)),
		slog.String("path", path),
		slog.Int("rules", len(rules)),
	)

	return &Rules{Kind: kind, Path: path, Rules: rules}, nil
}

func wrapRulesError(path string, err error) error {
	if path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrInvalidRules, path, err)
}
