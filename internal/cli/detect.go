package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/macropower/gumshoe/api"
	"github.com/macropower/gumshoe/api/v1beta1/rulesets"
	"github.com/macropower/gumshoe/pkg/config"
	"github.com/macropower/gumshoe/pkg/engine"
	"github.com/macropower/gumshoe/pkg/fsys"
)

const (
	cmdExamples = `  # Detect the project in the current directory:
  gumshoe

  # Detect a specific directory and print YAML:
  gumshoe ./services/api -o yaml

  # Report every matching rule, not just the first:
  gumshoe --all

  # Use a custom rules file:
  gumshoe --rules ./rules.yaml

  # Write the default rules to the user config directory:
  gumshoe --write-rules`
)

var ErrInvalidFlag = errors.New("invalid flag value")

type DetectArgs struct {
	*RootArgs

	Path           string
	RulesPath      string
	Output         string
	MaxReadSize    string
	Concurrency    int
	RuleTimeout    time.Duration
	Timeout        time.Duration
	All            bool
	NoProjectRules bool
	WriteRules     bool
	Force          bool
	ShowRules      bool
}

func NewDetectArgs(rootArgs *RootArgs) *DetectArgs {
	return &DetectArgs{
		RootArgs: rootArgs,
	}
}

func (da *DetectArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&da.RulesPath, "rules", "r", "", "Path to a rules file, overriding project and user rules")
	cmd.Flags().StringVarP(&da.Output, "output", "o", string(OutputAuto),
		fmt.Sprintf("Output format, one of: %s", AllOutputs))
	cmd.Flags().StringVar(&da.MaxReadSize, "max-read-size", "10MiB", "Largest file that content predicates will read")
	cmd.Flags().IntVarP(&da.Concurrency, "concurrency", "c", 0, "Maximum rules evaluated at once, 0 for no limit")
	cmd.Flags().DurationVar(&da.RuleTimeout, "rule-timeout", 0, "Time limit for each rule, 0 for no limit")
	cmd.Flags().DurationVar(&da.Timeout, "timeout", 0, "Time limit for the whole run, 0 for no limit")
	cmd.Flags().BoolVarP(&da.All, "all", "a", false, "Report every matching rule instead of only the first")
	cmd.Flags().BoolVar(&da.NoProjectRules, "no-project-rules", false, "Ignore rules files found in the target directory")
	cmd.Flags().BoolVar(&da.WriteRules, "write-rules", false, "Write the default rules file and exit")
	cmd.Flags().BoolVar(&da.Force, "force", false, "Overwrite an existing rules file when used with --write-rules")
	cmd.Flags().BoolVar(&da.ShowRules, "show-rules", false, "Print the active rules and exit")

	must(cmd.MarkFlagFilename("rules", "yaml", "yml"))
	must(cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(AllOutputs, cobra.ShellCompDirectiveNoFileComp),
	))
}

func NewDetectCmd(da *DetectArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "detect [path]",
		Short:   "Default command, can be used explicitly if path is ambiguous",
		Example: cmdExamples,
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return nil, cobra.ShellCompDirectiveFilterDirs
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			da.Path = "."
			if len(args) > 0 {
				da.Path = args[0]
			}

			return detect(cmd, da)
		},
	}
	da.AddFlags(cmd)

	return cmd
}

func detect(cmd *cobra.Command, da *DetectArgs) error {
	if da.WriteRules {
		return rulesets.WriteDefault(api.GetConfigPath(rulesets.FileName), da.Force)
	}

	out, err := newPrinter(cmd.OutOrStdout(), da.Output)
	if err != nil {
		return err
	}

	maxReadSize, err := parseSize(da.MaxReadSize)
	if err != nil {
		return err
	}

	info, err := os.Stat(da.Path)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrInvalidFlag, da.Path)
	}

	opts := []config.RulesOpt{
		config.WithLoaderOpts(config.WithColoredErrors(out.colored)),
	}
	if da.RulesPath != "" {
		opts = append(opts, config.WithRulesFile(da.RulesPath))
	}

	if da.NoProjectRules {
		opts = append(opts, config.WithoutProjectRules())
	}

	rules, err := config.LoadRules(da.Path, opts...)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	slog.Info("using rules",
		slog.String("source", string(rules.Kind)),
		slog.String("path", rules.Path),
		slog.Int("count", len(rules.Rules)),
	)

	if da.ShowRules {
		return out.printRules(rules.Rules)
	}

	f, err := fsys.OpenDir(da.Path, fsys.WithMaxReadSize(maxReadSize))
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only.

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if da.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, da.Timeout)
		defer cancel()
	}

	start := time.Now()

	res, err := engine.New(f,
		engine.WithConcurrency(da.Concurrency),
		engine.WithRuleTimeout(da.RuleTimeout),
	).Run(ctx, rules.Rules)
	if err != nil {
		return err //nolint:wrapcheck // Callers match engine errors.
	}

	slog.Debug("detection complete",
		slog.Int("matches", len(res.All)),
		slog.Duration("took", time.Since(start)),
	)

	if da.All {
		return out.printAll(res)
	}

	return out.printFirst(res)
}

func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: max-read-size: %w", ErrInvalidFlag, err)
	}

	//nolint:gosec // G115: sizes above 8 EiB are not meaningful here.
	return int64(n), nil
}
