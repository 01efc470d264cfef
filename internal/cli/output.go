package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/macropower/gumshoe/pkg/engine"
	"github.com/macropower/gumshoe/pkg/rule"
	"github.com/macropower/gumshoe/pkg/yaml"
)

// Output is a result output format.
type Output string

const (
	OutputAuto Output = "auto"
	OutputJSON Output = "json"
	OutputYAML Output = "yaml"
	OutputText Output = "text"
)

var AllOutputs = []string{
	string(OutputAuto),
	string(OutputJSON),
	string(OutputYAML),
	string(OutputText),
}

type printer struct {
	w        io.Writer
	keyStyle lipgloss.Style
	dimStyle lipgloss.Style
	format   Output
	colored  bool
}

// newPrinter resolves [OutputAuto] to text when w is a terminal, and to JSON
// otherwise.
func newPrinter(w io.Writer, format string) (*printer, error) {
	out := Output(strings.ToLower(format))
	if !slices.Contains(AllOutputs, string(out)) {
		return nil, fmt.Errorf("%w: output: %q", ErrInvalidFlag, format)
	}

	tty := isTerminal(w)
	if out == OutputAuto {
		out = OutputJSON
		if tty {
			out = OutputText
		}
	}

	r := lipgloss.NewRenderer(w)

	return &printer{
		w:        w,
		format:   out,
		colored:  tty,
		keyStyle: r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}),
		dimStyle: r.NewStyle().Faint(true),
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd fits in int.
}

func (p *printer) printFirst(res *engine.Result) error {
	switch p.format {
	case OutputJSON:
		return p.writeJSON(res.First)
	case OutputYAML:
		return p.writeYAML(res.First)
	}

	for _, o := range res.Outcomes {
		if o.Matched() {
			return p.writeText(o)
		}
	}

	return nil
}

func (p *printer) printAll(res *engine.Result) error {
	switch p.format {
	case OutputJSON:
		return p.writeJSON(res.All)
	case OutputYAML:
		return p.writeYAML(res.All)
	}

	first := true

	for _, o := range res.Outcomes {
		if !o.Matched() {
			continue
		}

		if !first {
			mustN(fmt.Fprintln(p.w))
		}

		first = false

		err := p.writeText(o)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *printer) printRules(rules []*rule.Rule) error {
	fields := make([]*rule.Metadata, 0, len(rules))
	for _, r := range rules {
		fields = append(fields, r.Fields())
	}

	if p.format == OutputJSON {
		return p.writeJSON(fields)
	}

	return p.writeYAML(fields)
}

func (p *printer) writeJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	_, err = fmt.Fprintln(p.w, string(b))
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func (p *printer) writeYAML(v any) error {
	enc := yaml.NewEncoder(p.w)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func (p *printer) writeText(o engine.Outcome) error {
	_, err := fmt.Fprintln(p.w, p.dimStyle.Render(fmt.Sprintf("rule %d: %s", o.Index, o.Rule.Filename)))
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	for pair := o.Result.Oldest(); pair != nil; pair = pair.Next() {
		value, err := formatValue(pair.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", pair.Key, err)
		}

		_, err = fmt.Fprintf(p.w, "%s %s\n", p.keyStyle.Render(pair.Key+":"), value)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	return nil
}

// formatValue prints scalars as they are, and records or sequences as
// single-line YAML.
func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return val, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(val), nil
	}

	return yaml.MarshalFlow(v) //nolint:wrapcheck // Already wrapped.
}
