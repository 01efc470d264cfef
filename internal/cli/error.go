package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"

	"github.com/macropower/gumshoe/pkg/config"
	"github.com/macropower/gumshoe/pkg/engine"
)

// ErrorHandler renders command errors for fang, followed by a hint when one
// applies.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))
	mustN(fmt.Fprintln(w, lipgloss.NewStyle().MarginLeft(2).Render(err.Error())))
	mustN(fmt.Fprintln(w))

	hint := errorHint(err)
	if hint == nil {
		return
	}

	parts := make([]string, 0, len(hint)+1)
	parts = append(parts, styles.ErrorText.UnsetWidth().Render("Try"))

	for i, h := range hint {
		if i%2 == 0 {
			parts = append(parts, styles.Program.Flag.Render(h))
		} else {
			parts = append(parts, styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render(h))
		}
	}

	mustN(fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Left, parts...)))
	mustN(fmt.Fprintln(w))
}

// errorHint returns alternating flag and text fragments.
func errorHint(err error) []string {
	switch {
	case isUsageError(err):
		return []string{"--help", "for usage."}
	case errors.Is(err, engine.ErrNoMatch):
		return []string{"--show-rules", "to list the active rules."}
	case errors.Is(err, config.ErrInvalidRules):
		return []string{"schema", "to print the rules file schema."}
	}

	return nil
}

// XXX: this is a hack to detect usage errors.
// See: https://github.com/spf13/cobra/pull/2266
func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"accepts at most",
	} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) {
	must(err)
}
