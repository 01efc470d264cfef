package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/gumshoe/api/v1beta1/rulesets"
)

// NewSchemaCmd creates the command that prints the rules file JSON schema.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for rules files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := rulesets.NewSchemaGenerator().Generate()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(b)
			if err != nil {
				return fmt.Errorf("write schema: %w", err)
			}

			return nil
		},
	}
}
