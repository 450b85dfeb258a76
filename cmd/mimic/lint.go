package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/lint"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

// LintConfig holds configuration for the lint command
type LintConfig struct {
	ShowWarnings bool
	JSON         bool
}

// NewLintConfig creates a new LintConfig with default values
func NewLintConfig() *LintConfig {
	return &LintConfig{}
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check fragment documents for problems",
	Long: `Check every fragment document of every layer (built-in, global and project) for
malformed metadata, empty bodies, missing descriptions and other problems.

Exits with status 1 when any error is found. Warnings are hidden unless --warnings is given.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getLintConfigFromFlags(cmd)

		diags, err := lint.Run(ctx, registryOptions()...)
		if err != nil {
			presenter.Error(err, "Failed to lint fragments")
			os.Exit(1)
		}

		if config.JSON {
			if err := presenter.JSON(diags); err != nil {
				presenter.Error(err, "Failed to encode diagnostics")
				os.Exit(1)
			}
			for _, d := range diags {
				if d.Severity == lint.SeverityError {
					os.Exit(1)
				}
			}
			return
		}

		summary := lint.Report(cmd.OutOrStdout(), diags, config.ShowWarnings)
		if summary.Failed() {
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewLintConfig()
	lintCmd.Flags().BoolP("warnings", "w", defaults.ShowWarnings, "Show warnings as well as errors")
	lintCmd.Flags().Bool("json", defaults.JSON, "Print diagnostics as JSON")
}

func getLintConfigFromFlags(cmd *cobra.Command) *LintConfig {
	config := NewLintConfig()

	if show, err := cmd.Flags().GetBool("warnings"); err == nil {
		config.ShowWarnings = show
	}
	if asJSON, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = asJSON
	}

	return config
}
