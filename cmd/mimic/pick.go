package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/picker"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactively pick fragments and print the composed prompt",
	Long: `Choose a persona, then adjust the suggested skills, contexts, tones and constraints.
The picker draws on stderr so the composed prompt can be piped from stdout.`,
	Example: `  mimic pick > prompt.md
  mimic pick | pbcopy`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		snap, err := loadSnapshot(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load fragments")
			os.Exit(1)
		}

		prompt, err := picker.Run(ctx, snap, tea.WithOutput(os.Stderr))
		if errors.Is(err, picker.ErrCancelled) {
			return
		}
		if err != nil {
			presenter.Error(err, "Failed to compose prompt")
			os.Exit(1)
		}
		fmt.Println(prompt)
	},
}
