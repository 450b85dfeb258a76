package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the fragment metadata block",
	Long: `Print the JSON Schema describing the metadata block at the top of a fragment
document. Point a YAML language server at it for editor completion and validation.`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		if err := presenter.JSON(fragments.MetadataSchema()); err != nil {
			presenter.Error(err, "Failed to encode schema")
			os.Exit(1)
		}
	},
}
