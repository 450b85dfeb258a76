package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/compose"
	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

var showCmd = &cobra.Command{
	Use:               "show <category> <name>",
	Short:             "Show a single fragment",
	Long:              `Print a fragment's metadata and body, including which layer it came from.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeCategoryAndName,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cat, ok := fragments.ParseCategory(args[0])
		if !ok {
			presenter.Error(errors.Errorf("unknown category '%s'", args[0]), "Invalid category")
			os.Exit(1)
		}

		snap, err := loadSnapshot(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load fragments")
			os.Exit(1)
		}

		f, err := snap.MustGet(cat, args[1])
		if err != nil {
			presenter.Error(err, "Fragment not found")
			os.Exit(1)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			if err := presenter.JSON(f); err != nil {
				presenter.Error(err, "Failed to encode fragment")
				os.Exit(1)
			}
			return
		}

		presenter.Section(f.ID())
		presenter.Print(describeFragment(f))
		presenter.Separator()
		if render, _ := cmd.Flags().GetBool("render"); render {
			styled, err := compose.RenderTerminal(f.Body, 0)
			if err != nil {
				presenter.Error(err, "Failed to render fragment")
				os.Exit(1)
			}
			presenter.Print(styled)
			return
		}
		presenter.Print(f.Body)
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "Print the fragment as JSON")
	showCmd.Flags().Bool("render", false, "Style the body for reading in the terminal")
}

func describeFragment(f *fragments.Fragment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Origin:      %s\n", f.Origin)
	fmt.Fprintf(&b, "Description: %s\n", f.Description)
	if len(f.Tags) > 0 {
		fmt.Fprintf(&b, "Tags:        %s\n", strings.Join(f.Tags, ", "))
	}
	if f.Group != "" {
		fmt.Fprintf(&b, "Group:       %s\n", f.Group)
	}
	if f.Level != "" {
		fmt.Fprintf(&b, "Level:       %s\n", f.Level)
	}
	if len(f.SkillGroups) > 0 {
		fmt.Fprintf(&b, "Skill groups: %s\n", strings.Join(f.SkillGroups, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
