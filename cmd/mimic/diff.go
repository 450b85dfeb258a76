package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

var diffCmd = &cobra.Command{
	Use:   "diff <category> <name>",
	Short: "Show how an overriding fragment differs from the one it replaces",
	Long: `When a global or project fragment overrides another with the same category and
name, print a unified diff from the replaced document to the winning one.
With --all every step of the override chain is shown, oldest first.`,
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

		winner, err := snap.MustGet(cat, args[1])
		if err != nil {
			presenter.Error(err, "Fragment not found")
			os.Exit(1)
		}

		chain := snap.Shadowed(cat, args[1])
		if len(chain) == 0 {
			presenter.Info(fmt.Sprintf("%s is not overriding anything (origin: %s)", winner.ID(), winner.Origin))
			return
		}

		all, _ := cmd.Flags().GetBool("all")
		if !all {
			chain = chain[len(chain)-1:]
		}
		chain = append(chain, winner)

		for i := 0; i+1 < len(chain); i++ {
			diff, err := fragmentDiff(chain[i], chain[i+1])
			if err != nil {
				presenter.Error(err, "Failed to diff fragments")
				os.Exit(1)
			}
			if diff == "" {
				presenter.Info(fmt.Sprintf("%s and %s are identical", label(chain[i]), label(chain[i+1])))
				continue
			}
			presenter.Print(colorizeDiff(diff))
		}
	},
}

func init() {
	diffCmd.Flags().Bool("all", false, "Show every step of the override chain")
}

func label(f *fragments.Fragment) string {
	if f.Path != "" {
		return fmt.Sprintf("%s (%s)", f.Path, f.Origin)
	}
	return string(f.Origin)
}

// fragmentDiff renders both fragments as documents and diffs them.
func fragmentDiff(from, to *fragments.Fragment) (string, error) {
	a, err := fragments.Format(from)
	if err != nil {
		return "", err
	}
	b, err := fragments.Format(to)
	if err != nil {
		return "", err
	}
	return udiff.Unified(label(from), label(to), a, b), nil
}

func colorizeDiff(diff string) string {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)

	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = color.New(color.Bold).Sprint(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = hunk.Sprint(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = added.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removed.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}
