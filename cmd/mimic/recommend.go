package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/graph"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

var recommendCmd = &cobra.Command{
	Use:               "recommend <persona>",
	Short:             "Recommend fragments for a persona",
	Long:              `List the skills, contexts, tones and constraints that fit a persona's skill groups.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePersona,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		q := graph.RecommendQuery{Persona: args[0]}
		q.Groups, _ = cmd.Flags().GetStringSlice("groups")
		q.Tags, _ = cmd.Flags().GetStringSlice("tags")

		snap, err := loadSnapshot(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load fragments")
			os.Exit(1)
		}

		recs, err := graph.Recommend(snap, q)
		if err != nil {
			presenter.Error(err, "Failed to recommend fragments")
			os.Exit(1)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := presenter.JSON(recs); err != nil {
				presenter.Error(err, "Failed to encode recommendations")
				os.Exit(1)
			}
			return
		}
		printRecommendations(recs)
	},
}

func init() {
	recommendCmd.Flags().StringSliceP("groups", "g", nil, "Override the persona's skill_groups")
	recommendCmd.Flags().StringSliceP("tags", "t", nil, "Filter recommendations by tags")
	recommendCmd.Flags().Bool("json", false, "Print recommendations as JSON")

	recommendCmd.RegisterFlagCompletionFunc("groups", completeArgument("groups"))
	recommendCmd.RegisterFlagCompletionFunc("tags", completeArgument("tags"))
}

func printRecommendations(recs *graph.Recommendations) {
	p := recs.Persona
	title := p.Name
	if p.Level != "" {
		title = fmt.Sprintf("%s (%s)", p.Name, p.Level)
	}
	presenter.Section(title)
	presenter.Print(p.Description)
	if len(p.SkillGroups) > 0 {
		presenter.Print("Skill groups: " + strings.Join(p.SkillGroups, ", "))
	}

	sections := []struct {
		title string
		items []graph.Recommendation
	}{
		{"Skills", recs.Skills},
		{"Contexts", recs.Contexts},
		{"Tones", recs.Tones},
		{"Constraints", recs.Constraints},
	}
	for _, s := range sections {
		presenter.Print("")
		presenter.Section(s.title)
		if len(s.items) == 0 {
			presenter.Print("  (none)")
			continue
		}
		rows := make([][]string, 0, len(s.items))
		for _, r := range s.items {
			rows = append(rows, []string{r.Name, r.Group, truncate(r.Description, 60)})
		}
		presenter.Table(nil, rows)
	}
}
