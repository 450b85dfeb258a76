package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/graph"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [persona]",
	Short: "Resolve the relationship graph around a persona",
	Long: `Select the fragments that fit a persona (or explicit --groups / --tags) and print
them as a graph: nodes are fragments, edges connect fragments that share a skill
group, a group or an uncommon tag.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completePersona,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		var q graph.Query
		if len(args) > 0 {
			q.Persona = args[0]
		}
		q.Groups, _ = cmd.Flags().GetStringSlice("groups")
		q.Tags, _ = cmd.Flags().GetStringSlice("tags")
		if cmd.Flags().Changed("no-edges") {
			noEdges, _ := cmd.Flags().GetBool("no-edges")
			include := !noEdges
			q.IncludeEdges = &include
		}

		snap, err := loadSnapshot(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load fragments")
			os.Exit(1)
		}

		result, err := graph.Resolve(ctx, snap, q)
		if err != nil {
			presenter.Error(err, "Failed to resolve graph")
			os.Exit(1)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := presenter.JSON(result); err != nil {
				presenter.Error(err, "Failed to encode graph")
				os.Exit(1)
			}
			return
		}
		printGraph(result)
	},
}

func init() {
	resolveCmd.Flags().StringSliceP("groups", "g", nil, "Skill groups to include (default: the persona's skill_groups)")
	resolveCmd.Flags().StringSliceP("tags", "t", nil, "Only include fragments sharing one of these tags")
	resolveCmd.Flags().Bool("no-edges", false, "Only list the selected nodes")
	resolveCmd.Flags().Bool("json", false, "Print the graph as JSON")

	resolveCmd.RegisterFlagCompletionFunc("groups", completeArgument("groups"))
	resolveCmd.RegisterFlagCompletionFunc("tags", completeArgument("tags"))
}

func printGraph(result *graph.Result) {
	seed := "(none)"
	if result.Meta.Seed != nil {
		seed = *result.Meta.Seed
	}
	presenter.Section(fmt.Sprintf("Graph seeded by %s", seed))

	rows := make([][]string, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		rows = append(rows, []string{n.ID, n.Origin, truncate(n.Description, 60)})
	}
	presenter.Table([]string{"NODE", "ORIGIN", "DESCRIPTION"}, rows)

	if len(result.Edges) > 0 {
		presenter.Print("")
		rows = rows[:0]
		for _, e := range result.Edges {
			rows = append(rows, []string{e.From, e.To, e.Relation, e.Label})
		}
		presenter.Table([]string{"FROM", "TO", "RELATION", "LABEL"}, rows)
	}

	presenter.Info(fmt.Sprintf("%d nodes, %d edges", result.Meta.NodeCount, result.Meta.EdgeCount))
}
