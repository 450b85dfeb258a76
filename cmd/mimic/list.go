package main

import (
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/presenter"
	"github.com/mimic-ai/mimic/pkg/registry"
)

// ListConfig holds configuration for the list command
type ListConfig struct {
	Category string
	Tag      string
	Group    string
	Match    string
	JSON     bool
}

// NewListConfig creates a new ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{}
}

// Filter converts the flags into a registry filter.
func (c *ListConfig) Filter() (registry.Filter, error) {
	filter := registry.Filter{Tag: c.Tag, Group: c.Group}
	if c.Category != "" {
		cat, ok := fragments.ParseCategory(c.Category)
		if !ok {
			return filter, errors.Errorf("unknown category '%s'", c.Category)
		}
		filter.Category = cat
	}
	return filter, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List fragments",
	Long: `List the fragments of the merged registry, optionally filtered by category, tag,
group, or a glob pattern over fragment names (e.g. --match 'react*').`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getListConfigFromFlags(cmd)

		filter, err := config.Filter()
		if err != nil {
			presenter.Error(err, "Invalid filter")
			os.Exit(1)
		}

		snap, err := loadSnapshot(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load fragments")
			os.Exit(1)
		}

		frags, err := matchNames(snap.List(filter), config.Match)
		if err != nil {
			presenter.Error(err, "Invalid --match pattern")
			os.Exit(1)
		}

		if config.JSON {
			if err := presenter.JSON(frags); err != nil {
				presenter.Error(err, "Failed to encode fragments")
				os.Exit(1)
			}
			return
		}

		if len(frags) == 0 {
			presenter.Info("No fragments found")
			return
		}
		presenter.Table([]string{"CATEGORY", "NAME", "ORIGIN", "GROUP", "TAGS", "DESCRIPTION"}, fragmentRows(frags))
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().StringP("category", "c", defaults.Category, "Only list this category (persona, skill, context, tone, constraint)")
	listCmd.Flags().StringP("tag", "t", defaults.Tag, "Only list fragments carrying this tag")
	listCmd.Flags().StringP("group", "g", defaults.Group, "Only list fragments in this group")
	listCmd.Flags().StringP("match", "m", defaults.Match, "Only list fragments whose name matches this glob")
	listCmd.Flags().Bool("json", defaults.JSON, "Print fragments as JSON")

	listCmd.RegisterFlagCompletionFunc("category", completeCategories)
	listCmd.RegisterFlagCompletionFunc("tag", completeArgument("tags"))
	listCmd.RegisterFlagCompletionFunc("group", completeArgument("groups"))
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()

	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if tag, err := cmd.Flags().GetString("tag"); err == nil {
		config.Tag = tag
	}
	if group, err := cmd.Flags().GetString("group"); err == nil {
		config.Group = group
	}
	if match, err := cmd.Flags().GetString("match"); err == nil {
		config.Match = match
	}
	if asJSON, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = asJSON
	}

	return config
}

// matchNames keeps the fragments whose name matches the glob pattern. An
// empty pattern keeps everything.
func matchNames(frags []*fragments.Fragment, pattern string) ([]*fragments.Fragment, error) {
	if pattern == "" {
		return frags, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern '%s'", pattern)
	}

	out := make([]*fragments.Fragment, 0, len(frags))
	for _, f := range frags {
		if g.Match(f.Name) {
			out = append(out, f)
		}
	}
	return out, nil
}

func fragmentRows(frags []*fragments.Fragment) [][]string {
	rows := make([][]string, 0, len(frags))
	for _, f := range frags {
		rows = append(rows, []string{
			string(f.Category),
			f.Name,
			string(f.Origin),
			f.Group,
			strings.Join(f.Tags, ","),
			truncate(f.Description, 60),
		})
	}
	return rows
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
