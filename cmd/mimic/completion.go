package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/mcp"
)

// categoryNames lists the singular category names used as arguments.
func categoryNames(prefix string) []string {
	var out []string
	for _, c := range fragments.Categories() {
		if strings.HasPrefix(string(c), prefix) {
			out = append(out, string(c))
		}
	}
	return out
}

func completeCategories(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return categoryNames(toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeArgument completes from the same candidate lists the MCP server
// offers for argument.
func completeArgument(argument string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		// Slice flags complete the value after the last comma.
		prefix := toComplete
		head := ""
		if i := strings.LastIndex(toComplete, ","); i >= 0 {
			head, prefix = toComplete[:i+1], toComplete[i+1:]
		}

		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		values := mcp.Complete(snap, argument, prefix)
		for i, v := range values {
			values[i] = head + v
		}
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func completePersona(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeArgument("persona")(cmd, args, toComplete)
}

func completeCategoryOnly(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return categoryNames(toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeCategoryAndName(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return categoryNames(toComplete), cobra.ShellCompDirectiveNoFileComp
	case 1:
		cat, ok := fragments.ParseCategory(args[0])
		if !ok {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var out []string
		for _, name := range snap.NamesForCategory(cat) {
			if strings.HasPrefix(name, toComplete) {
				out = append(out, name)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
