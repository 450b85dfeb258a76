package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mimic-ai/mimic/pkg/presenter"
	"github.com/mimic-ai/mimic/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of mimic in JSON format.`,
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		json, err := info.JSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting version info: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(json)

		check, _ := cmd.Flags().GetBool("check")
		if !check {
			return
		}

		checker := version.NewChecker(
			version.WithURL(viper.GetString("update.url")),
			version.WithTTL(viper.GetDuration("update.ttl")),
		)
		update := checker.Check(cmd.Context())
		switch {
		case update.Latest == "":
			presenter.Warning("Could not determine the latest release")
		case update.UpdateAvailable:
			presenter.Info(fmt.Sprintf("Update available: mimic v%s (current: v%s)", update.Latest, update.Current))
		default:
			presenter.Success("mimic is up to date")
		}
	},
}

func init() {
	versionCmd.Flags().Bool("check", false, "Also check whether a newer release exists")
}
