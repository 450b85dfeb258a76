package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("MIMIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.mimic")
	viper.AddConfigPath(".")

	setDefaults()

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "mimic",
	Short: "Compose system prompts from reusable fragments",
	Long: `mimic keeps a library of prompt fragments (personas, skills, contexts, tones and
constraints) in plain markdown files and composes them into system prompts.

Fragments are loaded from three layers: the built-in set, the global directory
(~/.mimic) and the nearest project .mimic directory. Later layers override
earlier ones by category and name.

Without a subcommand mimic serves its tools over MCP on stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetLogOutput(os.Stderr)
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetLogFormat(viper.GetString("log_format"))

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			return err
		}
		shutdownTracing = shutdown
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		serveCmd.Run(cmd, nil)
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("global-dir", "", "Global fragment directory (default ~/.mimic)")
	rootCmd.PersistentFlags().String("project-dir", "", "Project fragment directory (default: nearest .mimic walking upward)")
	rootCmd.PersistentFlags().Bool("no-global", false, "Do not load the global fragment directory")
	rootCmd.PersistentFlags().Bool("no-project", false, "Do not load a project fragment directory")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("global_dir", rootCmd.PersistentFlags().Lookup("global-dir"))
	viper.BindPFlag("project_dir", rootCmd.PersistentFlags().Lookup("project-dir"))
	viper.BindPFlag("no_global", rootCmd.PersistentFlags().Lookup("no-global"))
	viper.BindPFlag("no_project", rootCmd.PersistentFlags().Lookup("no-project"))

	// serve's own flags are inherited when it runs as the default command.
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(
		withTracing(serveCmd),
		withTracing(lintCmd),
		withTracing(listCmd),
		withTracing(showCmd),
		withTracing(composeCmd),
		withTracing(resolveCmd),
		withTracing(recommendCmd),
		withTracing(diffCmd),
		withTracing(newCmd),
		schemaCmd,
		pickCmd,
		versionCmd,
	)

	err := rootCmd.ExecuteContext(context.Background())
	if shutdownErr := shutdownTracing(context.Background()); shutdownErr != nil {
		logger.G(context.Background()).WithError(shutdownErr).Warn("failed to flush traces")
	}
	if err != nil {
		presenter.Error(err, "mimic failed")
		os.Exit(1)
	}
}
