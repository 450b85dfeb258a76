package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mimic-ai/mimic/pkg/compose"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

// ComposeConfig holds configuration for the compose command
type ComposeConfig struct {
	Request compose.Request
	HTML    bool
	Render  bool
}

// NewComposeConfig creates a new ComposeConfig with default values
func NewComposeConfig() *ComposeConfig {
	return &ComposeConfig{}
}

// Validate validates the compose configuration
func (c *ComposeConfig) Validate() error {
	if c.Request.Persona == "" {
		return errors.New("persona is required")
	}
	if c.HTML && c.Render {
		return errors.New("--html and --render cannot be used together")
	}
	return nil
}

var composeCmd = &cobra.Command{
	Use:   "compose <persona>",
	Short: "Compose a system prompt",
	Long: `Compose a system prompt from a persona and any number of skills, contexts, tones
and constraints. The result is printed as markdown, as HTML with --html, or styled for the
terminal with --render.`,
	Example: `  mimic compose backend-engineer --skills go,postgresql --tones concise
  mimic compose frontend-engineer -s react -c code-review --html > prompt.html`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePersona,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getComposeConfigFromFlags(cmd, args)

		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid compose request")
			os.Exit(1)
		}

		snap, err := loadSnapshot(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load fragments")
			os.Exit(1)
		}

		prompt, err := compose.Compose(snap, config.Request)
		if err != nil {
			presenter.Error(err, "Failed to compose prompt")
			os.Exit(1)
		}

		if config.HTML {
			html, err := compose.RenderHTML(prompt)
			if err != nil {
				presenter.Error(err, "Failed to render prompt")
				os.Exit(1)
			}
			presenter.Print(html)
			return
		}
		if config.Render {
			styled, err := compose.RenderTerminal(prompt, 0)
			if err != nil {
				presenter.Error(err, "Failed to render prompt")
				os.Exit(1)
			}
			presenter.Print(styled)
			return
		}
		presenter.Print(prompt)
	},
}

func init() {
	defaults := NewComposeConfig()
	composeCmd.Flags().StringSliceP("skills", "s", defaults.Request.Skills, "Skills to include")
	composeCmd.Flags().StringSliceP("contexts", "c", defaults.Request.Contexts, "Contexts to include")
	composeCmd.Flags().StringSliceP("tones", "t", defaults.Request.Tones, "Tones to include")
	composeCmd.Flags().StringSlice("constraints", defaults.Request.Constraints, "Constraints to include")
	composeCmd.Flags().Bool("html", defaults.HTML, "Render the prompt as HTML")
	composeCmd.Flags().Bool("render", defaults.Render, "Style the prompt for reading in the terminal")

	composeCmd.RegisterFlagCompletionFunc("skills", completeArgument("skills"))
	composeCmd.RegisterFlagCompletionFunc("contexts", completeArgument("contexts"))
	composeCmd.RegisterFlagCompletionFunc("tones", completeArgument("tones"))
	composeCmd.RegisterFlagCompletionFunc("constraints", completeArgument("constraints"))
}

func getComposeConfigFromFlags(cmd *cobra.Command, args []string) *ComposeConfig {
	config := NewComposeConfig()

	if len(args) > 0 {
		config.Request.Persona = args[0]
	}
	if skills, err := cmd.Flags().GetStringSlice("skills"); err == nil {
		config.Request.Skills = skills
	}
	if contexts, err := cmd.Flags().GetStringSlice("contexts"); err == nil {
		config.Request.Contexts = contexts
	}
	if tones, err := cmd.Flags().GetStringSlice("tones"); err == nil {
		config.Request.Tones = tones
	}
	if constraints, err := cmd.Flags().GetStringSlice("constraints"); err == nil {
		config.Request.Constraints = constraints
	}
	if html, err := cmd.Flags().GetBool("html"); err == nil {
		config.HTML = html
	}
	if render, err := cmd.Flags().GetBool("render"); err == nil {
		config.Render = render
	}

	return config
}
