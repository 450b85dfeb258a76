package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mimic-ai/mimic/pkg/fragments"
	"github.com/mimic-ai/mimic/pkg/osutil"
	"github.com/mimic-ai/mimic/pkg/presenter"
)

// ScaffoldConfig holds configuration for the new command
type ScaffoldConfig struct {
	Category    fragments.Category
	Name        string
	Description string
	Tags        []string
	Group       string
	Level       string
	SkillGroups []string
	Global      bool
	Force       bool
}

// NewScaffoldConfig creates a new ScaffoldConfig with default values
func NewScaffoldConfig() *ScaffoldConfig {
	return &ScaffoldConfig{}
}

// Validate validates the new configuration
func (c *ScaffoldConfig) Validate() error {
	if !c.Category.Valid() {
		return errors.New("a valid category is required")
	}
	if c.Name == "" {
		return errors.New("name cannot be empty")
	}
	if strings.ContainsAny(c.Name, `/\`) || strings.HasPrefix(c.Name, ".") {
		return errors.Errorf("invalid fragment name '%s'", c.Name)
	}
	if strings.HasSuffix(c.Name, fragments.Extension) {
		return errors.Errorf("name should not include the %s extension", fragments.Extension)
	}
	return nil
}

// Fragment builds the scaffolded fragment.
func (c *ScaffoldConfig) Fragment() *fragments.Fragment {
	f := &fragments.Fragment{
		Name:        c.Name,
		Category:    c.Category,
		Description: c.Description,
		Tags:        c.Tags,
		Group:       c.Group,
		Level:       c.Level,
		SkillGroups: c.SkillGroups,
		Body:        fmt.Sprintf("Describe the %s %q here.", c.Category, c.Name),
	}
	if f.Description == "" {
		f.Description = fmt.Sprintf("TODO: describe %s", c.Name)
	}
	return f
}

var newCmd = &cobra.Command{
	Use:   "new <category> <name>",
	Short: "Scaffold a new fragment document",
	Long: `Create a fragment document with a metadata block in the project .mimic directory,
or in the global directory with --global.`,
	Example: `  mimic new skill terraform --group infra --tags iac,cloud
  mimic new persona sre --level senior --skill-groups infra,backend --global`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeCategoryOnly,
	Run: func(cmd *cobra.Command, args []string) {
		config := getScaffoldConfigFromFlags(cmd, args)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid fragment")
			os.Exit(1)
		}

		dir, err := targetDir(config.Global)
		if err != nil {
			presenter.Error(err, "Cannot choose a fragment directory")
			os.Exit(1)
		}

		path, err := scaffold(dir, config.Fragment(), config.Force)
		if err != nil {
			presenter.Error(err, "Failed to create fragment")
			os.Exit(1)
		}
		presenter.Success("Created " + path)
	},
}

func init() {
	defaults := NewScaffoldConfig()
	newCmd.Flags().StringP("description", "d", defaults.Description, "Short description")
	newCmd.Flags().StringSliceP("tags", "t", defaults.Tags, "Tags")
	newCmd.Flags().StringP("group", "g", defaults.Group, "Skill group (skills)")
	newCmd.Flags().String("level", defaults.Level, "Seniority level (personas)")
	newCmd.Flags().StringSlice("skill-groups", defaults.SkillGroups, "Skill groups the persona draws from (personas)")
	newCmd.Flags().Bool("global", defaults.Global, "Create the fragment in the global directory")
	newCmd.Flags().BoolP("force", "f", defaults.Force, "Overwrite an existing document")
}

func getScaffoldConfigFromFlags(cmd *cobra.Command, args []string) *ScaffoldConfig {
	config := NewScaffoldConfig()

	if len(args) == 2 {
		config.Category, _ = fragments.ParseCategory(args[0])
		config.Name = args[1]
	}
	if description, err := cmd.Flags().GetString("description"); err == nil {
		config.Description = description
	}
	if tags, err := cmd.Flags().GetStringSlice("tags"); err == nil {
		config.Tags = tags
	}
	if group, err := cmd.Flags().GetString("group"); err == nil {
		config.Group = group
	}
	if level, err := cmd.Flags().GetString("level"); err == nil {
		config.Level = level
	}
	if skillGroups, err := cmd.Flags().GetStringSlice("skill-groups"); err == nil {
		config.SkillGroups = skillGroups
	}
	if global, err := cmd.Flags().GetBool("global"); err == nil {
		config.Global = global
	}
	if force, err := cmd.Flags().GetBool("force"); err == nil {
		config.Force = force
	}

	return config
}

// targetDir picks the configured or discovered project directory, or the
// global directory.
func targetDir(global bool) (string, error) {
	if !global {
		if dir := viper.GetString("project_dir"); dir != "" {
			return expandHome(dir), nil
		}
		if dir, ok := osutil.FindProjectDirFromCwd(); ok {
			return dir, nil
		}
		return "", errors.Errorf("no %s directory found; create one or use --global", osutil.ProjectMarker)
	}

	if dir := viper.GetString("global_dir"); dir != "" {
		return expandHome(dir), nil
	}
	return osutil.DefaultGlobalDir()
}

// scaffold writes f under dir/<category dir>/<name>.md and returns the path.
func scaffold(dir string, f *fragments.Fragment, force bool) (string, error) {
	if err := osutil.EnsureCategoryDirs(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, f.Category.DirName(), f.Name+fragments.Extension)
	if _, err := os.Stat(path); err == nil && !force {
		return "", errors.Errorf("%s already exists (use --force to overwrite)", path)
	}

	content, err := fragments.Format(f)
	if err != nil {
		return "", err
	}
	if err := lockedfile.Write(path, strings.NewReader(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
