package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mimic-ai/mimic/pkg/registry"
	"github.com/mimic-ai/mimic/pkg/version"
)

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("watch.enabled", true)
	viper.SetDefault("watch.debounce_ms", 500)
	viper.SetDefault("watch.ignore", []string{".git/**", "**/.*"})
	viper.SetDefault("http.addr", "")
	viper.SetDefault("update.enabled", true)
	viper.SetDefault("update.url", version.DefaultUpdateURL)
	viper.SetDefault("update.ttl", version.DefaultUpdateTTL)
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.sampler", "ratio")
	viper.SetDefault("tracing.ratio", 1.0)
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// registryOptions maps configuration onto registry options.
func registryOptions() []registry.Option {
	var opts []registry.Option

	switch {
	case viper.GetBool("no_global"):
		opts = append(opts, registry.WithoutGlobalDir())
	case viper.GetString("global_dir") != "":
		opts = append(opts, registry.WithGlobalDir(expandHome(viper.GetString("global_dir"))))
	}

	switch {
	case viper.GetBool("no_project"):
		opts = append(opts, registry.WithoutProjectDir())
	case viper.GetString("project_dir") != "":
		opts = append(opts, registry.WithProjectDir(expandHome(viper.GetString("project_dir"))))
	}

	return opts
}

// loadSnapshot builds a one-off snapshot for commands that do not serve.
func loadSnapshot(ctx context.Context) (*registry.Snapshot, error) {
	return registry.Build(ctx, registryOptions()...)
}
