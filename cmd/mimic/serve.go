package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/mimic-ai/mimic/pkg/httpapi"
	"github.com/mimic-ai/mimic/pkg/logger"
	"github.com/mimic-ai/mimic/pkg/mcp"
	"github.com/mimic-ai/mimic/pkg/metrics"
	"github.com/mimic-ai/mimic/pkg/presenter"
	"github.com/mimic-ai/mimic/pkg/registry"
	"github.com/mimic-ai/mimic/pkg/version"
	"github.com/mimic-ai/mimic/pkg/watch"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	HTTPAddr      string
	Watch         bool
	Debounce      time.Duration
	Ignore        []string
	CheckUpdates  bool
	UpdateURL     string
	UpdateTTL     time.Duration
	DisableStdio  bool
	EnableMetrics bool
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Watch:        true,
		Debounce:     500 * time.Millisecond,
		Ignore:       []string{".git/**", "**/.*"},
		CheckUpdates: true,
		UpdateURL:    version.DefaultUpdateURL,
		UpdateTTL:    version.DefaultUpdateTTL,
	}
}

// Validate validates the serve configuration
func (c *ServeConfig) Validate() error {
	if c.DisableStdio && c.HTTPAddr == "" {
		return errors.New("nothing to serve: stdio is disabled and no HTTP address is set")
	}
	if c.HTTPAddr != "" {
		if err := (&httpapi.ServerConfig{Addr: c.HTTPAddr}).Validate(); err != nil {
			return err
		}
	}
	if c.UpdateTTL <= 0 {
		return errors.Errorf("update TTL must be positive, got %s", c.UpdateTTL)
	}
	return (&watch.Config{Debounce: c.Debounce, Ignore: c.Ignore}).Validate()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve fragments over MCP (stdio) and optionally HTTP",
	Long: `Serve the fragment registry as an MCP server on stdio. With --http-addr the same
registry is also exposed as a JSON REST API with Prometheus metrics on /metrics.

Fragment directories are watched and the registry is rebuilt after changes settle.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)

		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid serve configuration")
			os.Exit(1)
		}

		if err := runServe(ctx, config); err != nil {
			presenter.Error(err, "Server failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("http-addr", defaults.HTTPAddr, "Also serve the REST API on this address (e.g. 127.0.0.1:7331)")
	serveCmd.Flags().Bool("no-stdio", defaults.DisableStdio, "Do not serve MCP on stdio (requires --http-addr)")
	serveCmd.Flags().Bool("watch", defaults.Watch, "Rebuild the registry when fragment files change")
	serveCmd.Flags().Int("debounce", int(defaults.Debounce/time.Millisecond), "Quiet interval in milliseconds before a rebuild")
	serveCmd.Flags().Bool("metrics", defaults.EnableMetrics, "Expose Prometheus metrics on the HTTP API")

	viper.BindPFlag("http.addr", serveCmd.Flags().Lookup("http-addr"))
	viper.BindPFlag("watch.enabled", serveCmd.Flags().Lookup("watch"))
	viper.BindPFlag("watch.debounce_ms", serveCmd.Flags().Lookup("debounce"))
}

// getServeConfigFromFlags extracts serve configuration from flags and config
func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	config.HTTPAddr = viper.GetString("http.addr")
	config.Watch = viper.GetBool("watch.enabled")
	config.Debounce = time.Duration(viper.GetInt("watch.debounce_ms")) * time.Millisecond
	if ignore := viper.GetStringSlice("watch.ignore"); len(ignore) > 0 {
		config.Ignore = ignore
	}
	config.CheckUpdates = viper.GetBool("update.enabled")
	if url := viper.GetString("update.url"); url != "" {
		config.UpdateURL = url
	}
	if ttl := viper.GetDuration("update.ttl"); ttl > 0 {
		config.UpdateTTL = ttl
	}

	if noStdio, err := cmd.Flags().GetBool("no-stdio"); err == nil {
		config.DisableStdio = noStdio
	}
	if enable, err := cmd.Flags().GetBool("metrics"); err == nil {
		config.EnableMetrics = enable
	}

	return config
}

func runServe(ctx context.Context, config *ServeConfig) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	store, err := registry.NewStore(ctx, append(registryOptions(), registry.WithMetrics(m))...)
	if err != nil {
		return errors.Wrap(err, "failed to load fragments")
	}
	if problems := store.Current().Problems(); problems != nil {
		logger.G(ctx).WithError(problems).Warn("some fragment documents were skipped")
	}

	var mcpOpts []mcp.Option
	mcpOpts = append(mcpOpts, mcp.WithMetrics(m))
	var checker *version.Checker
	if config.CheckUpdates {
		checker = version.NewChecker(version.WithURL(config.UpdateURL), version.WithTTL(config.UpdateTTL))
		mcpOpts = append(mcpOpts, mcp.WithUpdateChecker(checker))
	}
	mcpServer := mcp.New(store, mcpOpts...)

	g, ctx := errgroup.WithContext(ctx)

	if checker != nil {
		g.Go(func() error {
			checker.Check(ctx)
			return nil
		})
	}

	if !config.DisableStdio {
		g.Go(func() error {
			defer cancel()
			return mcpServer.ServeStdio(ctx, os.Stdin, os.Stdout)
		})
	}

	if config.HTTPAddr != "" {
		var opts []httpapi.Option
		if config.EnableMetrics {
			opts = append(opts, httpapi.WithMetrics(m, metrics.NewRegistry(m)))
		}
		api, err := httpapi.NewServer(store, &httpapi.ServerConfig{Addr: config.HTTPAddr}, opts...)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return api.Start(ctx)
		})
	}

	if config.Watch {
		w, err := watch.New(ctx, store, store.Current().WatchedDirectories(),
			&watch.Config{Debounce: config.Debounce, Ignore: config.Ignore},
			watch.WithOnRebuild(mcpServer.Refresh))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	return g.Wait()
}
