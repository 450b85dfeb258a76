package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mimic-ai/mimic/pkg/telemetry"
	"github.com/mimic-ai/mimic/pkg/version"
)

// shutdownTracing flushes the tracer provider installed by initTracing.
var shutdownTracing = func(context.Context) error { return nil }

// initTracing initializes the OpenTelemetry tracing system
func initTracing(ctx context.Context) (func(context.Context) error, error) {
	config := telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    "mimic",
		ServiceVersion: version.Get().Version,
		Sampler:        viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	}

	return telemetry.InitTracer(ctx, config)
}

// withTracing wraps a Cobra command with a span covering its run.
func withTracing(cmd *cobra.Command) *cobra.Command {
	originalRun := cmd.Run
	originalRunE := cmd.RunE

	start := func(cmd *cobra.Command, args []string) trace.Span {
		attrs := []attribute.KeyValue{
			attribute.String("command.name", cmd.Name()),
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
		})

		ctx, span := telemetry.Tracer().Start(cmd.Context(), "cli.command", trace.WithAttributes(attrs...))
		cmd.SetContext(ctx)
		return span
	}

	if originalRun != nil {
		cmd.Run = func(cmd *cobra.Command, args []string) {
			span := start(cmd, args)
			defer span.End()

			originalRun(cmd, args)
			span.SetStatus(codes.Ok, "")
		}
	}
	if originalRunE != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			span := start(cmd, args)
			defer span.End()

			err := originalRunE(cmd, args)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}

	return cmd
}

func init() {
	rootCmd.PersistentFlags().Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().String("tracing-sampler", "ratio", "Tracing sampler type (always, never, ratio)")
	rootCmd.PersistentFlags().Float64("tracing-ratio", 1, "Sampling ratio when using ratio sampler")

	viper.BindPFlag("tracing.enabled", rootCmd.PersistentFlags().Lookup("tracing-enabled"))
	viper.BindPFlag("tracing.sampler", rootCmd.PersistentFlags().Lookup("tracing-sampler"))
	viper.BindPFlag("tracing.ratio", rootCmd.PersistentFlags().Lookup("tracing-ratio"))
}
