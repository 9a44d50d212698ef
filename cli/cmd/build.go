package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/reactbundle/cli/output"
	"github.com/fluxbase-eu/reactbundle/internal/artifact"
	"github.com/fluxbase-eu/reactbundle/internal/build"
	"github.com/fluxbase-eu/reactbundle/internal/bundler"
	"github.com/fluxbase-eu/reactbundle/internal/config"
	"github.com/fluxbase-eu/reactbundle/internal/observability"
)

var (
	buildParallelism     int
	buildDuplicatePolicy string
	buildTimeout         time.Duration
	buildMetricsTextfile string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Clean the output root and bundle every entry point",
	Long: `Remove the output root, discover entry points under every source root and
bundle each one. The first failure stops the build and removes the output root.

Examples:
  reactbundle build
  reactbundle build -j 4
  reactbundle build --duplicate-policy last-write-wins
  reactbundle build -o json`,
	Args:    cobra.NoArgs,
	PreRunE: requireConfig,
	RunE:    runBuild,
}

func init() {
	addBuildFlags(buildCmd)
}

// addBuildFlags registers the build overrides; the root command shares them
// since running it bare is a build
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&buildParallelism, "parallelism", "j", 1,
		"number of entry points bundled at once")
	cmd.Flags().StringVar(&buildDuplicatePolicy, "duplicate-policy", config.DuplicatePolicyError,
		"what to do when two entry points produce the same artifact: error, last-write-wins")
	cmd.Flags().DurationVar(&buildTimeout, "timeout", 0,
		"deadline for each entry point, 0 disables")
	cmd.Flags().StringVar(&buildMetricsTextfile, "metrics-textfile", "",
		"write Prometheus metrics to this file after the build")
}

// applyBuildFlags overrides configured values with flags set on the command line
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("parallelism") {
		cfg.Build.Parallelism = buildParallelism
	}
	if flags.Changed("duplicate-policy") {
		cfg.Build.DuplicatePolicy = buildDuplicatePolicy
	}
	if flags.Changed("timeout") {
		cfg.Build.Timeout = buildTimeout
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = buildMetricsTextfile
	}
	return cfg.Build.Validate()
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := applyBuildFlags(cmd, cfg); err != nil {
		return err
	}

	report, err := executeBuild(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	return printReport(formatter, report)
}

// executeBuild runs one build against the real filesystem
func executeBuild(ctx context.Context, cfg *config.Config) (*build.Report, error) {
	fs := afero.NewOsFs()

	engine, err := newEngine(fs, cfg)
	if err != nil {
		return nil, err
	}

	tracer, err := observability.NewTracer(ctx, cfg.Tracing, Version)
	if err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	metrics := observability.NewMetrics()
	orchestrator := newOrchestrator(fs, engine, cfg,
		build.WithMetrics(metrics),
		build.WithTracer(tracer),
	)

	report, runErr := orchestrator.Run(ctx)

	// Metrics are written for failed builds too
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("Failed to write metrics")
		}
	}

	return report, runErr
}

func newEngine(fs afero.Fs, cfg *config.Config) (*bundler.Esbuild, error) {
	opts, err := cfg.Bundle.Options()
	if err != nil {
		return nil, err
	}
	return bundler.NewEsbuild(fs, opts, "")
}

func newOrchestrator(fs afero.Fs, engine bundler.Engine, cfg *config.Config, opts ...build.Option) *build.Orchestrator {
	opts = append([]build.Option{
		build.WithDuplicatePolicy(build.DuplicatePolicy(cfg.Build.DuplicatePolicy)),
		build.WithParallelism(cfg.Build.Parallelism),
		build.WithTimeout(cfg.Build.Timeout),
	}, opts...)
	return build.New(fs, engine, cfg.SourceRoots, artifact.OutputRoot(cfg.OutputRoot), opts...)
}

func printReport(f *output.Formatter, report *build.Report) error {
	if f.IsStructured() {
		return f.Print(report)
	}

	for _, source := range report.Overridden {
		f.PrintWarning(fmt.Sprintf("%s was replaced by a later entry point with the same output", source))
	}

	data := output.TableData{
		Headers: []string{"SOURCE", "KIND", "OUTPUT", "SIZE", "DURATION"},
	}
	for _, a := range report.Artifacts {
		data.Rows = append(data.Rows, []string{
			a.Source,
			a.Kind,
			a.Output,
			formatBytes(a.Bytes),
			a.Duration.Round(time.Millisecond).String(),
		})
	}
	if err := f.PrintTable(data); err != nil {
		return err
	}

	f.PrintSuccess(fmt.Sprintf("Built %d artifact(s) into %s in %s",
		len(report.Artifacts), report.OutputRoot, report.Duration.Round(time.Millisecond)))
	return nil
}
