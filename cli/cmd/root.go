// Package cmd provides the Cobra commands for the reactbundle CLI.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/reactbundle/cli/output"
	"github.com/fluxbase-eu/reactbundle/internal/config"
	"github.com/fluxbase-eu/reactbundle/internal/logging"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// Global flags
	cfgFile   string
	outputFmt string
	noHeaders bool
	quiet     bool
	debug     bool
	logFormat string

	// Shared across commands
	cfg       *config.Config
	formatter *output.Formatter
)

// rootCmd represents the base command. Without a subcommand it runs a build.
var rootCmd = &cobra.Command{
	Use:   "reactbundle",
	Short: "Bundle React entry points into embeddable assets",
	Long: `reactbundle finds React entry points under the source roots and bundles
each one into a single JavaScript file under the output root.

Entry points:
  react.ts, react.js            bundled to out.js in the mirrored directory
  <name>.react.ts, .react.js    bundled to <name>.out.js

The output root is removed before every build, so it only ever holds
artifacts of the current source tree.

Get started:
  reactbundle                  Build with reactbundle.yaml or the defaults
  reactbundle list             Show entry points without bundling
  reactbundle analyze          Show what each bundle is made of`,
	// main reports the returned error
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Setup(cmd.ErrOrStderr(), logFormat, logging.Level(debug, quiet))
	},
	Args:    cobra.NoArgs,
	PreRunE: requireConfig,
	RunE:    runBuild,
}

// Execute runs the CLI, cancelling the build on SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./reactbundle.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false,
		"hide table headers")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"minimal output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole,
		"log format: console, json")

	addBuildFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// requireConfig loads the configuration and output formatter, for use in PreRunE
func requireConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	format, err := output.ParseFormat(outputFmt)
	if err != nil {
		return err
	}
	formatter = output.NewFormatter(format, noHeaders, quiet)
	formatter.Writer = cmd.OutOrStdout()
	formatter.ErrWriter = cmd.ErrOrStderr()

	return nil
}
