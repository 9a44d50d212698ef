package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/reactbundle/cli/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List entry points and the artifacts they produce",
	Long: `List every entry point under the source roots in build order,
without cleaning or bundling anything.

Examples:
  reactbundle list
  reactbundle list -o json`,
	Args:    cobra.NoArgs,
	PreRunE: requireConfig,
	RunE:    runList,
}

var listDuplicatePolicy string

func init() {
	listCmd.Flags().StringVar(&listDuplicatePolicy, "duplicate-policy", "",
		"override the configured duplicate policy: error, last-write-wins")
}

func runList(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("duplicate-policy") {
		cfg.Build.DuplicatePolicy = listDuplicatePolicy
		if err := cfg.Build.Validate(); err != nil {
			return err
		}
	}

	// Planning never calls the engine
	plan, err := newOrchestrator(afero.NewOsFs(), nil, cfg).Plan(cmd.Context())
	if err != nil {
		return err
	}

	data := output.TableData{
		Headers: []string{"SOURCE", "KIND", "OUTPUT"},
	}
	for _, e := range plan.Entries {
		data.Rows = append(data.Rows, []string{e.Match.Source, e.Match.Kind.String(), e.Output})
	}
	return formatter.PrintTable(data)
}
