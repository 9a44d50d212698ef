package cmd

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/reactbundle/cli/output"
	"github.com/fluxbase-eu/reactbundle/internal/bundler"
)

var analyzeDetails bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [entry...]",
	Short: "Show what each bundle is made of",
	Long: `Bundle entry points in memory and report the size of every artifact and
its source map. Nothing is written to the output root.

Without arguments every entry point is analyzed.

Examples:
  reactbundle analyze
  reactbundle analyze web/routes/index/react.ts --details
  reactbundle analyze -o json`,
	PreRunE: requireConfig,
	RunE:    runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeDetails, "details", false,
		"also list the input files of each artifact by contribution")
}

// analyzedBundle is one planned entry point with its analysis
type analyzedBundle struct {
	Kind                   string `json:"kind" yaml:"kind"`
	Source                 string `json:"source" yaml:"source"`
	bundler.AnalysisResult `yaml:",inline"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fs := afero.NewOsFs()

	engine, err := newEngine(fs, cfg)
	if err != nil {
		return err
	}

	plan, err := newOrchestrator(fs, engine, cfg).Plan(ctx)
	if err != nil {
		return err
	}

	wanted := make([]string, len(args))
	for i, a := range args {
		wanted[i] = filepath.Clean(a)
	}

	var bundles []analyzedBundle
	found := make(map[string]bool, len(wanted))
	for _, e := range plan.Entries {
		source := filepath.Clean(e.Match.Source)
		if len(wanted) > 0 && !slices.Contains(wanted, source) {
			continue
		}
		found[source] = true

		// Artifacts are named by their path inside the output root
		name, err := filepath.Rel(cfg.OutputRoot, e.Output)
		if err != nil {
			name = e.Output
		}

		result, err := engine.Analyze(ctx, bundler.Request{Entry: e.Match.Source, Outfile: e.Output}, filepath.ToSlash(name))
		if err != nil {
			return err
		}
		bundles = append(bundles, analyzedBundle{
			Kind:           e.Match.Kind.String(),
			Source:         e.Match.Source,
			AnalysisResult: *result,
		})
	}

	for _, w := range wanted {
		if !found[w] {
			return fmt.Errorf("not an entry point under the source roots: %s", w)
		}
	}

	if formatter.IsStructured() {
		return formatter.Print(bundles)
	}

	if len(bundles) == 0 {
		formatter.PrintSuccess("No entry points found")
		return nil
	}

	if err := formatter.PrintTable(summaryTable(bundles)); err != nil {
		return err
	}

	for _, b := range bundles {
		for _, w := range b.Warnings {
			formatter.PrintWarning(fmt.Sprintf("%s: %s", b.Source, w))
		}
	}

	if !analyzeDetails {
		return nil
	}
	for _, b := range bundles {
		formatter.PrintSuccess(fmt.Sprintf("\n%s (%s)", b.Name, b.Source))
		if err := formatter.PrintTable(inputsTable(b.AnalysisResult)); err != nil {
			return err
		}
	}
	return nil
}

// summaryTable has one row per artifact in build order and a total row
func summaryTable(bundles []analyzedBundle) output.TableData {
	data := output.TableData{
		Headers: []string{"ARTIFACT", "KIND", "SOURCE", "SIZE", "SOURCE MAP", "INPUTS", "EXTERNALS"},
	}

	var total, totalMaps int
	for _, b := range bundles {
		total += b.TotalBytes
		totalMaps += b.SourceMapBytes
		data.Rows = append(data.Rows, []string{
			b.Name,
			b.Kind,
			b.Source,
			formatBytes(b.TotalBytes),
			formatBytes(b.SourceMapBytes),
			strconv.Itoa(len(b.InputFiles)),
			strconv.Itoa(len(b.ExternalImports)),
		})
	}

	if len(bundles) > 1 {
		data.Rows = append(data.Rows, []string{
			"TOTAL", "", "", formatBytes(total), formatBytes(totalMaps), "", "",
		})
	}
	return data
}

// inputsTable lists what each input file contributes, largest first
func inputsTable(result bundler.AnalysisResult) output.TableData {
	data := output.TableData{
		Headers: []string{"INPUT", "FILE SIZE", "IN BUNDLE", "SHARE", "IMPORTS"},
	}
	for _, f := range result.InputFiles {
		data.Rows = append(data.Rows, []string{
			f.Path,
			formatBytes(f.Bytes),
			formatBytes(f.BytesInOutput),
			fmt.Sprintf("%.1f%%", f.Percentage),
			strconv.Itoa(f.ImportCount),
		})
	}
	for _, ext := range result.ExternalImports {
		data.Rows = append(data.Rows, []string{ext, "external", "-", "-", "-"})
	}
	return data
}

func formatBytes(n int) string {
	if n <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}
