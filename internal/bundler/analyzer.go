package bundler

import (
	"path/filepath"
	"sort"
	"strings"
)

// analyzeMetafile turns an esbuild metafile into per-input contributions.
// Input paths in the metafile are relative to workDir.
func analyzeMetafile(meta *Metafile, name string, workDir string) *AnalysisResult {
	result := &AnalysisResult{
		Name: name,
	}

	for path, output := range meta.Outputs {
		// The linked source map is the only output without an entry point
		if output.EntryPoint == "" {
			if strings.HasSuffix(path, ".map") {
				result.SourceMapBytes = output.Bytes
			}
			continue
		}

		result.EntryPoint = output.EntryPoint
		result.TotalBytes = output.Bytes

		for _, imp := range output.Imports {
			if imp.External {
				result.ExternalImports = append(result.ExternalImports, imp.Path)
			}
		}

		for inputPath, contrib := range output.Inputs {
			inputInfo, ok := meta.Inputs[inputPath]
			if !ok {
				continue
			}

			percentage := 0.0
			if output.Bytes > 0 {
				percentage = float64(contrib.BytesInOutput) / float64(output.Bytes) * 100
			}

			result.InputFiles = append(result.InputFiles, FileAnalysis{
				Path:          displayPath(inputPath, workDir),
				Bytes:         inputInfo.Bytes,
				BytesInOutput: contrib.BytesInOutput,
				Percentage:    percentage,
				ImportCount:   len(inputInfo.Imports),
			})
		}
	}

	// Largest contribution first, path as tie breaker
	sort.Slice(result.InputFiles, func(i, j int) bool {
		a, b := result.InputFiles[i], result.InputFiles[j]
		if a.BytesInOutput != b.BytesInOutput {
			return a.BytesInOutput > b.BytesInOutput
		}
		return a.Path < b.Path
	})

	sort.Strings(result.ExternalImports)

	return result
}

func displayPath(path, workDir string) string {
	if filepath.IsAbs(path) && workDir != "" {
		if rel, err := filepath.Rel(workDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
