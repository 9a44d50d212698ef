package bundler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetafile() *Metafile {
	return &Metafile{
		Inputs: map[string]MetafileInput{
			"web/routes/foo/react.ts": {
				Bytes:   200,
				Imports: []MetafileImport{{Path: "web/routes/foo/react-component.tsx", Kind: "import-statement"}},
			},
			"web/routes/foo/react-component.tsx": {Bytes: 600},
			"/project/node_modules/tiny/index.js": {Bytes: 100},
		},
		Outputs: map[string]MetafileOutput{
			"out/routes/foo/out.js.map": {Bytes: 5000},
			"out/routes/foo/out.js": {
				Bytes:      1000,
				EntryPoint: "web/routes/foo/react.ts",
				Inputs: map[string]InputContrib{
					"web/routes/foo/react.ts":             {BytesInOutput: 100},
					"web/routes/foo/react-component.tsx":  {BytesInOutput: 400},
					"/project/node_modules/tiny/index.js": {BytesInOutput: 100},
				},
				Imports: []MetafileImport{
					{Path: "react-dom", Kind: "import-statement", External: true},
					{Path: "preact", Kind: "import-statement", External: true},
				},
			},
		},
	}
}

func TestAnalyzeMetafile(t *testing.T) {
	result := analyzeMetafile(sampleMetafile(), "routes/foo/out.js", "/project")

	assert.Equal(t, "routes/foo/out.js", result.Name)
	assert.Equal(t, "web/routes/foo/react.ts", result.EntryPoint)
	assert.Equal(t, 1000, result.TotalBytes, "the source map is not part of the bundle size")
	assert.Equal(t, 5000, result.SourceMapBytes)
	assert.Equal(t, []string{"preact", "react-dom"}, result.ExternalImports)

	require.Len(t, result.InputFiles, 3)
	assert.Equal(t, "web/routes/foo/react-component.tsx", result.InputFiles[0].Path)
	assert.InDelta(t, 40.0, result.InputFiles[0].Percentage, 0.001)
	assert.Equal(t, "node_modules/tiny/index.js", result.InputFiles[1].Path)
	assert.Equal(t, "web/routes/foo/react.ts", result.InputFiles[2].Path)
	assert.Equal(t, 1, result.InputFiles[2].ImportCount)
}

func TestAnalyzeMetafile_Empty(t *testing.T) {
	result := analyzeMetafile(&Metafile{}, "x", "")

	assert.Equal(t, 0, result.TotalBytes)
	assert.Equal(t, 0, result.SourceMapBytes)
	assert.Empty(t, result.InputFiles)
}

func TestAnalyzeMetafile_WithoutSourceMap(t *testing.T) {
	meta := sampleMetafile()
	delete(meta.Outputs, "out/routes/foo/out.js.map")

	result := analyzeMetafile(meta, "routes/foo/out.js", "/project")

	assert.Equal(t, 0, result.SourceMapBytes)
	assert.Equal(t, 1000, result.TotalBytes)
}
