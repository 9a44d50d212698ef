package bundler

// Metafile represents the esbuild metafile JSON structure
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput represents an input file in the metafile
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"` // "cjs" or "esm"
}

// MetafileImport represents an import in the metafile
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput represents an output file in the metafile
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib represents the contribution of an input to an output
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// AnalysisResult contains the analyzed bundle information
type AnalysisResult struct {
	Name            string         `json:"name" yaml:"name"`
	EntryPoint      string         `json:"entry_point" yaml:"entry_point"`
	TotalBytes      int            `json:"total_bytes" yaml:"total_bytes"`
	SourceMapBytes  int            `json:"source_map_bytes" yaml:"source_map_bytes"` // 0 without a source map
	InputFiles      []FileAnalysis `json:"input_files" yaml:"input_files"`
	ExternalImports []string       `json:"external_imports,omitempty" yaml:"external_imports,omitempty"`
	Warnings        []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FileAnalysis contains analysis for a single input file
type FileAnalysis struct {
	Path          string  `json:"path" yaml:"path"`
	Bytes         int     `json:"bytes" yaml:"bytes"`
	BytesInOutput int     `json:"bytes_in_output" yaml:"bytes_in_output"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
	ImportCount   int     `json:"import_count" yaml:"import_count"`
}
