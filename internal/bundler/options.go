package bundler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Options is the bundling configuration shared by every entry point
type Options struct {
	Minify    bool
	Sourcemap bool
	Format    string // esm, cjs or iife
	Target    string // es5, es6, es2015 ... es2022, esnext
	Define    map[string]string
	Loader    map[string]string // extension -> loader name
	External  []string          // empty bundles every dependency
}

// DefaultOptions returns the production settings used for client bundles
func DefaultOptions() Options {
	return Options{
		Minify:    true,
		Sourcemap: true,
		Format:    "esm",
		Target:    "es6",
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
		Loader: map[string]string{
			".js": "jsx",
			".ts": "tsx",
		},
	}
}

var formats = map[string]api.Format{
	"esm":  api.FormatESModule,
	"cjs":  api.FormatCommonJS,
	"iife": api.FormatIIFE,
}

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var loaders = map[string]api.Loader{
	"js":     api.LoaderJS,
	"jsx":    api.LoaderJSX,
	"ts":     api.LoaderTS,
	"tsx":    api.LoaderTSX,
	"json":   api.LoaderJSON,
	"text":   api.LoaderText,
	"css":    api.LoaderCSS,
	"file":   api.LoaderFile,
	"base64": api.LoaderBase64,
	"empty":  api.LoaderEmpty,
}

// Validate checks that every option names something esbuild understands
func (o Options) Validate() error {
	if _, ok := formats[strings.ToLower(o.Format)]; !ok {
		return fmt.Errorf("invalid bundle format: %s (valid: %s)", o.Format, keys(formats))
	}
	if _, ok := targets[strings.ToLower(o.Target)]; !ok {
		return fmt.Errorf("invalid bundle target: %s (valid: %s)", o.Target, keys(targets))
	}
	for ext, name := range o.Loader {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("loader extension must start with a dot: %s", ext)
		}
		if _, ok := loaders[strings.ToLower(name)]; !ok {
			return fmt.Errorf("invalid loader %s for %s (valid: %s)", name, ext, keys(loaders))
		}
	}
	return nil
}

// buildOptions translates Options into esbuild options for one entry point.
// Output is kept in memory; the engine writes it.
func (o Options) buildOptions(entry, outfile, workDir string) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:       []string{entry},
		Outfile:           outfile,
		Bundle:            true,
		Write:             false,
		Metafile:          true,
		Format:            formats[strings.ToLower(o.Format)],
		Target:            targets[strings.ToLower(o.Target)],
		Platform:          api.PlatformBrowser,
		MinifyWhitespace:  o.Minify,
		MinifyIdentifiers: o.Minify,
		MinifySyntax:      o.Minify,
		Define:            o.Define,
		External:          o.External,
		AbsWorkingDir:     workDir,
		LogLevel:          api.LogLevelSilent,
	}

	if o.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}

	if len(o.Loader) > 0 {
		opts.Loader = make(map[string]api.Loader, len(o.Loader))
		for ext, name := range o.Loader {
			opts.Loader[ext] = loaders[strings.ToLower(name)]
		}
	}

	return opts
}

func keys[V any](m map[string]V) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
