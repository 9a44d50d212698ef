// Package bundler produces client bundles for entry points with esbuild.
package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Engine bundles one entry point into one artifact
type Engine interface {
	Bundle(ctx context.Context, req Request) (*Result, error)
}

// Request names an entry point and the artifact path it is bundled into
type Request struct {
	Entry   string
	Outfile string
}

// Result describes the files written for one request
type Result struct {
	Outfile string   // Artifact path as requested
	Files   []string // Every file written, artifact and source map
	Bytes   int      // Size of the artifact
}

// BundleError is returned when esbuild rejects an entry point
type BundleError struct {
	Entry    string
	Messages []string
}

// Error implements the error interface
func (e *BundleError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("bundle failed for %s", e.Entry)
	}
	return fmt.Sprintf("bundle failed for %s: %s", e.Entry, strings.Join(e.Messages, "; "))
}

// Esbuild is the Engine backed by the esbuild Go API.
// Sources are read from disk; artifacts are written through fs.
type Esbuild struct {
	fs      afero.Fs
	opts    Options
	workDir string
}

// NewEsbuild creates an esbuild engine writing to fs.
// Relative entry points and outfiles are resolved against workDir,
// or the current directory when workDir is empty.
func NewEsbuild(fs afero.Fs, opts Options, workDir string) (*Esbuild, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	return &Esbuild{
		fs:      fs,
		opts:    opts,
		workDir: absWorkDir,
	}, nil
}

// Bundle builds req.Entry and writes the artifact and its source map next to req.Outfile
func (e *Esbuild) Bundle(ctx context.Context, req Request) (*Result, error) {
	res, err := e.run(ctx, req)
	if err != nil {
		return nil, err
	}

	absOut := e.abs(req.Outfile)
	outDir := filepath.Dir(req.Outfile)

	if err := e.fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	result := &Result{Outfile: req.Outfile}
	for _, file := range res.OutputFiles {
		// esbuild reports absolute paths; keep them relative to the requested outfile
		rel, err := filepath.Rel(filepath.Dir(absOut), file.Path)
		if err != nil {
			return nil, fmt.Errorf("unexpected output path %s: %w", file.Path, err)
		}
		dest := filepath.Join(outDir, rel)

		if err := afero.WriteFile(e.fs, dest, file.Contents, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", dest, err)
		}
		result.Files = append(result.Files, dest)

		if file.Path == absOut {
			result.Bytes = len(file.Contents)
		}
	}

	log.Debug().
		Str("entry", req.Entry).
		Strs("files", result.Files).
		Int("bytes", result.Bytes).
		Msg("esbuild output written")

	return result, nil
}

// Analyze builds req.Entry in memory and reports what the bundle is made of.
// Nothing is written.
func (e *Esbuild) Analyze(ctx context.Context, req Request, name string) (*AnalysisResult, error) {
	res, err := e.run(ctx, req)
	if err != nil {
		return nil, err
	}

	var metafile Metafile
	if err := json.Unmarshal([]byte(res.Metafile), &metafile); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	analysis := analyzeMetafile(&metafile, name, e.workDir)
	for _, w := range res.Warnings {
		analysis.Warnings = append(analysis.Warnings, formatMessage(w))
	}
	return analysis, nil
}

// run executes one build, cancelling esbuild when ctx is done
func (e *Esbuild) run(ctx context.Context, req Request) (*api.BuildResult, error) {
	opts := e.opts.buildOptions(req.Entry, req.Outfile, e.workDir)

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return nil, &BundleError{Entry: req.Entry, Messages: formatMessages(ctxErr.Errors)}
	}
	defer buildCtx.Dispose()

	done := make(chan api.BuildResult, 1)
	go func() {
		done <- buildCtx.Rebuild()
	}()

	var res api.BuildResult
	select {
	case res = <-done:
	case <-ctx.Done():
		buildCtx.Cancel()
		<-done
		return nil, fmt.Errorf("bundling %s: %w", req.Entry, ctx.Err())
	}

	if len(res.Errors) > 0 {
		return nil, &BundleError{Entry: req.Entry, Messages: formatMessages(res.Errors)}
	}

	return &res, nil
}

func (e *Esbuild) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.workDir, path)
}

func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, formatMessage(m))
	}
	return out
}

func formatMessage(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}
