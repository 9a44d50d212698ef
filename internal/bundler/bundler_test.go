package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, "web/routes/foo/react-component.tsx", `
export function Hello(props: { name: string }) {
	return <div className="hello">Hello {props.name}</div>;
}
`)
	writeSource(t, dir, "web/routes/foo/react.ts", `
import { Hello } from "./react-component";

const React = { createElement: (..._args: unknown[]) => null };
if (process.env.NODE_ENV !== "production") {
	console.log("development build");
}
export const app = Hello({ name: "world" });
export default React;
`)
	return dir
}

func TestEsbuild_BundleWritesArtifactAndSourceMap(t *testing.T) {
	dir := newProject(t)
	engine, err := NewEsbuild(afero.NewOsFs(), DefaultOptions(), dir)
	require.NoError(t, err)

	outfile := filepath.Join(dir, "web/embed/assets/react/routes/foo/out.js")
	result, err := engine.Bundle(context.Background(), Request{
		Entry:   filepath.Join(dir, "web/routes/foo/react.ts"),
		Outfile: outfile,
	})
	require.NoError(t, err)

	assert.Equal(t, outfile, result.Outfile)
	assert.ElementsMatch(t, []string{outfile, outfile + ".map"}, result.Files)
	assert.Positive(t, result.Bytes)

	code, err := os.ReadFile(outfile)
	require.NoError(t, err)
	assert.Contains(t, string(code), "sourceMappingURL=out.js.map")
	assert.NotContains(t, string(code), "development build", "NODE_ENV should be defined as production")

	_, err = os.Stat(outfile + ".map")
	assert.NoError(t, err)
}

func TestEsbuild_BundleWritesThroughFs(t *testing.T) {
	dir := newProject(t)
	mem := afero.NewMemMapFs()
	engine, err := NewEsbuild(mem, DefaultOptions(), dir)
	require.NoError(t, err)

	outfile := filepath.Join(dir, "out/routes/foo/widget.out.js")
	_, err = engine.Bundle(context.Background(), Request{
		Entry:   filepath.Join(dir, "web/routes/foo/react.ts"),
		Outfile: outfile,
	})
	require.NoError(t, err)

	exists, err := afero.Exists(mem, outfile)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = os.Stat(outfile)
	assert.True(t, os.IsNotExist(err), "artifact must not reach the real disk")
}

func TestEsbuild_BundleWithoutSourcemap(t *testing.T) {
	dir := newProject(t)
	opts := DefaultOptions()
	opts.Sourcemap = false
	engine, err := NewEsbuild(afero.NewOsFs(), opts, dir)
	require.NoError(t, err)

	outfile := filepath.Join(dir, "out/out.js")
	result, err := engine.Bundle(context.Background(), Request{
		Entry:   filepath.Join(dir, "web/routes/foo/react.ts"),
		Outfile: outfile,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{outfile}, result.Files)
}

func TestEsbuild_BundleError(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "web/routes/broken/react.ts", `import { missing } from "./does-not-exist";
export const x = missing;
`)
	engine, err := NewEsbuild(afero.NewOsFs(), DefaultOptions(), dir)
	require.NoError(t, err)

	_, err = engine.Bundle(context.Background(), Request{
		Entry:   entry,
		Outfile: filepath.Join(dir, "out/broken/out.js"),
	})
	require.Error(t, err)

	var bundleErr *BundleError
	require.True(t, errors.As(err, &bundleErr))
	assert.Equal(t, entry, bundleErr.Entry)
	require.NotEmpty(t, bundleErr.Messages)
	assert.Contains(t, strings.Join(bundleErr.Messages, "\n"), "Could not resolve")

	_, statErr := os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEsbuild_BundleSyntaxError(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "react.js", "export const = ;\n")
	engine, err := NewEsbuild(afero.NewOsFs(), DefaultOptions(), dir)
	require.NoError(t, err)

	_, err = engine.Bundle(context.Background(), Request{Entry: entry, Outfile: filepath.Join(dir, "out.js")})

	var bundleErr *BundleError
	require.ErrorAs(t, err, &bundleErr)
	assert.Contains(t, bundleErr.Error(), "bundle failed for")
}

func TestEsbuild_Analyze(t *testing.T) {
	dir := newProject(t)
	engine, err := NewEsbuild(afero.NewMemMapFs(), DefaultOptions(), dir)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), Request{
		Entry:   filepath.Join(dir, "web/routes/foo/react.ts"),
		Outfile: filepath.Join(dir, "out/routes/foo/out.js"),
	}, "routes/foo/out.js")
	require.NoError(t, err)

	assert.Equal(t, "routes/foo/out.js", result.Name)
	assert.Positive(t, result.TotalBytes)
	assert.Positive(t, result.SourceMapBytes)
	assert.NotEmpty(t, result.InputFiles)

	var paths []string
	for _, f := range result.InputFiles {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "web/routes/foo/react-component.tsx")
}

func TestNewEsbuild_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = "amd"

	_, err := NewEsbuild(afero.NewMemMapFs(), opts, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bundle format")
}

func TestBundleError_Error(t *testing.T) {
	err := &BundleError{Entry: "web/routes/foo/react.ts", Messages: []string{"a", "b"}}
	assert.Equal(t, "bundle failed for web/routes/foo/react.ts: a; b", err.Error())

	err = &BundleError{Entry: "x"}
	assert.Equal(t, "bundle failed for x", err.Error())
}
