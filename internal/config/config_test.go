package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg, err := Default()
	if err != nil {
		panic(err)
	}
	return *cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reactbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join("web", "routes"), filepath.Join("web", "components")}, cfg.SourceRoots)
	assert.Equal(t, filepath.Join("web", "embed", "assets", "react"), cfg.OutputRoot)
	assert.Equal(t, 1, cfg.Build.Parallelism)
	assert.Equal(t, DuplicatePolicyError, cfg.Build.DuplicatePolicy)
	assert.Equal(t, time.Duration(0), cfg.Build.Timeout)
	assert.True(t, cfg.Bundle.Minify)
	assert.True(t, cfg.Bundle.Sourcemap)
	assert.Equal(t, "esm", cfg.Bundle.Format)
	assert.Equal(t, "es6", cfg.Bundle.Target)
	assert.Equal(t, []string{`process.env.NODE_ENV="production"`}, cfg.Bundle.Define)
	assert.Equal(t, []string{".js=jsx", ".ts=tsx"}, cfg.Bundle.Loader)
	assert.Empty(t, cfg.Metrics.Textfile)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Debug)

	opts, err := cfg.Bundle.Options()
	require.NoError(t, err)
	assert.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	assert.Equal(t, "tsx", opts.Loader[".ts"])
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
source_roots:
  - app/pages
output_root: public/bundles
build:
  parallelism: 4
  duplicate_policy: last-write-wins
  timeout: 30s
bundle:
  minify: false
  target: es2020
  define:
    - process.env.NODE_ENV="development"
    - __VERSION__="1.2.3"
  external:
    - react
metrics:
  textfile: metrics/build.prom
debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"app/pages"}, cfg.SourceRoots)
	assert.Equal(t, "public/bundles", cfg.OutputRoot)
	assert.Equal(t, 4, cfg.Build.Parallelism)
	assert.Equal(t, DuplicatePolicyLastWriteWins, cfg.Build.DuplicatePolicy)
	assert.Equal(t, 30*time.Second, cfg.Build.Timeout)
	assert.False(t, cfg.Bundle.Minify)
	assert.True(t, cfg.Bundle.Sourcemap, "unset keys keep their defaults")
	assert.Equal(t, "es2020", cfg.Bundle.Target)
	assert.Equal(t, []string{"react"}, cfg.Bundle.External)
	assert.Equal(t, "metrics/build.prom", cfg.Metrics.Textfile)
	assert.True(t, cfg.Debug)

	opts, err := cfg.Bundle.Options()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"process.env.NODE_ENV": `"development"`,
		"__VERSION__":          `"1.2.3"`,
	}, opts.Define)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "output_root: from/file\n")
	t.Setenv("REACTBUNDLE_OUTPUT_ROOT", "from/env")
	t.Setenv("REACTBUNDLE_BUILD_PARALLELISM", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from/env", cfg.OutputRoot)
	assert.Equal(t, 3, cfg.Build.Parallelism)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "build:\n  duplicate_policy: first-wins\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duplicate_policy")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name:    "no source roots",
			modify:  func(c *Config) { c.SourceRoots = nil },
			wantErr: ErrNoSourceRoots.Error(),
		},
		{
			name:    "empty source root",
			modify:  func(c *Config) { c.SourceRoots = []string{"web/routes", " "} },
			wantErr: "source root cannot be empty",
		},
		{
			name:    "roots with the same base name",
			modify:  func(c *Config) { c.SourceRoots = []string{"web/routes", "admin/routes"} },
			wantErr: "would share output directory routes",
		},
		{
			name:    "empty output root",
			modify:  func(c *Config) { c.OutputRoot = "" },
			wantErr: "output_root cannot be empty",
		},
		{
			name:    "source root inside output root",
			modify:  func(c *Config) { c.OutputRoot = "web" },
			wantErr: "would be deleted on cleanup",
		},
		{
			name:    "output root inside source root",
			modify:  func(c *Config) { c.OutputRoot = "web/routes/dist" },
			wantErr: "is inside source root",
		},
		{
			name: "absolute output root containing a relative source root",
			modify: func(c *Config) {
				wd, err := os.Getwd()
				if err != nil {
					panic(err)
				}
				c.OutputRoot = filepath.Join(wd, "web")
			},
			wantErr: "would be deleted on cleanup",
		},
		{
			name: "relative output root inside an absolute source root",
			modify: func(c *Config) {
				wd, err := os.Getwd()
				if err != nil {
					panic(err)
				}
				c.SourceRoots = []string{filepath.Join(wd, "web")}
				c.OutputRoot = "web/dist"
			},
			wantErr: "is inside source root",
		},
		{
			name:    "nested source roots",
			modify:  func(c *Config) { c.SourceRoots = []string{"web", "web/routes"} },
			wantErr: "overlap",
		},
		{
			name:    "nested source roots in reverse order",
			modify:  func(c *Config) { c.SourceRoots = []string{"app/web/routes", "./app/web"} },
			wantErr: "overlap",
		},
		{
			name:    "zero parallelism",
			modify:  func(c *Config) { c.Build.Parallelism = 0 },
			wantErr: "parallelism must be at least 1",
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Build.Timeout = -time.Second },
			wantErr: "timeout cannot be negative",
		},
		{
			name:    "unknown target",
			modify:  func(c *Config) { c.Bundle.Target = "es1" },
			wantErr: "invalid bundle target",
		},
		{
			name:    "malformed define",
			modify:  func(c *Config) { c.Bundle.Define = []string{"NODE_ENV"} },
			wantErr: "expected key=value",
		},
		{
			name: "tracing without endpoint",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Endpoint = ""
			},
			wantErr: "tracing endpoint cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"a=1", " b =x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, got)

	got, err = parsePairs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parsePairs([]string{"=value"})
	assert.Error(t, err)
}
