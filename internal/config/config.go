// Package config loads build settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/fluxbase-eu/reactbundle/internal/artifact"
	"github.com/fluxbase-eu/reactbundle/internal/bundler"
	"github.com/fluxbase-eu/reactbundle/internal/observability"
)

// EnvPrefix is prepended to every environment variable, e.g. REACTBUNDLE_OUTPUT_ROOT
const EnvPrefix = "REACTBUNDLE"

const (
	// DuplicatePolicyError fails the build when two entry points share an artifact path
	DuplicatePolicyError = "error"
	// DuplicatePolicyLastWriteWins keeps the entry point found last
	DuplicatePolicyLastWriteWins = "last-write-wins"
)

// ErrNoSourceRoots is returned when no source root is configured
var ErrNoSourceRoots = errors.New("at least one source root is required")

// Config represents the build configuration
type Config struct {
	SourceRoots []string                   `mapstructure:"source_roots"`
	OutputRoot  string                     `mapstructure:"output_root"`
	Build       BuildConfig                `mapstructure:"build"`
	Bundle      BundleConfig               `mapstructure:"bundle"`
	Metrics     MetricsConfig              `mapstructure:"metrics"`
	Tracing     observability.TracerConfig `mapstructure:"tracing"`
	Debug       bool                       `mapstructure:"debug"`
}

// BuildConfig controls how the orchestrator runs
type BuildConfig struct {
	Parallelism     int           `mapstructure:"parallelism"`      // 1 bundles sequentially
	DuplicatePolicy string        `mapstructure:"duplicate_policy"` // error or last-write-wins
	Timeout         time.Duration `mapstructure:"timeout"`          // Per entry point, 0 disables
}

// BundleConfig contains the esbuild settings shared by all entry points.
// Define and Loader entries are "key=value" pairs since their keys contain dots.
type BundleConfig struct {
	Minify    bool     `mapstructure:"minify"`
	Sourcemap bool     `mapstructure:"sourcemap"`
	Format    string   `mapstructure:"format"`
	Target    string   `mapstructure:"target"`
	Define    []string `mapstructure:"define"`
	Loader    []string `mapstructure:"loader"`
	External  []string `mapstructure:"external"`
}

// MetricsConfig contains build metrics settings
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // Prometheus textfile path, empty disables
}

// Load loads configuration from configFile (or the default search path),
// a .env file and REACTBUNDLE_* environment variables
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("reactbundle")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("No config file found, using environment variables and defaults")
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("Config file loaded")
	}

	return decode(v)
}

// Default returns the configuration used when nothing is configured
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile() error {
	for _, location := range []string{".env", ".env.local"} {
		if _, err := os.Stat(location); err == nil {
			if err := godotenv.Load(location); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", location, err)
			}
			log.Debug().Str("file", location).Msg(".env file loaded")
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("source_roots", []string{
		filepath.Join("web", "routes"),
		filepath.Join("web", "components"),
	})
	v.SetDefault("output_root", filepath.Join("web", "embed", "assets", "react"))

	// Build defaults
	v.SetDefault("build.parallelism", 1)
	v.SetDefault("build.duplicate_policy", DuplicatePolicyError)
	v.SetDefault("build.timeout", "0s")

	// Bundle defaults
	defaults := bundler.DefaultOptions()
	v.SetDefault("bundle.minify", defaults.Minify)
	v.SetDefault("bundle.sourcemap", defaults.Sourcemap)
	v.SetDefault("bundle.format", defaults.Format)
	v.SetDefault("bundle.target", defaults.Target)
	v.SetDefault("bundle.define", pairs(defaults.Define))
	v.SetDefault("bundle.loader", pairs(defaults.Loader))
	v.SetDefault("bundle.external", []string{})

	// Metrics defaults
	v.SetDefault("metrics.textfile", "")

	// Tracing defaults
	tracing := observability.DefaultTracerConfig()
	v.SetDefault("tracing.enabled", tracing.Enabled)
	v.SetDefault("tracing.endpoint", tracing.Endpoint)
	v.SetDefault("tracing.service_name", tracing.ServiceName)
	v.SetDefault("tracing.environment", tracing.Environment)
	v.SetDefault("tracing.sample_rate", tracing.SampleRate)
	v.SetDefault("tracing.insecure", tracing.Insecure)

	v.SetDefault("debug", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.SourceRoots) == 0 {
		return ErrNoSourceRoots
	}

	prefixes := make(map[string]string, len(c.SourceRoots))
	for _, root := range c.SourceRoots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("source root cannot be empty")
		}
		// Roots share one output tree, keyed by their base name
		prefix := artifact.RootPrefix(root)
		if other, ok := prefixes[prefix]; ok {
			return fmt.Errorf("source roots %s and %s would share output directory %s", other, root, prefix)
		}
		prefixes[prefix] = root
	}

	if strings.TrimSpace(c.OutputRoot) == "" {
		return fmt.Errorf("output_root cannot be empty")
	}

	// A nested root would bundle every entry point below it twice
	for i, root := range c.SourceRoots {
		for _, other := range c.SourceRoots[i+1:] {
			if artifact.Within(root, other) || artifact.Within(other, root) {
				return fmt.Errorf("source roots %s and %s overlap", root, other)
			}
		}
	}

	out := artifact.OutputRoot(c.OutputRoot)
	for _, root := range c.SourceRoots {
		if out.Contains(root) {
			return fmt.Errorf("source root %s is inside output_root %s and would be deleted on cleanup", root, out)
		}
		if artifact.Within(root, c.OutputRoot) {
			return fmt.Errorf("output_root %s is inside source root %s", out, root)
		}
	}

	if err := c.Build.Validate(); err != nil {
		return fmt.Errorf("build configuration error: %w", err)
	}

	if _, err := c.Bundle.Options(); err != nil {
		return fmt.Errorf("bundle configuration error: %w", err)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint cannot be empty when tracing is enabled")
	}

	return nil
}

// Validate validates build settings
func (bc *BuildConfig) Validate() error {
	if bc.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got: %d", bc.Parallelism)
	}

	switch bc.DuplicatePolicy {
	case DuplicatePolicyError, DuplicatePolicyLastWriteWins:
	default:
		return fmt.Errorf("invalid duplicate_policy: %s (must be one of: %s, %s)",
			bc.DuplicatePolicy, DuplicatePolicyError, DuplicatePolicyLastWriteWins)
	}

	if bc.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got: %v", bc.Timeout)
	}

	return nil
}

// Options converts the bundle settings into engine options
func (bc *BundleConfig) Options() (bundler.Options, error) {
	define, err := parsePairs(bc.Define)
	if err != nil {
		return bundler.Options{}, fmt.Errorf("define: %w", err)
	}
	loader, err := parsePairs(bc.Loader)
	if err != nil {
		return bundler.Options{}, fmt.Errorf("loader: %w", err)
	}

	opts := bundler.Options{
		Minify:    bc.Minify,
		Sourcemap: bc.Sourcemap,
		Format:    bc.Format,
		Target:    bc.Target,
		Define:    define,
		Loader:    loader,
		External:  bc.External,
	}
	if err := opts.Validate(); err != nil {
		return bundler.Options{}, err
	}
	return opts, nil
}

// parsePairs splits "key=value" entries on the first '='
func parsePairs(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got: %q", entry)
		}
		out[key] = value
	}
	return out, nil
}

func pairs(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
