// Package build discovers entry points under the source roots and bundles each one
// into the output tree.
package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/fluxbase-eu/reactbundle/internal/artifact"
	"github.com/fluxbase-eu/reactbundle/internal/bundler"
	"github.com/fluxbase-eu/reactbundle/internal/observability"
	"github.com/fluxbase-eu/reactbundle/internal/walker"
)

// Orchestrator runs one full build: cleanup, discovery, bundling
type Orchestrator struct {
	fs          afero.Fs
	engine      bundler.Engine
	walker      *walker.Walker
	mapper      *artifact.Mapper
	roots       []string
	out         artifact.OutputRoot
	policy      DuplicatePolicy
	parallelism int
	timeout     time.Duration
	metrics     *observability.Metrics
	tracer      *observability.Tracer
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithDuplicatePolicy sets how entry points sharing an artifact path are handled
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(o *Orchestrator) {
		o.policy = policy
	}
}

// WithParallelism bundles up to n entry points at once
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithTimeout bounds each bundle invocation, 0 disables the deadline
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithMetrics records build metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTracer records build spans
func WithTracer(t *observability.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// New creates an orchestrator for the given roots, walked in order.
// The output root is owned by the orchestrator and wiped on every run.
func New(fs afero.Fs, engine bundler.Engine, roots []string, out artifact.OutputRoot, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fs:          fs,
		engine:      engine,
		walker:      walker.New(fs),
		mapper:      artifact.NewMapper(out),
		roots:       roots,
		out:         out,
		policy:      DuplicatePolicyError,
		parallelism: 1,
		tracer:      observability.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Artifact is one bundle produced by a run
type Artifact struct {
	Source   string        `json:"source" yaml:"source"`
	Output   string        `json:"output" yaml:"output"`
	Kind     string        `json:"kind" yaml:"kind"`
	Bytes    int           `json:"bytes" yaml:"bytes"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Report summarises a successful run
type Report struct {
	BuildID    string        `json:"build_id" yaml:"build_id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	OutputRoot string        `json:"output_root" yaml:"output_root"`
	Artifacts  []Artifact    `json:"artifacts" yaml:"artifacts"`
	Overridden []string      `json:"overridden,omitempty" yaml:"overridden,omitempty"`
}

// Run performs one build pass.
//
// The output root is removed first. Any walk, mapping or bundle error aborts
// the run; after a bundle error the output root is removed again so no partial
// artifact set is left behind.
func (o *Orchestrator) Run(ctx context.Context) (report *Report, err error) {
	started := time.Now()
	buildID := uuid.NewString()

	ctx, span := o.tracer.StartBuildSpan(ctx, buildID, o.roots, o.out.String())
	defer func() {
		o.metrics.RecordBuild(time.Since(started), err)
		observability.EndSpan(span, err)
	}()

	log.Debug().
		Str("build_id", buildID).
		Strs("roots", o.roots).
		Str("output_root", o.out.String()).
		Int("parallelism", o.parallelism).
		Msg("Starting build")

	if err := o.clean(); err != nil {
		return nil, err
	}
	observability.AddSpanEvent(ctx, "output_root.cleaned")

	plan, err := o.Plan(ctx)
	if err != nil {
		return nil, err
	}

	artifacts, err := o.execute(ctx, plan)
	if err != nil {
		if cleanErr := o.clean(); cleanErr != nil {
			log.Error().Err(cleanErr).Msg("Failed to remove partial output")
			return nil, errors.Join(err, cleanErr)
		}
		return nil, err
	}

	report = &Report{
		BuildID:    buildID,
		StartedAt:  started,
		Duration:   time.Since(started),
		OutputRoot: o.out.String(),
		Artifacts:  artifacts,
	}
	for _, e := range plan.Overridden {
		report.Overridden = append(report.Overridden, e.Match.Source)
	}

	log.Info().
		Str("build_id", buildID).
		Int("artifacts", len(artifacts)).
		Dur("duration", report.Duration).
		Msg("Bundling complete")

	return report, nil
}

func (o *Orchestrator) clean() error {
	if err := o.out.Clean(o.fs); err != nil {
		return &FilesystemError{Op: "clean", Path: o.out.String(), Err: err}
	}
	return nil
}

// execute bundles every planned entry, stopping at the first failure
func (o *Orchestrator) execute(ctx context.Context, plan *Plan) ([]Artifact, error) {
	artifacts := make([]Artifact, len(plan.Entries))

	if o.parallelism <= 1 {
		for i, entry := range plan.Entries {
			a, err := o.bundle(ctx, entry)
			if err != nil {
				return nil, err
			}
			artifacts[i] = *a
		}
		return artifacts, nil
	}

	// Planned outputs are disjoint, so bundles never touch the same files
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i, entry := range plan.Entries {
		g.Go(func() error {
			a, err := o.bundle(gctx, entry)
			if err != nil {
				return err
			}
			artifacts[i] = *a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (o *Orchestrator) bundle(ctx context.Context, entry Entry) (_ *Artifact, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := entry.Match.Source
	ctx, span := o.tracer.StartBundleSpan(ctx, source, entry.Output, entry.Match.Kind.String())
	defer func() { observability.EndSpan(span, err) }()

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	started := time.Now()
	res, err := o.engine.Bundle(ctx, bundler.Request{Entry: source, Outfile: entry.Output})
	duration := time.Since(started)

	bytes := 0
	if res != nil {
		bytes = res.Bytes
	}
	o.metrics.RecordBundle(duration, bytes, err)

	if err != nil {
		var bundleErr *bundler.BundleError
		if errors.As(err, &bundleErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to bundle %s: %w", source, err)
	}

	log.Info().
		Str("entry", source).
		Str("output", entry.Output).
		Str("artifact", filepath.Base(entry.Output)).
		Int("bytes", bytes).
		Dur("duration", duration).
		Msg("Bundled entry point")

	return &Artifact{
		Source:   source,
		Output:   entry.Output,
		Kind:     entry.Match.Kind.String(),
		Bytes:    bytes,
		Duration: duration,
	}, nil
}
