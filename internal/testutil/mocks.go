// Package testutil provides shared test utilities and mocks for unit testing.
package testutil

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/fluxbase-eu/reactbundle/internal/bundler"
)

// MockEngine implements bundler.Engine by writing a small artifact and
// source map to fs for every request
type MockEngine struct {
	fs afero.Fs

	mu    sync.Mutex
	calls []bundler.Request

	// Callback for custom behavior, run before anything is written
	OnBundle func(ctx context.Context, req bundler.Request) error
}

// NewMockEngine creates a mock engine writing to fs
func NewMockEngine(fs afero.Fs) *MockEngine {
	return &MockEngine{fs: fs}
}

// Bundle records the request and writes "// bundled <entry>" to req.Outfile
func (m *MockEngine) Bundle(ctx context.Context, req bundler.Request) (*bundler.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.OnBundle != nil {
		if err := m.OnBundle(ctx, req); err != nil {
			return nil, err
		}
	}

	code := []byte("// bundled " + filepath.ToSlash(req.Entry) + "\n")
	if err := m.fs.MkdirAll(filepath.Dir(req.Outfile), 0o755); err != nil {
		return nil, err
	}
	if err := afero.WriteFile(m.fs, req.Outfile, code, 0o644); err != nil {
		return nil, err
	}
	if err := afero.WriteFile(m.fs, req.Outfile+".map", []byte("{}"), 0o644); err != nil {
		return nil, err
	}

	return &bundler.Result{
		Outfile: req.Outfile,
		Files:   []string{req.Outfile, req.Outfile + ".map"},
		Bytes:   len(code),
	}, nil
}

// Entries returns the entry point of every request in call order, slash separated
func (m *MockEngine) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = filepath.ToSlash(c.Entry)
	}
	return out
}

// FailOn returns an OnBundle callback rejecting the given entry points
func FailOn(entries ...string) func(ctx context.Context, req bundler.Request) error {
	fail := make(map[string]bool, len(entries))
	for _, e := range entries {
		fail[filepath.Clean(filepath.FromSlash(e))] = true
	}
	return func(ctx context.Context, req bundler.Request) error {
		if fail[filepath.Clean(req.Entry)] {
			return &bundler.BundleError{Entry: req.Entry, Messages: []string{`Could not resolve "./missing"`}}
		}
		return nil
	}
}

// BlockUntilDone is an OnBundle callback that waits for the context to end
func BlockUntilDone(ctx context.Context, req bundler.Request) error {
	<-ctx.Done()
	return ctx.Err()
}
