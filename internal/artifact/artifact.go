// Package artifact maps entry points to their output files and owns the output tree.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/fluxbase-eu/reactbundle/internal/entrypoint"
)

const (
	// DefaultFileName is the artifact name of an implicit entry point
	DefaultFileName = "out.js"

	namedFileSuffix = ".out.js"
)

var (
	// ErrOutsideRoot is returned when an entry point does not descend from its source root
	ErrOutsideRoot = errors.New("entry point is outside its source root")

	// ErrUnsafeOutputRoot is returned when cleaning would remove the working or filesystem root
	ErrUnsafeOutputRoot = errors.New("refusing to clean unsafe output root")
)

// OutputRoot is the directory that holds every artifact of a build
type OutputRoot string

// String returns the cleaned path
func (r OutputRoot) String() string {
	return filepath.Clean(string(r))
}

// Clean removes the output root and everything below it.
// A missing directory is not an error.
func (r OutputRoot) Clean(fs afero.Fs) error {
	if err := r.checkSafe(); err != nil {
		return err
	}

	if err := fs.RemoveAll(r.String()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove output root %s: %w", r, err)
	}
	return nil
}

// Contains reports whether path lies inside the output root.
// Relative paths are resolved against the working directory first.
func (r OutputRoot) Contains(path string) bool {
	return Within(r.String(), path)
}

// Within reports whether path is dir or lies below it
func Within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (r OutputRoot) checkSafe() error {
	if strings.TrimSpace(string(r)) == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafeOutputRoot)
	}
	p := r.String()
	if p == "." || p == string(filepath.Separator) || p == filepath.VolumeName(p)+string(filepath.Separator) {
		return fmt.Errorf("%w: %s", ErrUnsafeOutputRoot, p)
	}
	return nil
}

// FileName returns the artifact filename for an output name.
// An empty name is the implicit entry point of a directory.
func FileName(name string) string {
	if name == "" {
		return DefaultFileName
	}
	return name + namedFileSuffix
}

// Mapper computes artifact paths. It never touches the filesystem.
type Mapper struct {
	out OutputRoot
}

// NewMapper creates a mapper rebasing entry points under out
func NewMapper(out OutputRoot) *Mapper {
	return &Mapper{out: out}
}

// OutputRoot returns the root the mapper writes under
func (m *Mapper) OutputRoot() OutputRoot {
	return m.out
}

// Path returns the artifact path of an entry point.
//
// The entry's directory is taken relative to the parent of its source root,
// so the root's own name is kept: web/routes/foo/react.ts maps to
// <out>/routes/foo/out.js.
func (m *Mapper) Path(match entrypoint.Match) (string, error) {
	root := filepath.Clean(match.Root)
	dir := filepath.Clean(match.Dir)

	inRoot, err := filepath.Rel(root, dir)
	if err != nil || inRoot == ".." || strings.HasPrefix(inRoot, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s not under %s", ErrOutsideRoot, dir, root)
	}

	rel, err := filepath.Rel(filepath.Dir(root), dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s not under %s", ErrOutsideRoot, dir, root)
	}

	return filepath.Join(m.out.String(), rel, FileName(match.Name)), nil
}

// RootPrefix returns the directory name a source root occupies in the output tree
func RootPrefix(root string) string {
	return filepath.Base(filepath.Clean(root))
}
