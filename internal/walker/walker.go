// Package walker lists every file below a source root, depth first.
package walker

import (
	"errors"
	"fmt"
	"iter"
	"path/filepath"

	"github.com/spf13/afero"
)

// Candidate is a file discovered during a walk
type Candidate struct {
	Path string // Path of the file, joined onto the walked root
	Dir  string // Directory containing the file
	Name string // Base filename
}

// Walker traverses directory trees on an afero filesystem.
// Symbolic links are reported as files and never descended into.
type Walker struct {
	fs afero.Fs
}

// New creates a walker over fs
func New(fs afero.Fs) *Walker {
	return &Walker{fs: fs}
}

// Walk returns a lazy sequence of every file reachable from root.
// Errors do not name root, callers add it.
//
// Entries of a directory are visited in lexicographic order and a
// subdirectory is fully descended at its sorted position. The first read
// failure is yielded as an error and ends the sequence.
func (w *Walker) Walk(root string) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		root = filepath.Clean(root)

		info, err := w.fs.Stat(root)
		if err != nil {
			yield(Candidate{}, fmt.Errorf("failed to stat source root: %w", err))
			return
		}
		if !info.IsDir() {
			yield(Candidate{}, errors.New("source root is not a directory"))
			return
		}

		visited := map[string]bool{root: true}

		// Pending entries, top of stack is the next to visit
		stack := []entry{{path: root, dir: true}}

		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !e.dir {
				c := Candidate{
					Path: e.path,
					Dir:  filepath.Dir(e.path),
					Name: filepath.Base(e.path),
				}
				if !yield(c, nil) {
					return
				}
				continue
			}

			children, err := afero.ReadDir(w.fs, e.path)
			if err != nil {
				yield(Candidate{}, fmt.Errorf("failed to read directory: %w", err))
				return
			}

			// Push in reverse so the smallest name is popped first
			for i := len(children) - 1; i >= 0; i-- {
				child := children[i]
				childPath := filepath.Join(e.path, child.Name())
				isDir := child.IsDir()
				if isDir {
					if visited[childPath] {
						continue
					}
					visited[childPath] = true
				}
				stack = append(stack, entry{path: childPath, dir: isDir})
			}
		}
	}
}

// Files collects the whole walk of root. It stops at the first error.
func (w *Walker) Files(root string) ([]Candidate, error) {
	var files []Candidate
	for c, err := range w.Walk(root) {
		if err != nil {
			return nil, err
		}
		files = append(files, c)
	}
	return files, nil
}

type entry struct {
	path string
	dir  bool
}
