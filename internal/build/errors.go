package build

import (
	"fmt"
)

// FilesystemError is returned when the source or output tree cannot be read or changed
type FilesystemError struct {
	Op   string // walk or clean
	Path string
	Err  error
}

// Error implements the error interface
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// DuplicateEntryNameError is returned when two entry points produce the same artifact
type DuplicateEntryNameError struct {
	Output string
	First  string
	Second string
}

// Error implements the error interface
func (e *DuplicateEntryNameError) Error() string {
	return fmt.Sprintf("entry points %s and %s both produce %s", e.First, e.Second, e.Output)
}
