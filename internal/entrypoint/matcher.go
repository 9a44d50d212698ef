// Package entrypoint recognises client bundle entry points by filename.
package entrypoint

import (
	"strings"
)

// Kind classifies a filename
type Kind int

const (
	// NotAnEntryPoint is any file outside the react.ts / react.js convention
	NotAnEntryPoint Kind = iota
	// ImplicitEntryPoint is the bare convention file, one artifact per directory
	ImplicitEntryPoint
	// NamedEntryPoint is <name>.react.ts or <name>.react.js
	NamedEntryPoint
)

// String returns the kind name used in logs and listings
func (k Kind) String() string {
	switch k {
	case ImplicitEntryPoint:
		return "implicit"
	case NamedEntryPoint:
		return "named"
	default:
		return "none"
	}
}

// entrySuffixes are matched against the whole filename, not the extension
var entrySuffixes = []string{"react.ts", "react.js"}

// namedSuffixes are stripped once, anchored at the end of the filename
var namedSuffixes = []string{".react.ts", ".react.js"}

// Match is a candidate file recognised as an entry point
type Match struct {
	Kind   Kind
	Source string // Path of the entry point file
	Dir    string // Directory containing the entry point
	Name   string // Output name override, empty for implicit entry points
	Root   string // Source root the file was discovered under
}

// Classify decides whether filename is an entry point and derives its output name.
// The name is only non-empty for NamedEntryPoint.
func Classify(filename string) (Kind, string) {
	if !hasAnySuffix(filename, entrySuffixes) {
		return NotAnEntryPoint, ""
	}

	for _, suffix := range namedSuffixes {
		if name, ok := strings.CutSuffix(filename, suffix); ok && name != "" {
			return NamedEntryPoint, name
		}
	}

	return ImplicitEntryPoint, ""
}

// IsEntryPoint reports whether filename follows the entry point convention
func IsEntryPoint(filename string) bool {
	kind, _ := Classify(filename)
	return kind != NotAnEntryPoint
}

// MatchFile classifies the file at path (inside dir, discovered under root).
// The second return value is false when the file is not an entry point.
func MatchFile(root, dir, path, filename string) (Match, bool) {
	kind, name := Classify(filename)
	if kind == NotAnEntryPoint {
		return Match{}, false
	}
	return Match{
		Kind:   kind,
		Source: path,
		Dir:    dir,
		Name:   name,
		Root:   root,
	}, true
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
