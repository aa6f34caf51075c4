// Package models defines the domain types for Ansuz.
package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/enml"
)

// Note represents a single parsed ENEX archive.
//
// Path is the note's identity: the corpus-relative path of the source
// archive, unique within a run. Title and Path are immutable after
// loading; Content is mutated in place by the tag remapping engine
// during rendering.
type Note struct {
	Path       string
	Title      string
	Content    *enml.Element
	Created    time.Time
	Attributes map[string]string
}

// Key returns the note's crosslink identity key: the corpus-relative
// source path with the archive extension stripped.
func (n *Note) Key() string {
	return StripExt(n.Path)
}

// OutputPath returns the corpus-relative path of the note's rendered
// file for the given output extension (".html" or ".txt").
func (n *Note) OutputPath(ext string) string {
	return StripExt(n.Path) + ext
}

// Notebook is a directory grouping of notes and the target of one
// index page per output format.
type Notebook struct {
	Dir   string // corpus-relative directory path
	Notes []*Note
}

// StripExt removes the final extension from a corpus-relative path.
func StripExt(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext)
}
