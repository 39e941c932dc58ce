// Package source provides the line-oriented text streams that rules import their
// pattern and prefix lists from.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoPath is returned by FileSource.Open when no path is configured.
var ErrNoPath = errors.New("source path is empty")

// Source yields a fresh reader each time it is opened.
type Source interface {
	// Open returns a reader over the full content. The caller closes it.
	Open() (io.ReadCloser, error)

	// Name identifies the source in logs and errors.
	Name() string
}

// FileSource reads from a file on disk.
type FileSource struct {
	Path string
}

// NewFileSource returns a FileSource, or nil when path is empty so that callers
// can treat "not configured" uniformly.
func NewFileSource(path string) Source {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return &FileSource{Path: path}
}

func (f *FileSource) Open() (io.ReadCloser, error) {
	if f.Path == "" {
		return nil, ErrNoPath
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", f.Path, err)
	}
	return fh, nil
}

func (f *FileSource) Name() string { return f.Path }

// StringSource serves fixed text, typically inline configuration.
type StringSource struct {
	Label string
	Text  string
}

func (s *StringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Text)), nil
}

func (s *StringSource) Name() string {
	if s.Label == "" {
		return "inline"
	}
	return s.Label
}

var _ Source = (*FileSource)(nil)
var _ Source = (*StringSource)(nil)
