// Package contextdoc resolves and reads the context document that task
// proposal runs against.
//
// The document itself is produced by an external collaborator (capture and
// text extraction); this package only locates and reads it.
package contextdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
)

// DefaultMaxBytes bounds how much of a context document is read.
const DefaultMaxBytes = 256 * 1024

// UnavailableError is returned when the context document is missing,
// unreadable or empty.
type UnavailableError struct {
	Ref string
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("context unavailable: %v", e.Err)
	}
	return fmt.Sprintf("context %s unavailable: %v", e.Ref, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, pipeerr.ErrContextUnavailable) match.
func (e *UnavailableError) Is(target error) bool {
	return target == pipeerr.ErrContextUnavailable
}

// Source locates and reads context documents.
type Source interface {
	// Ref returns a reference to the current context document.
	Ref(ctx context.Context) (string, error)
	// Read returns the text of the document behind ref.
	Read(ctx context.Context, ref string) (string, error)
}

// FileSource serves context documents from the filesystem. Path may be a
// file, or a directory in which case the newest file matching Pattern is
// the current document.
type FileSource struct {
	Path     string
	Pattern  string
	MaxBytes int64
}

// NewFileSource creates a FileSource with default limits.
func NewFileSource(path, pattern string) *FileSource {
	return &FileSource{Path: path, Pattern: pattern, MaxBytes: DefaultMaxBytes}
}

// Ref resolves the current document path.
func (s *FileSource) Ref(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UnavailableError{Ref: s.Path, Err: err}
	}
	if strings.TrimSpace(s.Path) == "" {
		return "", &UnavailableError{Err: errors.New("no context path configured")}
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		return "", &UnavailableError{Ref: s.Path, Err: err}
	}
	if !info.IsDir() {
		return s.Path, nil
	}

	newest, err := newestMatch(s.Path, s.pattern())
	if err != nil {
		return "", &UnavailableError{Ref: s.Path, Err: err}
	}
	return newest, nil
}

// Read returns the document text, truncated to MaxBytes.
func (s *FileSource) Read(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UnavailableError{Ref: ref, Err: err}
	}
	if ref == "" {
		return "", &UnavailableError{Err: errors.New("empty context reference")}
	}

	f, err := os.Open(ref)
	if err != nil {
		return "", &UnavailableError{Ref: ref, Err: err}
	}
	defer f.Close()

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", &UnavailableError{Ref: ref, Err: err}
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", &UnavailableError{Ref: ref, Err: errors.New("document is empty")}
	}
	return text, nil
}

func (s *FileSource) pattern() string {
	if s.Pattern == "" {
		return "*"
	}
	return s.Pattern
}

// newestMatch returns the most recently modified regular file in dir whose
// name matches pattern.
func newestMatch(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}

	var newest string
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		mod := info.ModTime().UnixNano()
		if newest == "" || mod > newestMod || (mod == newestMod && m > newest) {
			newest, newestMod = m, mod
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no files matching %s in %s", pattern, dir)
	}
	return newest, nil
}

// StaticSource serves a fixed in-memory document. It is useful for piping
// text into the CLI and for tests.
type StaticSource struct {
	Name string
	Text string
}

// Ref returns the static name, or an error when there is no text.
func (s StaticSource) Ref(ctx context.Context) (string, error) {
	if strings.TrimSpace(s.Text) == "" {
		return "", &UnavailableError{Ref: s.Name, Err: errors.New("document is empty")}
	}
	return s.name(), nil
}

// Read returns the text when ref matches the static name.
func (s StaticSource) Read(ctx context.Context, ref string) (string, error) {
	if ref != s.name() {
		return "", &UnavailableError{Ref: ref, Err: errors.New("unknown reference")}
	}
	if strings.TrimSpace(s.Text) == "" {
		return "", &UnavailableError{Ref: ref, Err: errors.New("document is empty")}
	}
	return s.Text, nil
}

func (s StaticSource) name() string {
	if s.Name == "" {
		return "static"
	}
	return s.Name
}

var (
	_ Source = (*FileSource)(nil)
	_ Source = StaticSource{}
)
