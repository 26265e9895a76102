package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store maps chart file names to paths under a media root and to public URLs.
type Store struct {
	Root    string
	BaseURL string
}

// NewStore creates the media root if needed.
func NewStore(root, baseURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Store{Root: root, BaseURL: baseURL}, nil
}

// Path returns the filesystem location of name.
func (s *Store) Path(name string) string { return filepath.Join(s.Root, name) }

// URL returns the public URL of name.
func (s *Store) URL(name string) string { return s.BaseURL + name }

// WriteFile writes data to name atomically: readers see the old or the new
// file, never a partial one.
func (s *Store) WriteFile(name string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(s.Root, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// Sweep removes chart images last modified before cutoff and returns how many
// were deleted.
func (s *Store) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return 0, fmt.Errorf("read media root: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed concurrently
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(s.Path(e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
