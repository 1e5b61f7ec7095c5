// Package security confines client-supplied paths to a root directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the sandbox root.
var ErrOutsideRoot = errors.New("path is outside the document directory")

// Sandbox resolves paths relative to a root directory and rejects any
// that leave it, including through symlinks.
type Sandbox struct {
	root string
}

// NewSandbox creates a sandbox rooted at dir.
func NewSandbox(dir string) (*Sandbox, error) {
	if dir == "" {
		return nil, fmt.Errorf("sandbox directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox directory: %w", err)
	}
	return &Sandbox{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve returns the absolute form of path. Relative paths are taken
// relative to the root; "" resolves to the root itself.
func (s *Sandbox) Resolve(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains a NUL byte")
	}
	if path == "" {
		path = s.root
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)

	if !within(path, s.root) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	// Compare real locations when both exist so a symlink inside the root
	// cannot point outside it.
	realRoot, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("failed to resolve sandbox directory: %w", err)
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !within(realPath, realRoot) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	return path, nil
}

// ResolveDirectory resolves dir and requires it to be an existing directory.
func (s *Sandbox) ResolveDirectory(dir string) (string, error) {
	path, err := s.Resolve(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return path, nil
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
