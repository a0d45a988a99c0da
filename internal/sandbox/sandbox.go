// Package sandbox confines the file and font access a compiler worker is
// allowed during compilation. A Sandbox resolves relative references against
// a single root directory and refuses anything that would escape it,
// including via symlinks. It is read-only and safe for concurrent use.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for sandbox operations.
var (
	ErrInvalidRoot  = errors.New("invalid sandbox root")
	ErrOutsideRoot  = errors.New("path escapes sandbox root")
	ErrFileNotFound = errors.New("file not found in sandbox")
)

// Sandbox resolves file references inside a root directory.
type Sandbox struct {
	root string
}

// New creates a Sandbox rooted at dir.
// Returns ErrInvalidRoot if dir is not a readable directory.
func New(dir string) (*Sandbox, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	// Resolve symlinks in the root so containment checks compare real paths.
	realPath, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidRoot, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidRoot, absPath)
	}
	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidRoot, err)
	}

	return &Sandbox{root: absPath}, nil
}

// Root returns the resolved root directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a reference from a compiled source onto an absolute path
// inside the root. Returns ErrOutsideRoot for absolute references or any
// reference that traverses out of the root.
func (s *Sandbox) Resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}

	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := s.verifyContainment(path); err != nil {
		return "", err
	}
	return path, nil
}

// ReadFile reads a sandboxed file by its source-relative name.
func (s *Sandbox) ReadFile(name string) ([]byte, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path containment verified above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
		}
		return nil, err
	}
	return data, nil
}

// verifyContainment ensures path stays within the root after cleaning and
// symlink resolution.
func (s *Sandbox) verifyContainment(path string) error {
	cleaned := filepath.Clean(path)
	if !strings.HasPrefix(cleaned, s.root+string(filepath.Separator)) && cleaned != s.root {
		return fmt.Errorf("%w: %q", ErrOutsideRoot, path)
	}

	// The file may not exist yet for Resolve callers; only check symlink
	// escapes when the path resolves.
	real, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return nil
	}
	if !strings.HasPrefix(real, s.root+string(filepath.Separator)) && real != s.root {
		return fmt.Errorf("%w: %q resolves outside the root", ErrOutsideRoot, path)
	}
	return nil
}
