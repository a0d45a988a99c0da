package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func newTestSandbox(t *testing.T) (*Sandbox, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "fonts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fonts", "main.ttf"), []byte("font"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New(%q): %v", dir, err)
	}
	return s, dir
}

func TestNewRejectsBadRoots(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		dir  string
	}{
		{"empty", ""},
		{"missing", filepath.Join(t.TempDir(), "nope")},
		{"not a directory", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.dir); !errors.Is(err, ErrInvalidRoot) {
				t.Errorf("New(%q) error = %v, want ErrInvalidRoot", tt.dir, err)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	s, _ := newTestSandbox(t)

	data, err := s.ReadFile("fonts/main.ttf")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "font" {
		t.Errorf("ReadFile = %q, want %q", data, "font")
	}

	if _, err := s.ReadFile("fonts/missing.ttf"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want ErrFileNotFound", err)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	t.Parallel()

	s, _ := newTestSandbox(t)

	tests := []string{
		"",
		"../outside.txt",
		"fonts/../../outside.txt",
		"/etc/passwd",
	}

	for _, name := range tests {
		if _, err := s.Resolve(name); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Resolve(%q) error = %v, want ErrOutsideRoot", name, err)
		}
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on Windows")
	}

	s, dir := newTestSandbox(t)

	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "link.txt")); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Resolve("link.txt"); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("Resolve(symlink escape) error = %v, want ErrOutsideRoot", err)
	}
}

func TestConcurrentReads(t *testing.T) {
	t.Parallel()

	s, _ := newTestSandbox(t)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				if _, err := s.ReadFile("fonts/main.ttf"); err != nil {
					t.Errorf("ReadFile: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
