package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	m "github.com/wibhim/codemorph/internal/model"
)

// SourceFSAdapter abstracts filesystem operations the batch driver relies on
// when scanning input programs. It hides direct `os` access so the driver
// logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// Walk traverses the provided root path. When recursive is false the
	// implementation limits itself to the root directory (no sub-dirs).
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// GoFiles expands the given paths (files or directories) into the list
	// of Go source files they cover, skipping test files and anything
	// matching one of the exclude regexps.
	GoFiles(paths []m.Path, exclude []string) ([]m.Path, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the concrete implementation backing SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// GoFiles expands paths into the Go source files they cover.
func (a *LocalSourceFSAdapter) GoFiles(paths []m.Path, exclude []string) ([]m.Path, error) {
	excludeRes := make([]*regexp.Regexp, 0, len(exclude))

	for _, pattern := range exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		excludeRes = append(excludeRes, re)
	}

	excluded := func(path string) bool {
		for _, re := range excludeRes {
			if re.MatchString(path) {
				return true
			}
		}

		return false
	}

	var files []m.Path

	for _, p := range paths {
		info, err := os.Stat(string(p))
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !excluded(string(p)) {
				files = append(files, p)
			}

			continue
		}

		err = a.Walk(p, true, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}

			if strings.HasSuffix(path, "_test.go") || excluded(path) {
				return nil
			}

			files = append(files, m.Path(path))

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
