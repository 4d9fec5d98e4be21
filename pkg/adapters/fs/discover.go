package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches notebook files at any depth.
const DefaultPattern = "**/*.nexia.{json,yaml,yml}"

// IsNotebookFile reports whether name looks like a notebook file.
func IsNotebookFile(name string) bool {
	ok, _ := doublestar.Match("*.nexia.{json,yaml,yml}", filepath.Base(name))
	return ok
}

// Discover lists the files below root matching pattern (DefaultPattern when
// empty), sorted, as paths joined with root.
func Discover(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("failed to discover notebooks in %s: %w", root, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if isTempFile(m) {
			continue
		}
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	slices.Sort(paths)
	return paths, nil
}
