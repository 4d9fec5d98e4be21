package platform

import (
	"errors"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotebookNotFound is returned when no notebook file is found upwards.
var ErrNotebookNotFound = errors.New("no notebook found")

const rootPattern = "*.nexia.{json,yaml,yml}"

// FindNotebook looks upwards from startDir for a directory holding a
// notebook file and returns its absolute path. When a directory holds
// several, the first in lexical order wins.
func FindNotebook(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		matches, err := doublestar.Glob(os.DirFS(dir), rootPattern, doublestar.WithFilesOnly())
		if err == nil && len(matches) > 0 {
			slices.Sort(matches)
			return filepath.Join(dir, matches[0]), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", ErrNotebookNotFound
}
