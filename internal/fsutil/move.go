// Package fsutil holds the filesystem moves the processing loops rely on.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docrenamer/internal/entity"
)

// ErrDestinationExists is returned when the target name is taken at rename time.
var ErrDestinationExists = errors.New("destination already exists")

// Exists reports whether path exists (any file type).
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// FreeName returns the first path in dir named stem+ext, stem_1+ext, stem_2+ext, ...
// that does not exist yet.
func FreeName(dir, stem, ext string) (string, error) {
	for n := 0; n <= entity.MaxCollisionSuffix; n++ {
		candidate := filepath.Join(dir, entity.WithSuffix(stem, ext, n))
		if !Exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %q in %s", stem+ext, dir)
}

// MoveNoReplace renames src to dst, failing with ErrDestinationExists instead of
// overwriting a file that appeared at dst.
func MoveNoReplace(src, dst string) error {
	return renameNoReplace(src, dst)
}

// MoveToFreeName picks the first free collision-suffixed name in dir and moves src there.
// It returns the final path.
func MoveToFreeName(src, dir, stem, ext string) (string, error) {
	dst, err := FreeName(dir, stem, ext)
	if err != nil {
		return "", err
	}
	if err := MoveNoReplace(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// EnsureDir creates dir (and parents) if missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
