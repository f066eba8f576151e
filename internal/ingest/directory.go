package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docrenamer/constants"
	"github.com/joseph-ayodele/docrenamer/internal/fsutil"
)

// Dirs is the fixed three-directory layout.
type Dirs struct {
	Watch     string // inbox
	Processed string // success sink
	Error     string // failure sink, rescanned by the retry loop
}

// NewDirs derives the layout from the watch directory.
func NewDirs(watch string) Dirs {
	return Dirs{
		Watch:     watch,
		Processed: filepath.Join(watch, constants.ProcessedDirName),
		Error:     filepath.Join(watch, constants.ErrorDirName),
	}
}

// EnsureDirs checks that the watch directory exists and creates the two sinks.
func EnsureDirs(d Dirs) error {
	st, err := os.Stat(d.Watch)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("watch directory %s is not a directory", d.Watch)
	}
	for _, dir := range []string{d.Processed, d.Error} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// DirStats summarizes a directory listing.
type DirStats struct {
	Scanned uint32
	Matched uint32
}

// ListSupported returns the supported regular files directly inside dir
// (non-recursive, hidden files skipped) in directory-listing order.
func ListSupported(dir string, reg *Registry) ([]string, DirStats, error) {
	var stats DirStats
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		stats.Scanned++
		if !e.Type().IsRegular() || IsHidden(e.Name()) {
			continue
		}
		if !reg.IsSupported(e.Name()) {
			continue
		}
		stats.Matched++
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, stats, nil
}
