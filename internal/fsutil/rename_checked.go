package fsutil

import "os"

// renameChecked re-checks the destination right before renaming. It narrows but
// cannot close the window in which another actor creates dst.
func renameChecked(src, dst string) error {
	if Exists(dst) {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: ErrDestinationExists}
	}
	return os.Rename(src, dst)
}
