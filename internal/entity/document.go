package entity

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// MaxCollisionSuffix is the largest _N suffix WithSuffix is asked to produce.
const MaxCollisionSuffix = 999

// attemptPattern matches the trailing retry token, optionally followed by a
// collision suffix in the range WithSuffix produces (1 to MaxCollisionSuffix, no
// leading zero). Any other digit run belongs to the name and keeps the token from matching.
var attemptPattern = regexp.MustCompile(`_attempt(\d+)(?:_[1-9]\d{0,2})?$`)

// Document is a file at a path. The filename is the only state it carries.
type Document struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Stem     string `json:"stem"`
	Ext      string `json:"ext"`       // as found on disk, leading dot, case preserved
	BaseStem string `json:"base_stem"` // Stem without the attempt token
	Attempt  int    `json:"attempt"`   // 0 when no token is present
}

// NewDocument derives the document view of path.
func NewDocument(path string) Document {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	base, attempt, _ := ParseAttempt(stem)
	return Document{
		Path:     path,
		Name:     name,
		Stem:     stem,
		Ext:      ext,
		BaseStem: base,
		Attempt:  attempt,
	}
}

// ParseAttempt splits a stem into its base and the embedded attempt number.
// ok is false when the stem carries no attempt token; base is then the stem itself.
func ParseAttempt(stem string) (base string, attempt int, ok bool) {
	loc := attemptPattern.FindStringSubmatchIndex(stem)
	if loc == nil {
		return stem, 0, false
	}
	n, err := strconv.Atoi(stem[loc[2]:loc[3]])
	if err != nil {
		// digits too long for int; treat as no token
		return stem, 0, false
	}
	return stem[:loc[0]], n, true
}

// FormatAttempt builds the stem carrying attempt n.
func FormatAttempt(base string, n int) string {
	return fmt.Sprintf("%s_attempt%d", base, n)
}

// WithSuffix returns name with "_<n>" inserted before the extension; n == 0 returns stem+ext.
func WithSuffix(stem, ext string, n int) string {
	if n == 0 {
		return stem + ext
	}
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}
