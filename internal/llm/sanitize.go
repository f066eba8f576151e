package llm

import (
	"strings"
)

// MaxFilenameRunes caps the sanitized stem length.
const MaxFilenameRunes = 150

var unsafeReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	`\`, "_",
	"?", "_",
	"%", "_",
	"*", "_",
	":", "_",
	"|", "_",
	`"`, "_",
	"<", "_",
	">", "_",
)

// SanitizeFilename turns raw model output into a filename stem: trims it,
// drops ASCII control characters, replaces spaces and / \ ? % * : | " < > with
// underscores, and caps the result at MaxFilenameRunes characters.
// The result may be empty.
func SanitizeFilename(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	s = unsafeReplacer.Replace(s)
	return TruncateRunes(s, MaxFilenameRunes)
}
