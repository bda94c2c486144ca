package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer maps path separators and reserved characters to safe forms.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a server-suggested filename safe to create locally.
// Separators and colons become dashes, other reserved characters and control
// characters are dropped, and leading dots are trimmed so the result is never
// hidden or relative.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(strings.TrimLeft(name, "."))
}
