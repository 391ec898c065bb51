package validation

import (
	"strings"
	"unicode"
)

// StripUnprintable removes non-printable characters such as NBSP, zero-width spaces and
// stray control bytes that spreadsheet exports leave around numbers. Tab, newline and
// carriage return are kept.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
