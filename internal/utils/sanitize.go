package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxNameBytes keeps archive entry names well below common filesystem limits.
const maxNameBytes = 200

// SanitizeName turns a display name into something safe to use as a single
// path element inside an archive. Accented letters are kept (NFC form), path
// separators and characters rejected by Windows become underscores and runs
// of whitespace collapse into one space. An empty result yields fallback.
func SanitizeName(name, fallback string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	lastSpace := false
	for _, r := range name {
		switch {
		case r == utf8.RuneError:
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
			lastSpace = false
		case unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	out := strings.Trim(b.String(), " .")
	out = truncateUTF8(out, maxNameBytes)
	out = strings.TrimRight(out, " .")
	if out == "" || out == ".." {
		return fallback
	}
	return out
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
