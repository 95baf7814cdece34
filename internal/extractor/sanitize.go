package extractor

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sanitize turns a video title into a file name stem. Letters and digits of
// any script are kept; runs of spaces and hyphens become a single hyphen.
// The result can be empty.
func Sanitize(title string) string {
	name := norm.NFKC.String(title)
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, name)
	name = collapseSeparators(name)
	return strings.Trim(name, "-_")
}

func collapseSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) {
			if !inRun {
				b.WriteByte('-')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}
