package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var alifReplacer = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ٱ", "ا",
)

// NormalizeArabic prepares text for search and lookup: alif variants are folded
// to a bare alif, tashkeel and tatweel are dropped, whitespace is collapsed and
// latin letters are lowercased.
func NormalizeArabic(s string) string {
	// Compose first so that an alif followed by a combining hamza is caught by the replacer.
	s = norm.NFC.String(s)
	s = alifReplacer.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case isTashkeel(r), r == 'ـ':
			continue
		case unicode.IsSpace(r):
			if b.Len() > 0 {
				space = true
			}
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ContainsNormalized reports whether needle occurs in haystack once both are normalized.
// An empty needle matches everything.
func ContainsNormalized(haystack, needle string) bool {
	n := NormalizeArabic(needle)
	if n == "" {
		return true
	}
	return strings.Contains(NormalizeArabic(haystack), n)
}

func isTashkeel(r rune) bool {
	return (r >= 0x064B && r <= 0x0652) || r == 0x0670
}
