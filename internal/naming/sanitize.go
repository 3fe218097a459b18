package naming

import (
	"strings"
	"unicode"
)

// Placeholder is the identity used when a name sanitizes to nothing.
const Placeholder = "untitled"

// Sanitize reduces name to a filesystem-safe base identity: letters and
// numbers from any script, spaces, hyphens and underscores are kept;
// everything else is dropped and the result is trimmed. It may return "".
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if IsIdentityRune(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// BaseIdentity is Sanitize with the empty result replaced by [Placeholder].
func BaseIdentity(name string) string {
	if s := Sanitize(name); s != "" {
		return s
	}
	return Placeholder
}

// IsIdentityRune reports whether r may appear in an allocated identity.
func IsIdentityRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '-' || r == '_'
}

// ValidIdentity reports whether s could have been produced by the allocator:
// non-empty, trimmed, and built only from identity runes.
func ValidIdentity(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if !IsIdentityRune(r) {
			return false
		}
	}
	return true
}
