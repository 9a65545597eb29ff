package utils

import (
	"strings"
	"unicode"
)

// Slugify derives the URL-safe natural key for a visit reason: the text is
// lower-cased and every run of non-alphanumeric characters collapses into a
// single hyphen, with leading and trailing hyphens trimmed.  The same label
// always produces the same slug, which is what makes the promotion upsert
// idempotent.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// NormalizeReason canonicalizes free-text custom reasons before they are
// stored or compared: surrounding whitespace is trimmed and internal runs of
// whitespace collapse to a single space.  Casing is preserved so a promoted
// reason keeps the visitor's original capitalization as its label.
func NormalizeReason(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
