// Package stringutil provides common string manipulation utilities.
package stringutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SplitAny splits s on whitespace and on any rune in delims, discarding empty parts.
//
// Example:
//
//	SplitAny("資工系2A、電機系(合開)", "、()") returns ["資工系2A", "電機系", "合開"]
func SplitAny(s, delims string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(delims, r)
	})
}

// NormalizeQuery folds full-width ASCII variants to their narrow form and trims
// surrounding whitespace, so "ＣＳ１０１" and "CS101" compare equal.
// CJK characters are left untouched.
func NormalizeQuery(s string) string {
	return strings.TrimSpace(FoldWidth(s))
}

// FoldWidth maps full-width ASCII variants such as "（" and "Ａ" to their narrow form.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}
