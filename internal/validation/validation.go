package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeywordLength is the longest accepted keyword, in runes.
const MaxKeywordLength = 100

// NormalizeKeyword trims surrounding whitespace and collapses internal runs
// of whitespace to a single space. Case is preserved.
func NormalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(keyword), " ")
}

// ValidateKeyword checks a normalized keyword: non-empty, at most
// MaxKeywordLength runes, valid UTF-8 and free of control characters.
func ValidateKeyword(keyword string) bool {
	if keyword == "" || !utf8.ValidString(keyword) {
		return false
	}
	if utf8.RuneCountInString(keyword) > MaxKeywordLength {
		return false
	}
	for _, r := range keyword {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ClampLimit returns limit bounded to [0, max], substituting def when limit
// is not positive.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	if limit < 0 {
		return 0
	}
	return limit
}
