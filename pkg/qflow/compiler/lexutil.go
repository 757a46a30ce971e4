package compiler

import "github.com/ziutek/utils/stringutils"

// skipSpaces advances past any run of leading spaces in s, returning
// the index of the first non-space byte (or len(s) if s is all
// spaces). Used while scanning a qualifier-expression atom's raw text
// (spec.md §4.D "qualifier simplification") before tokenizing it.
func skipSpaces(s string) int {
	return stringutils.IndexNotByte(s, ' ')
}

// trimTrailingSpaces returns s with any run of trailing spaces removed.
func trimTrailingSpaces(s string) string {
	end := stringutils.LastIndexNotByte(s, ' ')
	if end < 0 {
		return ""
	}
	return s[:end+1]
}

// splitQualifierAtom splits a single qualifier atom's raw text of the
// form "attr=value" at the first '=' byte, trimming surrounding spaces
// from both halves. ok is false if no '=' is present.
func splitQualifierAtom(s string) (attr, value string, ok bool) {
	i := stringutils.IndexByte(s, '=')
	if i < 0 {
		return "", "", false
	}
	attr = trimTrailingSpaces(s[skipSpaces(s[:i]):i])
	rest := s[i+1:]
	value = trimTrailingSpaces(rest[skipSpaces(rest):])
	return attr, value, true
}
