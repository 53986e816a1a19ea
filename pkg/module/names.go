// SPDX-License-Identifier: MPL-2.0

package module

import (
	"strings"
	"unicode"
)

// LowerName returns the module name in lower case.
func (m *Module) LowerName() string {
	return strings.ToLower(m.name)
}

// StudlyName returns the module name in StudlyCase ("blog-posts" becomes "BlogPosts").
func (m *Module) StudlyName() string {
	return Studly(m.name)
}

// SnakeName returns the module name in snake_case ("BlogPosts" becomes "blog_posts").
func (m *Module) SnakeName() string {
	return Snake(m.name)
}

// Studly converts s to StudlyCase, splitting words on '-', '_' and spaces.
func Studly(s string) string {
	var b strings.Builder
	for word := range strings.FieldsFuncSeq(s, isWordSeparator) {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// Snake converts s to snake_case. An upper-case letter starts a new word.
func Snake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case isWordSeparator(r):
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func isWordSeparator(r rune) bool {
	return r == '-' || r == '_' || unicode.IsSpace(r)
}
