// Package slug turns titles and file names into URL path segments.
package slug

import "strings"

// stripped is the fixed punctuation set removed outright, so "What's" stays
// one word.
func stripped(r rune) bool {
	switch r {
	case '.', ',', '!', '?', '\'', '"', '`', ':', ';', '&', '$', '#', '@', '%',
		'(', ')', '[', ']', '{', '}', '<', '>', '=', '+', '*', '~', '^', '|', '/', '\\',
		'。', '，', '！', '？', '【', '】', '、', '·', '「', '」', '｜', '：', '；',
		'‘', '’', '“', '”', '–', '—':
		return true
	}
	return false
}

func delimiter(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '-', '_':
		return true
	}
	return false
}

// Make lowercases s, strips the punctuation set and joins the remaining
// words with single hyphens. The same input always yields the same output.
func Make(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if !stripped(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.FieldsFunc(b.String(), delimiter), "-")
}
