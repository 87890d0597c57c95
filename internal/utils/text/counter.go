// Package text provides the pure string helpers used to prepare input for
// summarization: rune counting, normalization and chunking.
package text

import "unicode/utf8"

// CountRunes counts Unicode characters (runes) rather than bytes, so that
// accented Latin text is measured the same way a reader would count it.
//
//	CountRunes("hello") // 5
//	CountRunes("ação")  // 4
//	CountRunes("")      // 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}
