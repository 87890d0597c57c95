package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts raw text into the canonical clean form consumed by the
// summarizer. The steps run in a fixed order:
//
//  1. lowercase the whole string
//  2. drop every '"' character
//  3. apply NFKD, splitting base letters from their combining marks
//  4. replace every rune that is not a Latin letter (a-z, A-Z, À-Ö, Ø-ö,
//     ø-ÿ) or a space with a single space
//
// Combining marks produced by step 3 fall outside the allowed set, so
// "Café" becomes "cafe ". Letters kept in step 4 are lowercased again since
// NFKD can yield capitals from characters with no lowercase form ("𝐀" or
// "ℌ"); this keeps Normalize idempotent. Normalize never fails; empty input
// yields "".
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, `"`, "")
	s = norm.NFKD.String(s)
	return strings.Map(func(r rune) rune {
		if isAllowedRune(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
}

func isAllowedRune(r rune) bool {
	switch {
	case r == ' ':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 'À' && r <= 'Ö', r >= 'Ø' && r <= 'ö', r >= 'ø' && r <= 'ÿ':
		return true
	}
	return false
}

// Normalizer adapts Normalize to the pipeline's TextTransform interface.
type Normalizer struct{}

// Transform implements pipeline.TextTransform.
func (Normalizer) Transform(s string) string {
	return Normalize(s)
}
