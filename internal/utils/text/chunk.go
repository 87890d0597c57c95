package text

import (
	"regexp"
	"strings"
)

// paragraphBreak matches a blank line, optionally containing whitespace.
var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

// Chunk splits s into pieces of at most maxRunes runes.
//
// Paragraphs (separated by blank lines) are packed greedily and joined with
// "\n\n". A paragraph longer than maxRunes is split on word boundaries, and a
// single word longer than maxRunes is hard-split by rune count. Leading and
// trailing whitespace is dropped. maxRunes <= 0 disables splitting.
// Blank input yields nil.
func Chunk(s string, maxRunes int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if maxRunes <= 0 || CountRunes(s) <= maxRunes {
		return []string{s}
	}

	var (
		chunks []string
		b      strings.Builder
		n      int
	)

	flush := func() {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, b.String())
		b.Reset()
		n = 0
	}

	add := func(piece, sep string) {
		pn, sn := CountRunes(piece), CountRunes(sep)
		if n > 0 && n+sn+pn > maxRunes {
			flush()
		}
		if n > 0 {
			b.WriteString(sep)
			n += sn
		}
		b.WriteString(piece)
		n += pn
	}

	for _, para := range paragraphBreak.Split(s, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if CountRunes(para) <= maxRunes {
			add(para, "\n\n")
			continue
		}

		// oversized paragraph: start fresh and pack words
		flush()
		for _, word := range strings.Fields(para) {
			if CountRunes(word) <= maxRunes {
				add(word, " ")
				continue
			}
			flush()
			parts := splitRunes(word, maxRunes)
			chunks = append(chunks, parts[:len(parts)-1]...)
			add(parts[len(parts)-1], " ")
		}
		flush()
	}
	flush()

	return chunks
}

// splitRunes cuts s into consecutive pieces of size runes; the last piece may
// be shorter.
func splitRunes(s string, size int) []string {
	runes := []rune(s)
	parts := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
