package captions

import (
	"strings"
	"unicode/utf8"
)

// DefaultParagraphChars bounds a paragraph when no sentence end is found.
const DefaultParagraphChars = 500

// Paragraphs groups consecutive segments into larger blocks. A block is
// flushed after a segment ending in sentence punctuation, or once it
// exceeds maxChars runes. Each block keeps the start of its first
// segment. maxChars <= 0 selects [DefaultParagraphChars].
func Paragraphs(segs []Segment, maxChars int) []Segment {
	if maxChars <= 0 {
		maxChars = DefaultParagraphChars
	}

	var (
		out  []Segment
		cur  Segment
		size int
		open bool
	)
	flush := func() {
		if open {
			out = append(out, cur)
		}
		cur, size, open = Segment{}, 0, false
	}

	for _, s := range segs {
		if !open {
			cur = Segment{Start: s.Start, Text: s.Text}
			open = true
		} else {
			cur.Text = joinText(cur.Text, s.Text)
		}
		size = utf8.RuneCountInString(cur.Text)

		if endsSentence(s.Text) || size > maxChars {
			flush()
		}
	}
	flush()
	return out
}

// joinText concatenates two fragments, omitting the space when both
// sides of the boundary are CJK characters.
func joinText(a, b string) string {
	last, _ := utf8.DecodeLastRuneInString(a)
	first, _ := utf8.DecodeRuneInString(b)
	if isCJK(last) && isCJK(first) || isCJKPunct(last) {
		return a + b
	}
	return a + " " + b
}

func endsSentence(s string) bool {
	s = strings.TrimSpace(s)
	r, _ := utf8.DecodeLastRuneInString(s)
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isCJKPunct(r rune) bool {
	return r >= 0x3000 && r <= 0x303F || r >= 0xFF01 && r <= 0xFF0F
}
