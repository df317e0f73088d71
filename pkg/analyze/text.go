package analyze

import (
	"regexp"
	"strings"
)

// CleanText normalizes OCR output before analysis: line-break variants
// become \n, horizontal whitespace runs collapse to single spaces, and
// anything outside Japanese script, fullwidth forms, CJK punctuation, and
// basic whitespace is dropped. Kanji and kana always survive.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	pendingNewline := false
	flush := func() {
		if pendingNewline {
			b.WriteByte('\n')
		} else if pendingSpace {
			b.WriteByte(' ')
		}
		pendingSpace = false
		pendingNewline = false
	}
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			if b.Len() > 0 {
				pendingNewline = true
			}
		case r == ' ' || r == '\t' || r == '　':
			if b.Len() > 0 {
				pendingSpace = true
			}
		case keepRune(r):
			flush()
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepRune(r rune) bool {
	if Classify(r) != ClassOther {
		return true
	}
	// CJK symbols and punctuation, then fullwidth and halfwidth forms.
	if r >= 0x3000 && r <= 0x303F {
		return true
	}
	if r >= 0xFF00 && r <= 0xFFEF {
		return true
	}
	return false
}

// SplitSegments breaks text into analysis units on Japanese sentence
// boundaries and line breaks.
func SplitSegments(text string) []string {
	var segments []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '。', '！', '？', '\n':
			s := strings.TrimSpace(b.String())
			if s != "" {
				segments = append(segments, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		segments = append(segments, s)
	}
	return segments
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes furigana annotations (rt/rp elements) from HTML so
// reading glosses do not leak into extracted text.
func SanitizeRuby(html string) string {
	out := reRT.ReplaceAllString(html, "")
	out = reRP.ReplaceAllString(out, "")
	return out
}
