package analyze

import "strings"

// CharClass identifies which Japanese script a rune belongs to.
type CharClass int

const (
	ClassOther CharClass = iota
	ClassKanji
	ClassHiragana
	ClassKatakana
)

// Classify buckets a rune by Unicode block: CJK Unified Ideographs,
// hiragana, katakana, or anything else.
func Classify(r rune) CharClass {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF:
		return ClassKanji
	case r >= 0x3040 && r <= 0x309F:
		return ClassHiragana
	case r >= 0x30A0 && r <= 0x30FF:
		return ClassKatakana
	default:
		return ClassOther
	}
}

// IsKanji reports whether r is a CJK Unified Ideograph.
func IsKanji(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// Occurrence is one kanji found in a text, with its rune offset.
type Occurrence struct {
	Character string
	Offset    int
}

// ScanResult aggregates one left-to-right pass over a text.
type ScanResult struct {
	// Occurrences lists every kanji in text order, duplicates included.
	Occurrences []Occurrence
	// Unique lists distinct kanji in first-seen order.
	Unique        []string
	TotalRunes    int
	KanjiCount    int
	HiraganaCount int
	KatakanaCount int
}

// Scan walks the text once, recording every kanji occurrence with its
// rune offset and counting script membership along the way.
func Scan(text string) ScanResult {
	var res ScanResult
	seen := make(map[string]bool)
	offset := 0
	for _, r := range text {
		switch Classify(r) {
		case ClassKanji:
			ch := string(r)
			res.Occurrences = append(res.Occurrences, Occurrence{Character: ch, Offset: offset})
			res.KanjiCount++
			if !seen[ch] {
				seen[ch] = true
				res.Unique = append(res.Unique, ch)
			}
		case ClassHiragana:
			res.HiraganaCount++
		case ClassKatakana:
			res.KatakanaCount++
		}
		offset++
	}
	res.TotalRunes = offset
	return res
}

// IsJapaneseText reports whether the text contains at least one kanji,
// hiragana, or katakana rune.
func IsJapaneseText(text string) bool {
	for _, r := range text {
		if Classify(r) != ClassOther {
			return true
		}
	}
	return false
}

// ToHiragana converts katakana runes to hiragana, leaving other runes unchanged
func ToHiragana(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x30A1 && r <= 0x30F6 {
			b.WriteRune(r - 0x60)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
