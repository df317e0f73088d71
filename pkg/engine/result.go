package engine

// KanjiMatch is one kanji occurrence resolved against the catalog and the
// exposure counters. Matches are snapshots: they reflect state at analysis
// time and are never written back.
type KanjiMatch struct {
	Character      string   `json:"character"`
	Offset         int      `json:"offset"`
	Meanings       []string `json:"meanings"`
	OnReadings     []string `json:"onReadings"`
	KunReadings    []string `json:"kunReadings"`
	StrokeCount    int      `json:"strokeCount,omitempty"`
	ExamLevel      *int     `json:"examLevel,omitempty"`
	FrequencyRank  *int     `json:"frequencyRank,omitempty"`
	FrequencyClass string   `json:"frequencyClass,omitempty"`
	TimesSeen      int      `json:"timesSeen"`
	IsNew          bool     `json:"isNew"`
}

// TextStats summarizes one analyzed text. Counts are in runes, not bytes.
type TextStats struct {
	TotalCharacters  int `json:"totalCharacters"`
	KanjiCount       int `json:"kanjiCount"`
	UniqueKanjiCount int `json:"uniqueKanjiCount"`
	NewKanjiCount    int `json:"newKanjiCount"`
	HiraganaCount    int `json:"hiraganaCount"`
	KatakanaCount    int `json:"katakanaCount"`
}

// TextAnalysisResult is the full outcome of analyzing one text unit.
//
// AllKanji holds every occurrence in text order, duplicates included.
// UniqueKanji holds one match per distinct character (offset of its first
// occurrence), ordered new-first, then frequency rank ascending with
// unranked last, then code point. NewKanji and KnownKanji partition
// UniqueKanji by the IsNew flag.
type TextAnalysisResult struct {
	OriginalText string       `json:"originalText"`
	AllKanji     []KanjiMatch `json:"allKanji"`
	UniqueKanji  []KanjiMatch `json:"uniqueKanji"`
	NewKanji     []KanjiMatch `json:"newKanji"`
	KnownKanji   []KanjiMatch `json:"knownKanji"`
	Stats        TextStats    `json:"stats"`
}

// UniqueCharacters returns the distinct kanji of the result in its
// UniqueKanji order, ready to hand to an exposure update.
func (r *TextAnalysisResult) UniqueCharacters() []string {
	chars := make([]string, 0, len(r.UniqueKanji))
	for _, m := range r.UniqueKanji {
		chars = append(chars, m.Character)
	}
	return chars
}

// OccurrenceCounts returns how many times each distinct kanji occurs in
// the analyzed text.
func (r *TextAnalysisResult) OccurrenceCounts() map[string]int {
	counts := make(map[string]int, len(r.UniqueKanji))
	for _, m := range r.AllKanji {
		counts[m.Character]++
	}
	return counts
}
