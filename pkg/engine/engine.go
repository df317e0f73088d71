package engine

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/kanjidex/kanjidex/pkg/analyze"
	"github.com/kanjidex/kanjidex/pkg/catalog"
	"github.com/kanjidex/kanjidex/pkg/exposure"
)

// wideLimit is the page size of the single-filter convenience lookups.
const wideLimit = 100

// Engine is the top-level facade joining the reference catalog with the
// exposure counters. The host constructs one Engine and passes it around;
// there is no package-level instance.
type Engine struct {
	catalog  *catalog.Store
	exposure *exposure.Store
	log      zerolog.Logger
}

func New(cat *catalog.Store, exp *exposure.Store, log zerolog.Logger) *Engine {
	return &Engine{catalog: cat, exposure: exp, log: log}
}

// AnalyzeText extracts every kanji occurrence from text, resolves each
// distinct character against the catalog and the exposure counters, and
// classifies it as new or known.
//
// The function is read-only: counters are not touched, so callers can
// analyze speculatively and commit exposure separately with
// RecordEncounters. IsNew therefore reflects the counter state at call
// time. A character missing from the catalog still yields a match with
// empty metadata and IsNew set, never an error.
func (e *Engine) AnalyzeText(text string) (*TextAnalysisResult, error) {
	scan := analyze.Scan(text)

	records := make(map[string]catalog.Record, len(scan.Unique))
	exposures := make(map[string]exposure.Record, len(scan.Unique))
	if len(scan.Unique) > 0 {
		recs, err := e.catalog.GetByCharacters(scan.Unique)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			records[r.Character] = r
		}
		exposures, err = e.exposure.GetBatch(scan.Unique)
		if err != nil {
			return nil, err
		}
	}

	byChar := make(map[string]KanjiMatch, len(scan.Unique))
	for _, ch := range scan.Unique {
		m := KanjiMatch{
			Character:   ch,
			Meanings:    []string{},
			OnReadings:  []string{},
			KunReadings: []string{},
			IsNew:       true,
		}
		if rec, ok := records[ch]; ok {
			m.Meanings = rec.Meanings
			m.OnReadings = rec.OnReadings
			m.KunReadings = rec.KunReadings
			m.StrokeCount = rec.StrokeCount
			m.ExamLevel = rec.ExamLevel
			m.FrequencyRank = rec.FrequencyRank
			m.FrequencyClass = catalog.FrequencyClass(rec.FrequencyRank)
		}
		if exp, ok := exposures[ch]; ok {
			m.TimesSeen = exp.TimesSeen
			m.IsNew = exp.TimesSeen == 0
		}
		byChar[ch] = m
	}

	all := make([]KanjiMatch, 0, len(scan.Occurrences))
	firstAt := make(map[string]int, len(scan.Unique))
	for _, occ := range scan.Occurrences {
		m := byChar[occ.Character]
		m.Offset = occ.Offset
		all = append(all, m)
		if _, seen := firstAt[occ.Character]; !seen {
			firstAt[occ.Character] = occ.Offset
		}
	}

	unique := make([]KanjiMatch, 0, len(scan.Unique))
	for _, ch := range scan.Unique {
		m := byChar[ch]
		m.Offset = firstAt[ch]
		unique = append(unique, m)
	}
	sortUnique(unique)

	newKanji := make([]KanjiMatch, 0, len(unique))
	knownKanji := make([]KanjiMatch, 0)
	for _, m := range unique {
		if m.IsNew {
			newKanji = append(newKanji, m)
		} else {
			knownKanji = append(knownKanji, m)
		}
	}

	result := &TextAnalysisResult{
		OriginalText: text,
		AllKanji:     all,
		UniqueKanji:  unique,
		NewKanji:     newKanji,
		KnownKanji:   knownKanji,
		Stats: TextStats{
			TotalCharacters:  scan.TotalRunes,
			KanjiCount:       scan.KanjiCount,
			UniqueKanjiCount: len(unique),
			NewKanjiCount:    len(newKanji),
			HiraganaCount:    scan.HiraganaCount,
			KatakanaCount:    scan.KatakanaCount,
		},
	}
	e.log.Debug().
		Int("runes", scan.TotalRunes).
		Int("kanji", scan.KanjiCount).
		Int("unique", len(unique)).
		Int("new", len(newKanji)).
		Msg("analyzed text")
	return result, nil
}

// sortUnique orders matches new before known, then by frequency rank
// ascending with unranked characters last, then by code point.
func sortUnique(matches []KanjiMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.IsNew != b.IsNew {
			return a.IsNew
		}
		switch {
		case a.FrequencyRank != nil && b.FrequencyRank != nil && *a.FrequencyRank != *b.FrequencyRank:
			return *a.FrequencyRank < *b.FrequencyRank
		case a.FrequencyRank == nil && b.FrequencyRank != nil:
			return false
		case a.FrequencyRank != nil && b.FrequencyRank == nil:
			return true
		}
		return a.Character < b.Character
	})
}

// SearchEntry is one search hit: the catalog record plus the live
// times-seen count.
type SearchEntry struct {
	catalog.Record
	TimesSeen int `json:"timesSeen"`
}

// SearchPage is one page of search hits. TotalCount counts every match of
// the filter, not just the returned page.
type SearchPage struct {
	Results    []SearchEntry `json:"results"`
	TotalCount int           `json:"totalCount"`
}

// Search runs a filtered catalog search and joins each hit with its
// exposure count.
func (e *Engine) Search(f catalog.Filter) (*SearchPage, error) {
	recs, total, err := e.catalog.Search(f)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]exposure.Record, len(recs))
	if len(recs) > 0 {
		chars := make([]string, 0, len(recs))
		for _, r := range recs {
			chars = append(chars, r.Character)
		}
		counts, err = e.exposure.GetBatch(chars)
		if err != nil {
			return nil, err
		}
	}

	entries := make([]SearchEntry, 0, len(recs))
	for _, r := range recs {
		entry := SearchEntry{Record: r}
		if exp, ok := counts[r.Character]; ok {
			entry.TimesSeen = exp.TimesSeen
		}
		entries = append(entries, entry)
	}
	return &SearchPage{Results: entries, TotalCount: total}, nil
}

// GetByExamLevel returns the kanji of one proficiency level. Thin wrapper
// over Search with a wide page.
func (e *Engine) GetByExamLevel(level int) (*SearchPage, error) {
	return e.Search(catalog.Filter{ExamLevel: &level, Limit: wideLimit})
}

// GetByFrequencyClass returns the kanji of one frequency band. Thin
// wrapper over Search with a wide page.
func (e *Engine) GetByFrequencyClass(class string) (*SearchPage, error) {
	return e.Search(catalog.Filter{FrequencyClass: class, Limit: wideLimit})
}

// KanjiDetail is one kanji's catalog entry joined with its full exposure
// state, for detail views.
type KanjiDetail struct {
	catalog.Record
	FrequencyClass string `json:"frequencyClass"`
	TimesSeen      int    `json:"timesSeen"`
	TimesCorrect   int    `json:"timesCorrect"`
	TimesIncorrect int    `json:"timesIncorrect"`
	MasteryLevel   int    `json:"masteryLevel"`
}

// GetByCharacter returns the detail view of one kanji, or nil when the
// character is not in the catalog.
func (e *Engine) GetByCharacter(ch string) (*KanjiDetail, error) {
	rec, err := e.catalog.GetByCharacter(ch)
	if err != nil || rec == nil {
		return nil, err
	}
	detail := &KanjiDetail{
		Record:         *rec,
		FrequencyClass: catalog.FrequencyClass(rec.FrequencyRank),
	}
	exp, err := e.exposure.Get(ch)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		detail.TimesSeen = exp.TimesSeen
		detail.TimesCorrect = exp.TimesCorrect
		detail.TimesIncorrect = exp.TimesIncorrect
		detail.MasteryLevel = exp.MasteryLevel()
	}
	return detail, nil
}

// GetExposure returns the raw exposure record for one character, nil when
// the character has never been encountered.
func (e *Engine) GetExposure(ch string) (*exposure.Record, error) {
	return e.exposure.Get(ch)
}

// RecordEncounter commits one sighting of one character.
func (e *Engine) RecordEncounter(ch string) error {
	return e.exposure.RecordEncounter(ch)
}

// RecordEncounters commits one sighting per distinct character in chars.
func (e *Engine) RecordEncounters(chars []string) error {
	return e.exposure.RecordEncounters(chars)
}

// RecordAnswer commits one review answer for a character.
func (e *Engine) RecordAnswer(ch string, correct bool) error {
	return e.exposure.RecordAnswer(ch, correct)
}

// Stats aggregates catalog and exposure totals for display.
type Stats struct {
	TotalKanji      int    `json:"totalKanji"`
	TotalRadicals   int    `json:"totalRadicals"`
	TrackedKanji    int    `json:"trackedKanji"`
	TotalEncounters int    `json:"totalEncounters"`
	CatalogVersion  string `json:"catalogVersion"`
	SizeBytes       int64  `json:"sizeBytes"`
}

// GetStats recomputes the aggregate counts on every call so the numbers
// stay correct across reseeds.
func (e *Engine) GetStats() (*Stats, error) {
	total, err := e.catalog.Count()
	if err != nil {
		return nil, err
	}
	radicals, err := e.catalog.TotalRadicals()
	if err != nil {
		return nil, err
	}
	version, err := e.catalog.Version()
	if err != nil {
		return nil, err
	}
	size, err := e.catalog.SizeBytes()
	if err != nil {
		return nil, err
	}
	tracked, err := e.exposure.TrackedCount()
	if err != nil {
		return nil, err
	}
	encounters, err := e.exposure.TotalEncounters()
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalKanji:      total,
		TotalRadicals:   radicals,
		TrackedKanji:    tracked,
		TotalEncounters: encounters,
		CatalogVersion:  version,
		SizeBytes:       size,
	}, nil
}
