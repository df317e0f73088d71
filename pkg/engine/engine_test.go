package engine

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanjidex/kanjidex/pkg/catalog"
	"github.com/kanjidex/kanjidex/pkg/db"
	"github.com/kanjidex/kanjidex/pkg/exposure"
)

func intp(v int) *int { return &v }

func setupEngine(t *testing.T, ds *catalog.Dataset) *Engine {
	t.Helper()
	dbConn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	dbConn.SetMaxOpenConns(1)
	t.Cleanup(func() { dbConn.Close() })
	require.NoError(t, db.InitDB(dbConn))

	cat := catalog.NewStore(dbConn, zerolog.Nop())
	if ds != nil {
		require.NoError(t, cat.Initialize(ds))
	}
	return New(cat, exposure.NewStore(dbConn, zerolog.Nop()), zerolog.Nop())
}

func testDataset() *catalog.Dataset {
	return &catalog.Dataset{
		Version: "test-1",
		Records: []catalog.Record{
			{Character: "日", Meanings: []string{"day", "sun"}, OnReadings: []string{"ニチ"}, KunReadings: []string{"ひ"}, StrokeCount: 4, ExamLevel: intp(5), FrequencyRank: intp(1)},
			{Character: "本", Meanings: []string{"book", "origin"}, OnReadings: []string{"ホン"}, KunReadings: []string{"もと"}, StrokeCount: 5, ExamLevel: intp(5), FrequencyRank: intp(10)},
			{Character: "語", Meanings: []string{"language", "word"}, OnReadings: []string{"ゴ"}, KunReadings: []string{"かた.る"}, StrokeCount: 14, ExamLevel: intp(5), FrequencyRank: intp(300)},
			{Character: "勉", Meanings: []string{"exertion"}, OnReadings: []string{"ベン"}, StrokeCount: 10, ExamLevel: intp(4)},
		},
	}
}

func matchCharacters(matches []KanjiMatch) []string {
	chars := make([]string, 0, len(matches))
	for _, m := range matches {
		chars = append(chars, m.Character)
	}
	return chars
}

func TestAnalyzeTextResolvesAgainstCatalog(t *testing.T) {
	ds := &catalog.Dataset{
		Version: "single",
		Records: []catalog.Record{
			{Character: "日", Meanings: []string{"day", "sun"}, OnReadings: []string{"ニチ"}, KunReadings: []string{"ひ"}, StrokeCount: 4, ExamLevel: intp(5)},
		},
	}
	e := setupEngine(t, ds)

	res, err := e.AnalyzeText("今日は日本語を勉強します")
	require.NoError(t, err)

	assert.Equal(t, 12, res.Stats.TotalCharacters)
	assert.Equal(t, 7, res.Stats.KanjiCount)
	assert.Equal(t, 6, res.Stats.UniqueKanjiCount)
	assert.Equal(t, 6, res.Stats.NewKanjiCount)
	assert.Equal(t, 5, res.Stats.HiraganaCount)
	assert.Equal(t, 0, res.Stats.KatakanaCount)

	var sunOffsets []int
	for _, m := range res.AllKanji {
		if m.Character == "日" {
			sunOffsets = append(sunOffsets, m.Offset)
			assert.Equal(t, []string{"day", "sun"}, m.Meanings)
			assert.Equal(t, 0, m.TimesSeen)
			assert.True(t, m.IsNew)
		}
	}
	assert.Equal(t, []int{1, 3}, sunOffsets)

	// Characters absent from the catalog degrade to empty metadata
	// instead of failing the analysis.
	for _, m := range res.UniqueKanji {
		if m.Character == "今" {
			assert.Empty(t, m.Meanings)
			assert.Empty(t, m.OnReadings)
			assert.Empty(t, m.KunReadings)
			assert.Nil(t, m.ExamLevel)
			assert.True(t, m.IsNew)
		}
	}
	assert.Empty(t, res.KnownKanji)
	assert.Len(t, res.NewKanji, 6)
}

func TestAnalyzeTextSnapshotBeforeCommit(t *testing.T) {
	e := setupEngine(t, testDataset())
	const text = "今日は日本語を勉強します"

	first, err := e.AnalyzeText(text)
	require.NoError(t, err)
	for _, m := range first.UniqueKanji {
		assert.True(t, m.IsNew, "character %s should be new before any commit", m.Character)
	}

	require.NoError(t, e.RecordEncounters([]string{"日"}))
	exp, err := e.GetExposure("日")
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.Equal(t, 1, exp.TimesSeen)

	// The earlier result keeps its snapshot; a fresh analysis sees the
	// committed count.
	for _, m := range first.UniqueKanji {
		if m.Character == "日" {
			assert.True(t, m.IsNew)
			assert.Equal(t, 0, m.TimesSeen)
		}
	}

	second, err := e.AnalyzeText(text)
	require.NoError(t, err)
	for _, m := range second.UniqueKanji {
		if m.Character == "日" {
			assert.False(t, m.IsNew)
			assert.Equal(t, 1, m.TimesSeen)
		} else {
			assert.True(t, m.IsNew)
		}
	}
	assert.Equal(t, []string{"日"}, matchCharacters(second.KnownKanji))
}

func TestAnalyzeTextUniqueOrdering(t *testing.T) {
	e := setupEngine(t, testDataset())
	require.NoError(t, e.RecordEncounter("日"))

	res, err := e.AnalyzeText("日本語勉鷹")
	require.NoError(t, err)

	// New before known; new sorted by frequency rank ascending with
	// unranked last, ties broken by code point (勉 before 鷹).
	assert.Equal(t, []string{"本", "語", "勉", "鷹", "日"}, matchCharacters(res.UniqueKanji))
	assert.Equal(t, []string{"本", "語", "勉", "鷹"}, matchCharacters(res.NewKanji))
	assert.Equal(t, []string{"日"}, matchCharacters(res.KnownKanji))
}

func TestAnalyzeTextPartitionInvariant(t *testing.T) {
	e := setupEngine(t, testDataset())
	require.NoError(t, e.RecordEncounters([]string{"本", "語"}))

	texts := []string{
		"",
		"ひらがなだけ",
		"日本語の本を読む",
		"勉強勉強勉強",
		"漢字と仮名が混ざった文章です",
	}
	for _, text := range texts {
		res, err := e.AnalyzeText(text)
		require.NoError(t, err)

		assert.Equal(t, len(res.UniqueKanji), len(res.NewKanji)+len(res.KnownKanji))
		seen := make(map[string]bool)
		for _, m := range res.NewKanji {
			assert.True(t, m.IsNew)
			seen[m.Character] = true
		}
		for _, m := range res.KnownKanji {
			assert.False(t, m.IsNew)
			assert.False(t, seen[m.Character], "character %s in both partitions", m.Character)
		}
		assert.Equal(t, res.Stats.UniqueKanjiCount, len(res.UniqueKanji))
		assert.Equal(t, res.Stats.NewKanjiCount, len(res.NewKanji))
		assert.Len(t, res.AllKanji, res.Stats.KanjiCount)
	}
}

func TestAnalyzeTextEmptyInput(t *testing.T) {
	e := setupEngine(t, testDataset())

	res, err := e.AnalyzeText("")
	require.NoError(t, err)
	assert.Empty(t, res.AllKanji)
	assert.Empty(t, res.UniqueKanji)
	assert.Equal(t, TextStats{}, res.Stats)
	assert.Equal(t, 1, Score(res))
}

func TestAnalyzeTextOccurrenceCounts(t *testing.T) {
	e := setupEngine(t, testDataset())

	res, err := e.AnalyzeText("日本の日は日曜日")
	require.NoError(t, err)
	counts := res.OccurrenceCounts()
	assert.Equal(t, 4, counts["日"])
	assert.Equal(t, 1, counts["本"])
	assert.Equal(t, 1, counts["曜"])
}

func TestSearchJoinsExposure(t *testing.T) {
	e := setupEngine(t, testDataset())
	require.NoError(t, e.RecordEncounter("日"))
	require.NoError(t, e.RecordEncounter("日"))

	page, err := e.Search(catalog.Filter{Query: "日", Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "日", page.Results[0].Character)
	assert.Equal(t, 2, page.Results[0].TimesSeen)

	page, err = e.Search(catalog.Filter{Query: "book", Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "本", page.Results[0].Character)
	assert.Equal(t, 0, page.Results[0].TimesSeen)
}

func TestSearchRejectsInvalidFilter(t *testing.T) {
	e := setupEngine(t, testDataset())

	_, err := e.Search(catalog.Filter{Query: "日"})
	require.ErrorIs(t, err, db.ErrInvalidArgument)

	_, err = e.Search(catalog.Filter{Limit: 10, Offset: -1})
	require.ErrorIs(t, err, db.ErrInvalidArgument)
}

func TestConvenienceLookups(t *testing.T) {
	e := setupEngine(t, testDataset())

	page, err := e.GetByExamLevel(5)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, []string{"日", "本", "語"}, func() []string {
		chars := make([]string, 0, len(page.Results))
		for _, r := range page.Results {
			chars = append(chars, r.Character)
		}
		return chars
	}())

	page, err = e.GetByFrequencyClass(catalog.FreqVeryCommon)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)

	page, err = e.GetByFrequencyClass(catalog.FreqRare)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "勉", page.Results[0].Character)
}

func TestGetByCharacterDetail(t *testing.T) {
	e := setupEngine(t, testDataset())
	require.NoError(t, e.RecordEncounter("日"))
	require.NoError(t, e.RecordAnswer("日", true))

	detail, err := e.GetByCharacter("日")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, []string{"day", "sun"}, detail.Meanings)
	assert.Equal(t, catalog.FreqVeryCommon, detail.FrequencyClass)
	assert.Equal(t, 1, detail.TimesSeen)
	assert.Equal(t, 1, detail.TimesCorrect)
	assert.Equal(t, 1, detail.MasteryLevel)

	detail, err = e.GetByCharacter("犬")
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestGetStatsRecomputed(t *testing.T) {
	e := setupEngine(t, testDataset())
	require.NoError(t, e.RecordEncounters([]string{"日", "本"}))
	require.NoError(t, e.RecordEncounter("日"))

	stats, err := e.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalKanji)
	assert.Equal(t, 2, stats.TrackedKanji)
	assert.Equal(t, 3, stats.TotalEncounters)
	assert.Equal(t, "test-1", stats.CatalogVersion)
	assert.Greater(t, stats.SizeBytes, int64(0))

	bigger := testDataset()
	bigger.Version = "test-2"
	bigger.Records = append(bigger.Records, catalog.Record{
		Character: "学", Meanings: []string{"study"}, OnReadings: []string{"ガク"}, KunReadings: []string{"まな.ぶ"}, StrokeCount: 8, ExamLevel: intp(5), FrequencyRank: intp(60),
	})
	require.NoError(t, e.catalog.Reseed(bigger))

	stats, err = e.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalKanji)
	assert.Equal(t, "test-2", stats.CatalogVersion)
}
