package catalog

import (
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kanjidex/kanjidex/pkg/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbConn.Close() })
	dbConn.SetMaxOpenConns(1)
	if err := db.InitDB(dbConn); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return NewStore(dbConn, zerolog.Nop())
}

func intp(v int) *int { return &v }

func testDataset() *Dataset {
	return &Dataset{
		Version: "test-1",
		Records: []Record{
			{Character: "日", Meanings: []string{"day", "sun"}, OnReadings: []string{"ニチ"}, KunReadings: []string{"ひ"}, StrokeCount: 4, ExamLevel: intp(5), FrequencyRank: intp(1), Radicals: []string{"日"}, Examples: []string{"日本"}},
			{Character: "本", Meanings: []string{"book", "origin"}, OnReadings: []string{"ホン"}, KunReadings: []string{"もと"}, StrokeCount: 5, ExamLevel: intp(5), FrequencyRank: intp(10), Radicals: []string{"木", "一"}, Examples: []string{"日本"}},
			{Character: "人", Meanings: []string{"person"}, OnReadings: []string{"ジン", "ニン"}, KunReadings: []string{"ひと"}, StrokeCount: 2, ExamLevel: intp(5), FrequencyRank: intp(5), Radicals: []string{"人"}, Examples: []string{"人々"}},
			{Character: "月", Meanings: []string{"month", "moon"}, OnReadings: []string{"ゲツ"}, KunReadings: []string{"つき"}, StrokeCount: 4, ExamLevel: intp(5), FrequencyRank: intp(18), Radicals: []string{"月"}, Examples: []string{"一月"}},
			{Character: "鬱", Meanings: []string{"gloom"}, OnReadings: []string{"ウツ"}, KunReadings: []string{}, StrokeCount: 29, ExamLevel: intp(1), Radicals: []string{"林"}, Examples: []string{}},
		},
	}
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := setupTestStore(t)
	if err := s.Initialize(testDataset()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func TestInitializeSeedsOnce(t *testing.T) {
	s := setupTestStore(t)
	ds := testDataset()

	if err := s.Initialize(ds); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	n1, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n1 != len(ds.Records) {
		t.Fatalf("expected %d records, got %d", len(ds.Records), n1)
	}

	if err := s.Initialize(ds); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	n2, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n2 != n1 {
		t.Fatalf("double seeding changed count: %d -> %d", n1, n2)
	}
}

func TestInitializeConcurrent(t *testing.T) {
	s := setupTestStore(t)
	ds := testDataset()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Initialize(ds)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent initialize: %v", err)
		}
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(ds.Records) {
		t.Fatalf("expected %d records after concurrent seeding, got %d", len(ds.Records), n)
	}
}

func TestInitializeLeavesSeededCatalog(t *testing.T) {
	s := seededStore(t)

	other := &Dataset{Records: []Record{{Character: "学", Meanings: []string{"study"}, StrokeCount: 8}}}
	if err := s.Initialize(other); err != nil {
		t.Fatalf("initialize on seeded store: %v", err)
	}
	rec, err := s.GetByCharacter("学")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Fatalf("seeded catalog must not absorb a second dataset")
	}
}

func TestReseedReplacesCatalog(t *testing.T) {
	s := seededStore(t)

	other := &Dataset{Version: "test-2", Records: []Record{{Character: "学", Meanings: []string{"study"}, StrokeCount: 8, ExamLevel: intp(5)}}}
	if err := s.Reseed(other); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record after reseed, got %d", n)
	}
	v, err := s.Version()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != "test-2" {
		t.Fatalf("expected version test-2, got %q", v)
	}
}

func TestGetByCharacter(t *testing.T) {
	s := seededStore(t)

	rec, err := s.GetByCharacter("日")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record for 日")
	}
	if rec.StrokeCount != 4 || rec.Meanings[0] != "day" || rec.OnReadings[0] != "ニチ" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ExamLevel == nil || *rec.ExamLevel != 5 {
		t.Errorf("expected exam level 5, got %v", rec.ExamLevel)
	}
}

func TestGetByCharacterAbsent(t *testing.T) {
	s := seededStore(t)

	rec, err := s.GetByCharacter("犬")
	if err != nil {
		t.Fatalf("absence must not be an error, got %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for uncataloged character, got %+v", rec)
	}
}

func TestGetByCharacters(t *testing.T) {
	s := seededStore(t)

	recs, err := s.GetByCharacters([]string{"本", "日", "人", "犬"})
	if err != nil {
		t.Fatalf("batch get: %v", err)
	}
	var got []string
	for _, r := range recs {
		got = append(got, r.Character)
	}
	// 犬 is silently omitted; order is stroke count then code point.
	want := []string{"人", "日", "本"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	empty, err := s.GetByCharacters(nil)
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no records for empty batch, got %v", empty)
	}
}

func TestGetAllOrdering(t *testing.T) {
	s := seededStore(t)

	recs, err := s.GetAll()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("expected 5 records, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		if prev.StrokeCount > cur.StrokeCount {
			t.Fatalf("stroke order violated at %d: %s(%d) before %s(%d)", i, prev.Character, prev.StrokeCount, cur.Character, cur.StrokeCount)
		}
		if prev.StrokeCount == cur.StrokeCount && prev.Character >= cur.Character {
			t.Fatalf("code point tie-break violated at %d: %s before %s", i, prev.Character, cur.Character)
		}
	}
	// 日 (U+65E5) sorts before 月 (U+6708) at four strokes.
	if recs[1].Character != "日" || recs[2].Character != "月" {
		t.Errorf("expected 日 then 月 at four strokes, got %s then %s", recs[1].Character, recs[2].Character)
	}
}

func TestSearchQueryOnCharacter(t *testing.T) {
	s := seededStore(t)

	// 本 has no "日" in character, meanings, or readings.
	recs, total, err := s.Search(Filter{Query: "日", Limit: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected totalCount 1, got %d", total)
	}
	if len(recs) != 1 || recs[0].Character != "日" {
		t.Fatalf("expected [日], got %v", recs)
	}
}

func TestSearchQueryOnMeaning(t *testing.T) {
	s := seededStore(t)

	recs, total, err := s.Search(Filter{Query: "DAY", Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || recs[0].Character != "日" {
		t.Fatalf("case-insensitive meaning match failed: total=%d recs=%v", total, recs)
	}
}

func TestSearchQueryOnReading(t *testing.T) {
	s := seededStore(t)

	// ニ appears in ニチ (日) and ニン (人); 人 has fewer strokes.
	recs, total, err := s.Search(Filter{Query: "ニ", Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || recs[0].Character != "人" || recs[1].Character != "日" {
		t.Fatalf("on-reading match failed: total=%d recs=%v", total, recs)
	}

	// Hiragana query matches katakana readings through folding.
	_, total, err = s.Search(Filter{Query: "にち", Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 {
		t.Fatalf("folded reading match failed: total=%d", total)
	}
}

func TestSearchCategoricalFilters(t *testing.T) {
	s := seededStore(t)

	recs, total, err := s.Search(Filter{ExamLevel: intp(1), Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || recs[0].Character != "鬱" {
		t.Fatalf("exam level filter failed: total=%d recs=%v", total, recs)
	}

	recs, total, err = s.Search(Filter{ExamLevel: intp(5), StrokeCount: intp(4), Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || recs[0].Character != "日" || recs[1].Character != "月" {
		t.Fatalf("combined filters failed: total=%d recs=%v", total, recs)
	}
}

func TestSearchFrequencyClass(t *testing.T) {
	s := seededStore(t)

	_, total, err := s.Search(Filter{FrequencyClass: FreqVeryCommon, Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 very common records, got %d", total)
	}

	recs, total, err := s.Search(Filter{FrequencyClass: FreqRare, Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || recs[0].Character != "鬱" {
		t.Fatalf("unranked kanji should be rare: total=%d recs=%v", total, recs)
	}
}

func TestSearchInvalidArguments(t *testing.T) {
	s := seededStore(t)

	cases := []Filter{
		{Limit: 0},
		{Limit: -1},
		{Limit: 10, Offset: -1},
		{Limit: 10, FrequencyClass: "sometimes"},
	}
	for _, f := range cases {
		if _, _, err := s.Search(f); !errors.Is(err, db.ErrInvalidArgument) {
			t.Errorf("filter %+v: expected ErrInvalidArgument, got %v", f, err)
		}
	}
}

// Stepping through all pages must reproduce the full result set with a
// stable totalCount and no duplicates or omissions.
func TestSearchPagination(t *testing.T) {
	s := seededStore(t)

	full, fullTotal, err := s.Search(Filter{ExamLevel: intp(5), Limit: 100})
	if err != nil {
		t.Fatalf("unpaginated search: %v", err)
	}
	if fullTotal != 4 || len(full) != 4 {
		t.Fatalf("expected 4 level-5 records, got total=%d len=%d", fullTotal, len(full))
	}

	var pages []Record
	for offset := 0; ; offset += 2 {
		recs, total, err := s.Search(Filter{ExamLevel: intp(5), Limit: 2, Offset: offset})
		if err != nil {
			t.Fatalf("page at offset %d: %v", offset, err)
		}
		if total != fullTotal {
			t.Fatalf("totalCount changed across pages: %d != %d", total, fullTotal)
		}
		if len(recs) == 0 {
			break
		}
		pages = append(pages, recs...)
	}

	if len(pages) != len(full) {
		t.Fatalf("pages produced %d records, want %d", len(pages), len(full))
	}
	for i := range full {
		if pages[i].Character != full[i].Character {
			t.Fatalf("page order diverged at %d: %s != %s", i, pages[i].Character, full[i].Character)
		}
	}
}

func TestStatsQueries(t *testing.T) {
	s := seededStore(t)

	n, err := s.Count()
	if err != nil || n != 5 {
		t.Fatalf("count = %d, %v", n, err)
	}
	v, err := s.Version()
	if err != nil || v != "test-1" {
		t.Fatalf("version = %q, %v", v, err)
	}
	// Distinct radicals across the dataset: 日 木 一 人 月 林.
	rads, err := s.TotalRadicals()
	if err != nil || rads != 6 {
		t.Fatalf("radicals = %d, %v", rads, err)
	}
	size, err := s.SizeBytes()
	if err != nil || size <= 0 {
		t.Fatalf("size = %d, %v", size, err)
	}
}
