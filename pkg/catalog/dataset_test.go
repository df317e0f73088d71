package catalog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoadDatasetWrapper(t *testing.T) {
	raw := `{"version": "v9", "kanji": [
		{"character": "日", "meanings": ["day"], "onReadings": ["ニチ"], "kunReadings": ["ひ"], "strokeCount": 4, "examLevel": 5, "frequencyRank": 1, "radicals": ["日"], "examples": ["日本"]}
	]}`
	ds, err := LoadDataset(bytes.NewReader([]byte(raw)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Version != "v9" {
		t.Errorf("expected version v9, got %q", ds.Version)
	}
	if len(ds.Records) != 1 || ds.Records[0].Character != "日" {
		t.Fatalf("unexpected records: %+v", ds.Records)
	}
}

func TestLoadDatasetBareArray(t *testing.T) {
	raw := `[
		{"character": "本", "meanings": ["book"], "onReadings": ["ホン"], "kunReadings": [], "strokeCount": 5, "radicals": [], "examples": []}
	]`
	ds, err := LoadDataset(bytes.NewReader([]byte(raw)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Version != "" {
		t.Errorf("bare array has no version, got %q", ds.Version)
	}
	if len(ds.Records) != 1 || ds.Records[0].Character != "本" {
		t.Fatalf("unexpected records: %+v", ds.Records)
	}
}

func TestLoadDatasetFrequencyClassFallback(t *testing.T) {
	raw := `[{"character": "本", "meanings": ["book"], "strokeCount": 5, "frequencyClass": "common"}]`
	ds, err := LoadDataset(bytes.NewReader([]byte(raw)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rec := ds.Records[0]
	if rec.FrequencyRank == nil {
		t.Fatalf("expected a rank derived from the class label")
	}
	if got := FrequencyClass(rec.FrequencyRank); got != FreqCommon {
		t.Errorf("derived rank %d maps to %q, want %q", *rec.FrequencyRank, got, FreqCommon)
	}
}

func TestLoadDatasetRejectsCorrupt(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `kanji go here`},
		{"empty array", `[]`},
		{"zero strokes", `[{"character": "日", "strokeCount": 0}]`},
		{"multi rune character", `[{"character": "日本", "strokeCount": 4}]`},
		{"empty character", `[{"character": "", "strokeCount": 4}]`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := LoadDataset(bytes.NewReader([]byte(c.raw))); err == nil {
				t.Fatalf("expected error for %s", c.name)
			}
		})
	}
}

func TestEmbeddedDataset(t *testing.T) {
	ds, err := EmbeddedDataset()
	if err != nil {
		t.Fatalf("embedded dataset must load: %v", err)
	}
	if len(ds.Records) < 50 {
		t.Fatalf("embedded dataset suspiciously small: %d records", len(ds.Records))
	}
	if ds.Version == "" {
		t.Errorf("embedded dataset should carry a version")
	}
	var day *Record
	for i := range ds.Records {
		if ds.Records[i].Character == "日" {
			day = &ds.Records[i]
			break
		}
	}
	if day == nil {
		t.Fatalf("embedded dataset missing 日")
	}
	if day.StrokeCount != 4 || day.ExamLevel == nil || *day.ExamLevel != 5 {
		t.Errorf("unexpected 日 record: %+v", day)
	}
}

func TestLoadKanjidic2(t *testing.T) {
	raw := `{
		"version": "3.6.1",
		"characters": [
			{
				"literal": "亜",
				"radicals": [{"type": "classical", "value": 7}],
				"misc": {"grade": 8, "strokeCounts": [7], "frequency": 1509, "jlptLevel": 1},
				"readingMeaning": {"groups": [{
					"readings": [
						{"type": "ja_on", "value": "ア"},
						{"type": "ja_kun", "value": "つ.ぐ"},
						{"type": "pinyin", "value": "ya4"}
					],
					"meanings": [
						{"lang": "en", "value": "Asia"},
						{"lang": "fr", "value": "Asie"}
					]
				}]}
			},
			{
				"literal": "無効",
				"misc": {"strokeCounts": [1]}
			},
			{
				"literal": "朧",
				"misc": {"strokeCounts": []}
			}
		]
	}`
	ds, err := LoadKanjidic2(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Version != "kanjidic2-3.6.1" {
		t.Errorf("expected version kanjidic2-3.6.1, got %q", ds.Version)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected the two unusable characters to be skipped, got %d records", len(ds.Records))
	}

	rec := ds.Records[0]
	if rec.Character != "亜" || rec.StrokeCount != 7 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Meanings) != 1 || rec.Meanings[0] != "Asia" {
		t.Errorf("expected English meanings only, got %v", rec.Meanings)
	}
	if len(rec.OnReadings) != 1 || rec.OnReadings[0] != "ア" {
		t.Errorf("unexpected on readings: %v", rec.OnReadings)
	}
	if len(rec.KunReadings) != 1 || rec.KunReadings[0] != "つ.ぐ" {
		t.Errorf("unexpected kun readings: %v", rec.KunReadings)
	}
	if rec.FrequencyRank == nil || *rec.FrequencyRank != 1509 {
		t.Errorf("unexpected frequency: %v", rec.FrequencyRank)
	}
	if rec.ExamLevel == nil || *rec.ExamLevel != 1 {
		t.Errorf("unexpected exam level: %v", rec.ExamLevel)
	}
	if len(rec.Radicals) != 1 || rec.Radicals[0] != string(rune(0x2F06)) {
		t.Errorf("expected Kangxi radical 7, got %v", rec.Radicals)
	}
}
