package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// kanjidic2 JSON layout as published by the jmdict-simplified project.
type kanjidic2File struct {
	Version    string               `json:"version"`
	Characters []kanjidic2Character `json:"characters"`
}

type kanjidic2Character struct {
	Literal  string `json:"literal"`
	Radicals []struct {
		Type  string `json:"type"`
		Value int    `json:"value"`
	} `json:"radicals"`
	Misc struct {
		Grade        *int  `json:"grade"`
		StrokeCounts []int `json:"strokeCounts"`
		Frequency    *int  `json:"frequency"`
		JlptLevel    *int  `json:"jlptLevel"`
	} `json:"misc"`
	ReadingMeaning *struct {
		Groups []struct {
			Readings []struct {
				Type  string `json:"type"`
				Value string `json:"value"`
			} `json:"readings"`
			Meanings []struct {
				Lang  string `json:"lang"`
				Value string `json:"value"`
			} `json:"meanings"`
		} `json:"groups"`
	} `json:"readingMeaning"`
}

// LoadKanjidic2 converts a kanjidic2 JSON export into a Dataset. Characters
// without a usable literal or stroke count are skipped rather than failing
// the import. The jlptLevel field uses the pre-2010 four-level scale, which
// shares this catalog's lower-is-harder convention. Classical radical
// numbers become Kangxi block runes.
func LoadKanjidic2(r io.Reader) (*Dataset, error) {
	var file kanjidic2File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse kanjidic2: %w", err)
	}

	recs := make([]datasetRecord, 0, len(file.Characters))
	for _, ch := range file.Characters {
		if utf8.RuneCountInString(ch.Literal) != 1 {
			continue
		}
		if len(ch.Misc.StrokeCounts) == 0 || ch.Misc.StrokeCounts[0] <= 0 {
			continue
		}
		rec := Record{
			Character:     ch.Literal,
			Meanings:      []string{},
			OnReadings:    []string{},
			KunReadings:   []string{},
			StrokeCount:   ch.Misc.StrokeCounts[0],
			Grade:         ch.Misc.Grade,
			ExamLevel:     ch.Misc.JlptLevel,
			FrequencyRank: ch.Misc.Frequency,
			Radicals:      []string{},
			Examples:      []string{},
		}
		for _, rad := range ch.Radicals {
			if rad.Type == "classical" && rad.Value >= 1 && rad.Value <= 214 {
				rec.Radicals = append(rec.Radicals, string(rune(0x2F00+rad.Value-1)))
			}
		}
		if rm := ch.ReadingMeaning; rm != nil {
			for _, g := range rm.Groups {
				for _, rd := range g.Readings {
					switch rd.Type {
					case "ja_on":
						rec.OnReadings = append(rec.OnReadings, rd.Value)
					case "ja_kun":
						rec.KunReadings = append(rec.KunReadings, rd.Value)
					}
				}
				for _, m := range g.Meanings {
					if m.Lang == "en" {
						rec.Meanings = append(rec.Meanings, m.Value)
					}
				}
			}
		}
		recs = append(recs, datasetRecord{Record: rec})
	}

	version := file.Version
	if version != "" {
		version = "kanjidic2-" + version
	}
	return buildDataset(version, recs)
}

// LoadKanjidic2File loads a kanjidic2 export from a file on disk.
func LoadKanjidic2File(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open kanjidic2 file: %w", err)
	}
	defer f.Close()
	return LoadKanjidic2(f)
}
