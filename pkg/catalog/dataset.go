package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

//go:embed kanji_seed.json
var seedJSON []byte

// Dataset is a parsed reference dataset ready for seeding.
type Dataset struct {
	Version string
	Records []Record
}

// datasetRecord accepts the on-disk schema, which may carry a categorical
// frequencyClass instead of a numeric rank.
type datasetRecord struct {
	Record
	FrequencyClass string `json:"frequencyClass,omitempty"`
}

// LoadDataset parses a dataset from r. Two layouts are accepted: a
// versioned wrapper {"version": ..., "kanji": [...]} and a bare record
// array.
func LoadDataset(r io.ReadSeeker) (*Dataset, error) {
	var wrapper struct {
		Version string          `json:"version"`
		Kanji   []datasetRecord `json:"kanji"`
	}
	if err := json.NewDecoder(r).Decode(&wrapper); err == nil && len(wrapper.Kanji) > 0 {
		return buildDataset(wrapper.Version, wrapper.Kanji)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind dataset: %w", err)
	}
	var records []datasetRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return buildDataset("", records)
}

// LoadDatasetFile loads a dataset from a file on disk.
func LoadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadDataset(f)
}

// EmbeddedDataset returns the seed dataset bundled into the binary.
func EmbeddedDataset() (*Dataset, error) {
	return LoadDataset(bytes.NewReader(seedJSON))
}

func buildDataset(version string, in []datasetRecord) (*Dataset, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("dataset contains no records")
	}
	ds := &Dataset{Version: version, Records: make([]Record, 0, len(in))}
	for i, dr := range in {
		rec := dr.Record
		if utf8.RuneCountInString(rec.Character) != 1 {
			return nil, fmt.Errorf("dataset record %d: character %q must be a single rune", i, rec.Character)
		}
		if rec.StrokeCount <= 0 {
			return nil, fmt.Errorf("dataset record %d (%s): stroke count must be positive, got %d", i, rec.Character, rec.StrokeCount)
		}
		if rec.FrequencyRank == nil && dr.FrequencyClass != "" {
			rec.FrequencyRank = rankForClass(dr.FrequencyClass)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}
