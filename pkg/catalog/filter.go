package catalog

import (
	"fmt"
	"strings"

	"github.com/kanjidex/kanjidex/pkg/analyze"
	"github.com/kanjidex/kanjidex/pkg/db"
)

// DefaultLimit is the standard search page size.
const DefaultLimit = 50

// Filter narrows a catalog search. Optional fields left at their zero
// value place no constraint on that dimension. Limit must always be set;
// use DefaultFilter for the standard page size.
type Filter struct {
	// Query matches a record when the character contains it, any meaning
	// contains it case-insensitively, or any reading contains it. Reading
	// comparison folds katakana to hiragana so either script matches.
	Query string
	// ExamLevel restricts to one proficiency level (1-5, lower is harder).
	ExamLevel *int
	// StrokeCount restricts to an exact stroke count.
	StrokeCount *int
	// FrequencyClass restricts to one frequency band label.
	FrequencyClass string
	// Limit caps the page size. Must be positive; there is no clamping.
	Limit int
	// Offset skips rows after sorting. Must be non-negative.
	Offset int
}

// DefaultFilter returns an unconstrained filter with the standard page size.
func DefaultFilter() Filter {
	return Filter{Limit: DefaultLimit}
}

func (f Filter) validate() error {
	if f.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", db.ErrInvalidArgument, f.Limit)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset must be non-negative, got %d", db.ErrInvalidArgument, f.Offset)
	}
	switch f.FrequencyClass {
	case "", FreqVeryCommon, FreqCommon, FreqUncommon, FreqRare:
	default:
		return fmt.Errorf("%w: unknown frequency class %q", db.ErrInvalidArgument, f.FrequencyClass)
	}
	return nil
}

// matchesQuery applies the free-text clause of a Filter to one record.
func matchesQuery(r Record, query string) bool {
	if strings.Contains(r.Character, query) {
		return true
	}
	lq := strings.ToLower(query)
	for _, m := range r.Meanings {
		if strings.Contains(strings.ToLower(m), lq) {
			return true
		}
	}
	fq := foldReading(query)
	for _, rd := range r.OnReadings {
		if strings.Contains(rd, query) || strings.Contains(foldReading(rd), fq) {
			return true
		}
	}
	for _, rd := range r.KunReadings {
		if strings.Contains(rd, query) || strings.Contains(foldReading(rd), fq) {
			return true
		}
	}
	return false
}

// foldReading normalizes a reading for comparison: okurigana dots and
// prefix/suffix hyphens drop out, katakana folds to hiragana.
func foldReading(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "-", "")
	return analyze.ToHiragana(s)
}
