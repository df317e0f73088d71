package catalog

// Record is one kanji's reference metadata. Records are written once at
// seed time and never mutated afterward; a reseed replaces the whole set.
type Record struct {
	Character     string   `json:"character"`
	Meanings      []string `json:"meanings"`
	OnReadings    []string `json:"onReadings"`
	KunReadings   []string `json:"kunReadings"`
	StrokeCount   int      `json:"strokeCount"`
	Grade         *int     `json:"grade,omitempty"`
	ExamLevel     *int     `json:"examLevel,omitempty"`
	FrequencyRank *int     `json:"frequencyRank,omitempty"`
	Radicals      []string `json:"radicals"`
	Mnemonic      string   `json:"mnemonic,omitempty"`
	Examples      []string `json:"examples"`
}

// Frequency is tracked as a numeric rank, lower = more frequent. The
// categorical labels below are derived bands over that rank.
const (
	FreqVeryCommon = "very common"
	FreqCommon     = "common"
	FreqUncommon   = "uncommon"
	FreqRare       = "rare"
)

const (
	veryCommonMax = 500
	commonMax     = 1500
	uncommonMax   = 2500
)

// FrequencyClass buckets a numeric frequency rank into the categorical
// label used by search filters and display. Unranked kanji are rare.
func FrequencyClass(rank *int) string {
	switch {
	case rank == nil:
		return FreqRare
	case *rank <= veryCommonMax:
		return FreqVeryCommon
	case *rank <= commonMax:
		return FreqCommon
	case *rank <= uncommonMax:
		return FreqUncommon
	default:
		return FreqRare
	}
}

// rankForClass maps a dataset-supplied class label onto a representative
// rank inside its band, for datasets that carry labels instead of ranks.
func rankForClass(class string) *int {
	var rank int
	switch class {
	case FreqVeryCommon:
		rank = (1 + veryCommonMax) / 2
	case FreqCommon:
		rank = (veryCommonMax + 1 + commonMax) / 2
	case FreqUncommon:
		rank = (commonMax + 1 + uncommonMax) / 2
	default:
		return nil
	}
	return &rank
}
