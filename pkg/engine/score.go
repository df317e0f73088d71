package engine

import "math"

const (
	minScore = 1
	maxScore = 10

	// Midpoint of the 1-5 exam scale, used when no new kanji carries a
	// known level.
	defaultExamLevel = 3
)

// Score rates a text's reading difficulty on a 1-10 scale from the
// density of kanji, the share of them that are new to the reader, and the
// exam level of the new ones (lower level = harder kanji). A text with no
// kanji scores the minimum. Pure: same result in, same score out.
func Score(result *TextAnalysisResult) int {
	if result == nil {
		return minScore
	}
	stats := result.Stats
	if stats.KanjiCount == 0 || stats.TotalCharacters == 0 {
		return minScore
	}

	kanjiRatio := float64(stats.KanjiCount) / float64(stats.TotalCharacters)

	var newRatio float64
	if stats.UniqueKanjiCount > 0 {
		newRatio = float64(stats.NewKanjiCount) / float64(stats.UniqueKanjiCount)
	}

	avgExamLevel := float64(defaultExamLevel)
	var levelSum, levelCount int
	for _, m := range result.NewKanji {
		if m.ExamLevel != nil {
			levelSum += *m.ExamLevel
			levelCount++
		}
	}
	if levelCount > 0 {
		avgExamLevel = float64(levelSum) / float64(levelCount)
	}

	raw := 1 + kanjiRatio*3 + newRatio*4 + (6-avgExamLevel)*0.5
	score := int(math.Round(raw))
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
