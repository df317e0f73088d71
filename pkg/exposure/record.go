package exposure

import "time"

// Record tracks how often one character has been seen, plus optional
// answer history from reviews. Counters only ever grow.
type Record struct {
	Character      string    `json:"character"`
	TimesSeen      int       `json:"timesSeen"`
	TimesCorrect   int       `json:"timesCorrect"`
	TimesIncorrect int       `json:"timesIncorrect"`
	FirstSeenAt    time.Time `json:"firstSeenAt"`
	LastSeenAt     time.Time `json:"lastSeenAt"`
}

// MasteryLevel derives a coarse 0-5 rating. Exposure alone reaches 2;
// higher levels need at least four answered reviews.
func (r Record) MasteryLevel() int {
	if r.TimesSeen == 0 {
		return 0
	}
	level := 1
	if r.TimesSeen >= 5 {
		level = 2
	}
	attempts := r.TimesCorrect + r.TimesIncorrect
	if attempts >= 4 {
		accuracy := float64(r.TimesCorrect) / float64(attempts)
		switch {
		case accuracy >= 0.9:
			level = 5
		case accuracy >= 0.75:
			level = 4
		case accuracy >= 0.5:
			level = 3
		}
	}
	return level
}
