package exposure

import "testing"

func TestMasteryLevel(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want int
	}{
		{"never seen", Record{}, 0},
		{"seen once", Record{TimesSeen: 1}, 1},
		{"seen often", Record{TimesSeen: 5}, 2},
		{"too few answers to matter", Record{TimesSeen: 5, TimesCorrect: 2, TimesIncorrect: 1}, 2},
		{"half right", Record{TimesSeen: 5, TimesCorrect: 2, TimesIncorrect: 2}, 3},
		{"mostly right", Record{TimesSeen: 5, TimesCorrect: 3, TimesIncorrect: 1}, 4},
		{"always right", Record{TimesSeen: 5, TimesCorrect: 4}, 5},
		{"answers without repetition", Record{TimesSeen: 1, TimesCorrect: 4}, 5},
		{"mostly wrong", Record{TimesSeen: 5, TimesCorrect: 1, TimesIncorrect: 3}, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.rec.MasteryLevel(); got != c.want {
				t.Errorf("MasteryLevel(%+v) = %d, want %d", c.rec, got, c.want)
			}
		})
	}
}
