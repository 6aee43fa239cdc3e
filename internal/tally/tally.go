// Package tally models the vote counts published by the votes API and the
// single-shot fetch that retrieves them.
package tally

import "math"

// Option keys accepted by the votes API.
const (
	OptionA = "a"
	OptionB = "b"
)

// Tally is one snapshot of the vote counts. A newer Tally replaces an older
// one outright; snapshots are never merged.
type Tally struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Total returns the number of votes cast.
func (t Tally) Total() int {
	return t.A + t.B
}

// Percentages is the display split of a Tally. A+B is always 100.
type Percentages struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Percent splits t into whole percentages. A is rounded to the nearest
// integer (halves round up) and B takes the remainder. An empty tally is 50/50.
func (t Tally) Percent() Percentages {
	total := float64(t.A) + float64(t.B)
	if total <= 0 {
		return Percentages{A: 50, B: 50}
	}
	a := int(math.Floor(100*float64(t.A)/total + 0.5))
	return Percentages{A: a, B: 100 - a}
}
