package generator

import (
	"sort"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

// matchThreshold is the minimum overlap for a draw to count as a
// historical match.
const matchThreshold = 3

// FindHistoricalMatches returns every past draw overlapping the
// combination on at least three main numbers, annotated with the match
// count and the specific matched numbers, sorted descending by match
// count.
func FindHistoricalMatches(numbers []int, draws []models.DrawRecord) []models.HistoricalMatch {
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}

	var matches []models.HistoricalMatch
	for _, draw := range draws {
		var matched []int
		for _, n := range draw.MainNumbers {
			if want[n] {
				matched = append(matched, n)
			}
		}
		if len(matched) >= matchThreshold {
			sort.Ints(matched)
			matches = append(matches, models.HistoricalMatch{
				Round:          draw.Round,
				DrawDate:       draw.DrawDate,
				MatchCount:     len(matched),
				MatchedNumbers: matched,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchCount > matches[j].MatchCount
	})
	return matches
}

// CombinationProbability scores a combination as the percentage of
// historical draws it overlaps on three or more numbers. This is a
// relative score for ranking, not a statistical win probability.
func CombinationProbability(numbers []int, draws []models.DrawRecord) float64 {
	if len(draws) == 0 {
		return 0
	}
	return float64(len(FindHistoricalMatches(numbers, draws))) / float64(len(draws)) * 100
}
