// Package analyzer computes descriptive statistics over historical draw
// records. Every function is pure, runs in O(len(draws)), never mutates
// its input, and returns neutral zero values for an empty corpus.
package analyzer

import (
	"fmt"
	"math"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

// NumberFrequency counts appearances of every number across the slice.
// All 45 keys are always present; numbers that never appear map to 0.
// Consumers iterate the full key space and rely on that.
func NumberFrequency(draws []models.DrawRecord) map[int]int {
	freq := make(map[int]int, models.MaxNumber)
	for n := models.MinNumber; n <= models.MaxNumber; n++ {
		freq[n] = 0
	}
	for _, draw := range draws {
		for _, n := range draw.MainNumbers {
			if n >= models.MinNumber && n <= models.MaxNumber {
				freq[n]++
			}
		}
	}
	return freq
}

// ConsecutiveStats describes how often adjacent number pairs occur.
type ConsecutiveStats struct {
	// Rate is the fraction of draws containing at least one pair of
	// numbers differing by exactly 1.
	Rate float64 `json:"rate"`
	// AvgPairs is the mean count of such pairs per draw.
	AvgPairs float64 `json:"avg_pairs"`
}

// ConsecutivePairs counts adjacent pairs in a sorted combination.
func ConsecutivePairs(sorted []int) int {
	pairs := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] == 1 {
			pairs++
		}
	}
	return pairs
}

// ConsecutivePattern aggregates consecutive-pair statistics.
func ConsecutivePattern(draws []models.DrawRecord) ConsecutiveStats {
	if len(draws) == 0 {
		return ConsecutiveStats{}
	}
	withPair := 0
	totalPairs := 0
	for _, draw := range draws {
		pairs := ConsecutivePairs(draw.SortedNumbers())
		totalPairs += pairs
		if pairs > 0 {
			withPair++
		}
	}
	n := float64(len(draws))
	return ConsecutiveStats{
		Rate:     float64(withPair) / n,
		AvgPairs: float64(totalPairs) / n,
	}
}

// RatioStats captures the modal split of a binary classification of the
// six numbers (odd/even or high/low).
type RatioStats struct {
	// FirstCount:SecondCount is the most frequent split observed.
	FirstCount  int `json:"first_count"`
	SecondCount int `json:"second_count"`
	// Weight is the frequency of the modal split divided by the
	// number of draws.
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// OddEvenPattern finds the most frequent odd:even split.
func OddEvenPattern(draws []models.DrawRecord) RatioStats {
	stats := modalSplit(draws, func(n int) bool { return n%2 == 1 })
	stats.Description = fmt.Sprintf("odd:even ratio %d:%d", stats.FirstCount, stats.SecondCount)
	return stats
}

// HighLowPattern finds the most frequent high:low split. Numbers above
// models.HighLowBoundary count as high.
func HighLowPattern(draws []models.DrawRecord) RatioStats {
	stats := modalSplit(draws, func(n int) bool { return n > models.HighLowBoundary })
	stats.Description = fmt.Sprintf("high:low ratio %d:%d", stats.FirstCount, stats.SecondCount)
	return stats
}

func modalSplit(draws []models.DrawRecord, isFirst func(int) bool) RatioStats {
	if len(draws) == 0 {
		return RatioStats{}
	}
	counts := make(map[int]int, models.PickCount+1)
	for _, draw := range draws {
		first := 0
		for _, n := range draw.MainNumbers {
			if isFirst(n) {
				first++
			}
		}
		counts[first]++
	}
	modal, modalCount := 0, 0
	for first, count := range counts {
		if count > modalCount || (count == modalCount && first < modal) {
			modal = first
			modalCount = count
		}
	}
	return RatioStats{
		FirstCount:  modal,
		SecondCount: models.PickCount - modal,
		Weight:      float64(modalCount) / float64(len(draws)),
	}
}

// SumStats describes the distribution of six-number sums.
type SumStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// SumPattern computes mean and population standard deviation of draw sums.
func SumPattern(draws []models.DrawRecord) SumStats {
	if len(draws) == 0 {
		return SumStats{}
	}
	n := float64(len(draws))
	total := 0.0
	for _, draw := range draws {
		total += float64(draw.Sum())
	}
	mean := total / n

	sumSquares := 0.0
	for _, draw := range draws {
		diff := float64(draw.Sum()) - mean
		sumSquares += diff * diff
	}
	return SumStats{
		Mean:   mean,
		StdDev: math.Sqrt(sumSquares / n),
	}
}

// DigitStats describes the ending-digit distribution of drawn numbers.
type DigitStats struct {
	Counts [10]int `json:"counts"`
	// Variance measures spread against the uniform expectation of
	// total/10 per digit. Lower means more even.
	Variance float64 `json:"variance"`
}

// EndingDigitPattern counts numbers by their last digit and scores the
// evenness of the distribution.
func EndingDigitPattern(draws []models.DrawRecord) DigitStats {
	var stats DigitStats
	total := 0
	for _, draw := range draws {
		for _, n := range draw.MainNumbers {
			stats.Counts[n%10]++
			total++
		}
	}
	if total == 0 {
		return stats
	}
	expected := float64(total) / 10
	sumSquares := 0.0
	for _, count := range stats.Counts {
		diff := float64(count) - expected
		sumSquares += diff * diff
	}
	stats.Variance = sumSquares / 10
	return stats
}

// FilterByRange returns the draws inside the inclusive round range. A
// nil range returns the input slice unchanged.
func FilterByRange(draws []models.DrawRecord, r *models.RoundRange) []models.DrawRecord {
	if r == nil {
		return draws
	}
	filtered := make([]models.DrawRecord, 0, len(draws))
	for _, draw := range draws {
		if r.Contains(draw.Round) {
			filtered = append(filtered, draw)
		}
	}
	return filtered
}
