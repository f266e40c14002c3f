package simulation

import (
	"github.com/jstittsworth/lotto-engine/internal/analyzer"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// ComputeStatistics reduces a batch's results into the display summary
// in a single pass. Zero results yields defensive defaults, never a
// division error.
func ComputeStatistics(results []models.SimulationResult) *models.SimulationStatistics {
	stats := &models.SimulationStatistics{
		TotalResults:    len(results),
		NumberFrequency: make(map[int]int, models.MaxNumber),
	}
	if len(results) == 0 {
		return stats
	}

	totalNumbers := len(results) * models.PickCount
	totalMatches := 0
	withMatches := 0
	odd, high := 0, 0
	consecutivePairs := 0
	sumTotal := 0
	sumMin, sumMax := 0, 0

	var best *models.SimulationResult
	for i := range results {
		result := &results[i]

		sum := 0
		for _, n := range result.Numbers {
			stats.NumberFrequency[n]++
			sum += n
			if n%2 == 1 {
				odd++
			}
			if n > models.HighLowBoundary {
				high++
			}
		}
		consecutivePairs += analyzer.ConsecutivePairs(result.Numbers)
		sumTotal += sum
		if i == 0 || sum < sumMin {
			sumMin = sum
		}
		if i == 0 || sum > sumMax {
			sumMax = sum
		}

		totalMatches += len(result.HistoricalMatches)
		if len(result.HistoricalMatches) > 0 {
			withMatches++
		}
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
	}

	n := float64(len(results))
	stats.SuccessRate = float64(withMatches) / n
	stats.AverageMatches = float64(totalMatches) / n
	stats.BestResult = best
	stats.Patterns.AvgConsecutivePairs = float64(consecutivePairs) / n
	stats.Patterns.OddRate = float64(odd) / float64(totalNumbers)
	stats.Patterns.EvenRate = 1 - stats.Patterns.OddRate
	stats.Patterns.HighRate = float64(high) / float64(totalNumbers)
	stats.Patterns.LowRate = 1 - stats.Patterns.HighRate
	stats.Patterns.SumMin = sumMin
	stats.Patterns.SumMax = sumMax
	stats.Patterns.SumMean = float64(sumTotal) / n
	return stats
}
