package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

func TestComputeStatistics(t *testing.T) {
	results := []models.SimulationResult{
		{
			Numbers:    []int{1, 2, 10, 23, 30, 40}, // sum 106, one pair, 2 odd, 3 high
			Confidence: 0.70,
			HistoricalMatches: []models.HistoricalMatch{
				{Round: 5, MatchCount: 3},
				{Round: 9, MatchCount: 4},
			},
		},
		{
			Numbers:    []int{3, 5, 7, 9, 11, 13}, // sum 48, no pairs, all odd, all low
			Confidence: 0.80,
		},
	}

	stats := ComputeStatistics(results)

	assert.Equal(t, 2, stats.TotalResults)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 1.0, stats.AverageMatches, 1e-9)

	require.NotNil(t, stats.BestResult)
	assert.InDelta(t, 0.80, stats.BestResult.Confidence, 1e-9)

	assert.Equal(t, 1, stats.NumberFrequency[1])
	assert.Equal(t, 0, stats.NumberFrequency[45])

	assert.InDelta(t, 0.5, stats.Patterns.AvgConsecutivePairs, 1e-9)
	assert.InDelta(t, 8.0/12.0, stats.Patterns.OddRate, 1e-9)
	assert.InDelta(t, 4.0/12.0, stats.Patterns.EvenRate, 1e-9)
	assert.InDelta(t, 3.0/12.0, stats.Patterns.HighRate, 1e-9)
	assert.InDelta(t, 9.0/12.0, stats.Patterns.LowRate, 1e-9)
	assert.Equal(t, 48, stats.Patterns.SumMin)
	assert.Equal(t, 106, stats.Patterns.SumMax)
	assert.InDelta(t, 77.0, stats.Patterns.SumMean, 1e-9)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)

	assert.Equal(t, 0, stats.TotalResults)
	assert.Zero(t, stats.SuccessRate)
	assert.Nil(t, stats.BestResult)
	assert.NotNil(t, stats.NumberFrequency)
	assert.Equal(t, models.PatternSummary{}, stats.Patterns)
}

func TestComputeStatisticsSingleResult(t *testing.T) {
	results := []models.SimulationResult{
		{Numbers: []int{5, 6, 7, 8, 9, 10}, Confidence: 0.65},
	}

	stats := ComputeStatistics(results)

	assert.Equal(t, 45, stats.Patterns.SumMin)
	assert.Equal(t, 45, stats.Patterns.SumMax)
	assert.InDelta(t, 5.0, stats.Patterns.AvgConsecutivePairs, 1e-9)
	assert.InDelta(t, 0.0, stats.SuccessRate, 1e-9)
}
