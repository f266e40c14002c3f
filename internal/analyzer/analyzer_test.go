package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

func draw(round int, numbers ...int) models.DrawRecord {
	return models.DrawRecord{
		Round:       round,
		MainNumbers: datatypes.NewJSONSlice(numbers),
	}
}

func TestNumberFrequencyIsDense(t *testing.T) {
	draws := []models.DrawRecord{
		draw(1, 1, 2, 3, 4, 5, 6),
		draw(2, 1, 2, 10, 20, 30, 40),
	}

	freq := NumberFrequency(draws)

	// Every number in the space gets an entry, even with zero hits.
	assert.Len(t, freq, models.MaxNumber)
	assert.Equal(t, 2, freq[1])
	assert.Equal(t, 2, freq[2])
	assert.Equal(t, 1, freq[3])
	assert.Equal(t, 0, freq[45])
}

func TestNumberFrequencyEmptyCorpus(t *testing.T) {
	freq := NumberFrequency(nil)

	assert.Len(t, freq, models.MaxNumber)
	for n := models.MinNumber; n <= models.MaxNumber; n++ {
		assert.Equal(t, 0, freq[n])
	}
}

func TestConsecutivePairs(t *testing.T) {
	tests := []struct {
		name   string
		sorted []int
		want   int
	}{
		{"no pairs", []int{1, 10, 20, 30, 40, 45}, 0},
		{"one pair", []int{1, 2, 10, 20, 30, 40}, 1},
		{"run of three counts twice", []int{5, 6, 7, 20, 30, 40}, 2},
		{"all consecutive", []int{11, 12, 13, 14, 15, 16}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsecutivePairs(tt.sorted))
		})
	}
}

func TestConsecutivePattern(t *testing.T) {
	draws := []models.DrawRecord{
		draw(1, 1, 2, 10, 20, 30, 40),  // one pair
		draw(2, 5, 6, 7, 20, 30, 40),   // two pairs
		draw(3, 1, 10, 20, 30, 40, 45), // none
		draw(4, 3, 13, 23, 33, 43, 44), // one pair
	}

	stats := ConsecutivePattern(draws)

	assert.InDelta(t, 0.75, stats.Rate, 1e-9)
	assert.InDelta(t, 1.0, stats.AvgPairs, 1e-9)
}

func TestOddEvenPattern(t *testing.T) {
	// Three draws with a 3:3 split, one with 6:0.
	draws := []models.DrawRecord{
		draw(1, 1, 3, 5, 2, 4, 6),
		draw(2, 7, 9, 11, 8, 10, 12),
		draw(3, 13, 15, 17, 14, 16, 18),
		draw(4, 1, 3, 5, 7, 9, 11),
	}

	stats := OddEvenPattern(draws)

	assert.Equal(t, 3, stats.FirstCount)
	assert.Equal(t, 3, stats.SecondCount)
	assert.InDelta(t, 0.75, stats.Weight, 1e-9)
	assert.Contains(t, stats.Description, "3:3")
}

func TestHighLowPattern(t *testing.T) {
	// Numbers above 22 count as high. Both draws split 2 high, 4 low.
	draws := []models.DrawRecord{
		draw(1, 1, 5, 10, 20, 30, 40),
		draw(2, 2, 6, 11, 21, 31, 41),
	}

	stats := HighLowPattern(draws)

	assert.Equal(t, 2, stats.FirstCount)
	assert.Equal(t, 4, stats.SecondCount)
	assert.InDelta(t, 1.0, stats.Weight, 1e-9)
}

func TestSumPattern(t *testing.T) {
	// Sums 21 and 141; mean 81, population stddev 60.
	draws := []models.DrawRecord{
		draw(1, 1, 2, 3, 4, 5, 6),
		draw(2, 16, 17, 23, 24, 30, 31),
	}

	stats := SumPattern(draws)

	assert.InDelta(t, 81.0, stats.Mean, 1e-9)
	assert.InDelta(t, 60.0, stats.StdDev, 1e-9)
}

func TestEndingDigitPattern(t *testing.T) {
	draws := []models.DrawRecord{
		draw(1, 1, 11, 21, 31, 41, 5),
	}

	stats := EndingDigitPattern(draws)

	assert.Equal(t, 5, stats.Counts[1])
	assert.Equal(t, 1, stats.Counts[5])
	assert.Equal(t, 0, stats.Counts[0])
	assert.Greater(t, stats.Variance, 0.0)
}

func TestEmptyCorpusIsSafe(t *testing.T) {
	assert.Equal(t, ConsecutiveStats{}, ConsecutivePattern(nil))
	assert.Equal(t, RatioStats{}, modalSplit(nil, func(int) bool { return true }))
	assert.Equal(t, SumStats{}, SumPattern(nil))
	assert.Equal(t, DigitStats{}, EndingDigitPattern(nil))
}

func TestFilterByRange(t *testing.T) {
	draws := []models.DrawRecord{
		draw(1, 1, 2, 3, 4, 5, 6),
		draw(2, 1, 2, 3, 4, 5, 6),
		draw(3, 1, 2, 3, 4, 5, 6),
		draw(4, 1, 2, 3, 4, 5, 6),
	}

	filtered := FilterByRange(draws, &models.RoundRange{From: 2, To: 3})
	assert.Len(t, filtered, 2)
	assert.Equal(t, 2, filtered[0].Round)
	assert.Equal(t, 3, filtered[1].Round)

	// Nil range means everything.
	assert.Len(t, FilterByRange(draws, nil), 4)

	// Open bounds.
	assert.Len(t, FilterByRange(draws, &models.RoundRange{From: 3}), 2)
	assert.Len(t, FilterByRange(draws, &models.RoundRange{To: 1}), 1)
}
