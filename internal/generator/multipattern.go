package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jstittsworth/lotto-engine/internal/analyzer"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// Composite acceptance targets. A candidate is accepted when it hits
// all three: three odd numbers, a sum near the historical center, and
// exactly one consecutive pair.
const (
	targetOddCount         = 3
	targetSum              = 138
	targetSumTolerance     = 20
	targetConsecutivePairs = 1
	acceptScore            = 0.8
)

// multiPatternGenerator combines five pattern weights and rejection-
// samples candidates against the composite target. The loop is hard
// capped; after the cap the last candidate is kept as the fallback, so
// unsatisfiable targets still terminate.
type multiPatternGenerator struct {
	rng *rand.Rand
}

func (g *multiPatternGenerator) Method() models.Method {
	return models.MethodMultiPattern
}

type patternWeight struct {
	name        string
	weight      float64
	description string
}

func (g *multiPatternGenerator) Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error) {
	start := time.Now()

	weights := collectPatternWeights(draws)

	var numbers []int
	attempts := 0
	for attempts = 1; attempts <= maxPatternAttempts; attempts++ {
		candidate := randomCombination(g.rng, cfg)
		if candidateScore(candidate) > acceptScore {
			numbers = candidate
			break
		}
		numbers = candidate
	}

	reasoning := []string{
		fmt.Sprintf("composite pattern sampling over %d draws (%d attempts)", len(draws), attempts),
	}
	for _, w := range weights {
		if w.weight > 0.5 {
			reasoning = append(reasoning, w.description)
		}
	}
	return buildResult(models.MethodMultiPattern, numbers, multiPatternConfidence, reasoning, draws, start), nil
}

// candidateScore multiplies three match indicators. A missed target
// scores 0.5, so only a candidate matching all three clears the 0.8
// acceptance threshold.
func candidateScore(sorted []int) float64 {
	odd, sum := 0, 0
	for _, n := range sorted {
		sum += n
		if n%2 == 1 {
			odd++
		}
	}
	score := 1.0
	if odd != targetOddCount {
		score *= 0.5
	}
	if math.Abs(float64(sum-targetSum)) >= targetSumTolerance {
		score *= 0.5
	}
	if analyzer.ConsecutivePairs(sorted) != targetConsecutivePairs {
		score *= 0.5
	}
	return score
}

// collectPatternWeights gathers the five analyzer weights used for
// reasoning and (in the predictive strategy) candidate restriction.
func collectPatternWeights(draws []models.DrawRecord) []patternWeight {
	consecutive := analyzer.ConsecutivePattern(draws)
	oddEven := analyzer.OddEvenPattern(draws)
	sums := analyzer.SumPattern(draws)
	highLow := analyzer.HighLowPattern(draws)
	digits := analyzer.EndingDigitPattern(draws)

	sumWeight := 0.0
	if sums.Mean > 0 {
		sumWeight = 1 - math.Min(1, sums.StdDev/sums.Mean)
	}
	digitTotal := 0
	for _, c := range digits.Counts {
		digitTotal += c
	}
	digitWeight := 0.0
	if digitTotal > 0 {
		expected := float64(digitTotal) / 10
		digitWeight = 1 / (1 + digits.Variance/expected)
	}

	return []patternWeight{
		{
			name:        "consecutive",
			weight:      consecutive.Rate,
			description: fmt.Sprintf("%.0f%% of draws contain consecutive numbers", consecutive.Rate*100),
		},
		{
			name:        "odd_even",
			weight:      oddEven.Weight,
			description: fmt.Sprintf("dominant %s", oddEven.Description),
		},
		{
			name:        "sum",
			weight:      sumWeight,
			description: fmt.Sprintf("sums concentrated around %.0f (σ=%.1f)", sums.Mean, sums.StdDev),
		},
		{
			name:        "high_low",
			weight:      highLow.Weight,
			description: fmt.Sprintf("dominant %s", highLow.Description),
		},
		{
			name:        "ending_digit",
			weight:      digitWeight,
			description: fmt.Sprintf("ending digits near uniform (variance %.1f)", digits.Variance),
		},
	}
}
