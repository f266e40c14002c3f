// Package generator implements the number-generation strategies. Each
// strategy consumes the analyzer's statistics plus a generation config
// and produces one six-number combination with a relative probability
// score, a heuristic confidence, and human-readable reasoning.
package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

const (
	// maxPatternAttempts caps every rejection-sampling loop. After the
	// cap the strategy falls back to a plain random pool draw, so
	// generation stays bounded even under pathological configs.
	maxPatternAttempts = 1000

	// defaultMonteCarloIterations is used when the config does not
	// override the inner trial count.
	defaultMonteCarloIterations = 10000
)

// Per-strategy confidence constants. These are deliberately fixed
// heuristics, uncorrelated with predictive accuracy, carried over from
// the product behavior. Do not derive them from data.
const (
	historicalConfidence   = 0.75
	frequencyConfidence    = 0.70
	multiPatternConfidence = 0.65
	predictiveConfidence   = 0.75
	monteCarloConfidence   = 0.80
	markovConfidence       = 0.72
)

// Generator produces one combination per call. Implementations must
// honor exclude/include sets, terminate within bounded work, and return
// the six numbers sorted ascending.
type Generator interface {
	Method() models.Method
	Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error)
}

// New returns the strategy registered for method. The rng is injected
// so batches can share a source and tests can seed deterministically.
func New(method models.Method, rng *rand.Rand) (Generator, error) {
	switch method {
	case models.MethodHistorical:
		return &historicalGenerator{rng: rng}, nil
	case models.MethodFrequency:
		return &frequencyGenerator{rng: rng}, nil
	case models.MethodMultiPattern:
		return &multiPatternGenerator{rng: rng}, nil
	case models.MethodPredictive:
		return &predictiveGenerator{rng: rng}, nil
	case models.MethodMonteCarlo:
		return &monteCarloGenerator{rng: rng}, nil
	case models.MethodMarkov:
		return &markovGenerator{rng: rng}, nil
	default:
		return nil, fmt.Errorf("unknown generation method %q", method)
	}
}

// availablePool returns {1..45} minus the excluded numbers, ascending.
func availablePool(cfg models.GenerationConfig) []int {
	excluded := make(map[int]bool, len(cfg.ExcludeNumbers))
	for _, n := range cfg.ExcludeNumbers {
		excluded[n] = true
	}
	pool := make([]int, 0, models.MaxNumber)
	for n := models.MinNumber; n <= models.MaxNumber; n++ {
		if !excluded[n] {
			pool = append(pool, n)
		}
	}
	return pool
}

// seedIncludes pre-loads the required numbers into a selection set.
func seedIncludes(cfg models.GenerationConfig) map[int]bool {
	selected := make(map[int]bool, models.PickCount)
	for _, n := range cfg.IncludeNumbers {
		selected[n] = true
	}
	return selected
}

// fillUniform completes a selection up to PickCount with uniform draws
// from the pool. The pool must be large enough; Validate guarantees it.
func fillUniform(rng *rand.Rand, pool []int, selected map[int]bool) {
	remaining := make([]int, 0, len(pool))
	for _, n := range pool {
		if !selected[n] {
			remaining = append(remaining, n)
		}
	}
	for len(selected) < models.PickCount && len(remaining) > 0 {
		i := rng.Intn(len(remaining))
		selected[remaining[i]] = true
		remaining[i] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
}

// randomCombination is the plain fallback draw: includes plus uniform
// fill, sorted ascending.
func randomCombination(rng *rand.Rand, cfg models.GenerationConfig) []int {
	selected := seedIncludes(cfg)
	fillUniform(rng, availablePool(cfg), selected)
	return sortedKeys(selected)
}

func sortedKeys(selected map[int]bool) []int {
	nums := make([]int, 0, len(selected))
	for n := range selected {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// buildResult assembles the immutable result: numbers sorted, relative
// probability and historical matches computed against the full slice,
// execution metadata attached.
func buildResult(method models.Method, numbers []int, confidence float64, reasoning []string, draws []models.DrawRecord, start time.Time) *models.SimulationResult {
	sorted := make([]int, len(numbers))
	copy(sorted, numbers)
	sort.Ints(sorted)

	return &models.SimulationResult{
		ID:                uuid.New().String(),
		Method:            method,
		Numbers:           sorted,
		Probability:       CombinationProbability(sorted, draws),
		Confidence:        confidence,
		Reasoning:         reasoning,
		HistoricalMatches: FindHistoricalMatches(sorted, draws),
		Metadata: models.ResultMetadata{
			GeneratedAt: time.Now().UTC(),
			ExecutionMs: time.Since(start).Milliseconds(),
			DataPoints:  len(draws),
		},
	}
}
