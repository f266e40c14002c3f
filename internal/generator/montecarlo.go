package generator

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jstittsworth/lotto-engine/internal/analyzer"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// monteCarloGenerator runs many inner trial draws from a probability-
// weighted pool and returns the full combination that recurred most
// often, ties broken by first appearance. This is the heaviest
// strategy: O(iterations × 45).
type monteCarloGenerator struct {
	rng *rand.Rand
}

func (g *monteCarloGenerator) Method() models.Method {
	return models.MethodMonteCarlo
}

func (g *monteCarloGenerator) Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error) {
	start := time.Now()

	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = defaultMonteCarloIterations
	}

	freq := analyzer.NumberFrequency(draws)
	totalAppearances := 0
	for _, count := range freq {
		totalAppearances += count
	}

	available := availablePool(cfg)

	// Weighted pool shared across trials: instances proportional to
	// round(probability*1000), with at least one instance so every
	// available number stays reachable.
	pool := make([]int, 0, len(available))
	for _, n := range available {
		instances := 1
		if totalAppearances > 0 {
			p := float64(freq[n]) / float64(totalAppearances)
			if scaled := int(math.Round(p * 1000)); scaled > instances {
				instances = scaled
			}
		}
		for i := 0; i < instances; i++ {
			pool = append(pool, n)
		}
	}

	tally := make(map[string]int, iterations)
	firstSeen := make(map[string]int, iterations)
	combos := make(map[string][]int, iterations)

	for i := 0; i < iterations; i++ {
		combo := g.trialDraw(pool, cfg)
		key := comboKey(combo)
		if _, ok := firstSeen[key]; !ok {
			firstSeen[key] = i
			combos[key] = combo
		}
		tally[key]++
	}

	bestKey := ""
	for key, count := range tally {
		if bestKey == "" {
			bestKey = key
			continue
		}
		if count > tally[bestKey] || (count == tally[bestKey] && firstSeen[key] < firstSeen[bestKey]) {
			bestKey = key
		}
	}
	numbers := combos[bestKey]

	reasoning := []string{
		fmt.Sprintf("%d Monte Carlo trials over %d draws", iterations, len(draws)),
		fmt.Sprintf("winning combination recurred %d times", tally[bestKey]),
	}
	return buildResult(models.MethodMonteCarlo, numbers, monteCarloConfidence, reasoning, draws, start), nil
}

// trialDraw picks one six-number combination from the weighted pool,
// includes pre-seeded. Duplicate hits are re-rolled up to the attempt
// cap, then the draw completes uniformly.
func (g *monteCarloGenerator) trialDraw(pool []int, cfg models.GenerationConfig) []int {
	selected := seedIncludes(cfg)
	for attempts := 0; len(selected) < models.PickCount && attempts < maxPatternAttempts; attempts++ {
		if len(pool) == 0 {
			break
		}
		n := pool[g.rng.Intn(len(pool))]
		selected[n] = true
	}
	fillUniform(g.rng, availablePool(cfg), selected)
	return sortedKeys(selected)
}

// comboKey joins a sorted combination into a single tally key.
func comboKey(sorted []int) string {
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "-")
}
