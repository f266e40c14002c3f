package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/jstittsworth/lotto-engine/internal/analyzer"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// topCandidateCount restricts the predictive pool to the strongest
// numbers by historical probability.
const topCandidateCount = 15

// predictiveGenerator blends "pick the most probable numbers" with
// "random within the top candidates": per-number probabilities come
// from appearance frequency, the pool is cut to the top 15, and the
// final six are drawn uniformly inside that pool.
type predictiveGenerator struct {
	rng *rand.Rand
}

func (g *predictiveGenerator) Method() models.Method {
	return models.MethodPredictive
}

func (g *predictiveGenerator) Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error) {
	start := time.Now()

	freq := analyzer.NumberFrequency(draws)
	available := availablePool(cfg)

	// Probability of each number per historical draw.
	type candidate struct {
		number      int
		probability float64
	}
	candidates := make([]candidate, 0, len(available))
	for _, n := range available {
		p := 0.0
		if len(draws) > 0 {
			p = float64(freq[n]) / float64(len(draws))
		}
		candidates = append(candidates, candidate{n, p})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].probability != candidates[j].probability {
			return candidates[i].probability > candidates[j].probability
		}
		return candidates[i].number < candidates[j].number
	})

	top := candidates
	if len(top) > topCandidateCount {
		top = top[:topCandidateCount]
	}
	pool := make([]int, 0, len(top))
	for _, c := range top {
		pool = append(pool, c.number)
	}

	selected := seedIncludes(cfg)
	fillUniform(g.rng, pool, selected)
	// The top pool can run short when includes overlap it heavily;
	// finish from the full available pool.
	fillUniform(g.rng, available, selected)

	weights := collectPatternWeights(draws)
	reasoning := []string{
		fmt.Sprintf("model built from %d draws, candidates restricted to top %d numbers by probability", len(draws), len(pool)),
	}
	for _, w := range weights[:3] {
		reasoning = append(reasoning, w.description)
	}

	numbers := sortedKeys(selected)
	return buildResult(models.MethodPredictive, numbers, predictiveConfidence, reasoning, draws, start), nil
}
