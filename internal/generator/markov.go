package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

// markovGenerator walks a first-order transition table built from
// temporally adjacent draws: transitions[a][b] counts how often number
// b appeared in the draw immediately following a draw containing a.
// The corpus must be ordered oldest to newest for adjacency to mean
// anything; the draw service guarantees that ordering.
type markovGenerator struct {
	rng *rand.Rand
}

func (g *markovGenerator) Method() models.Method {
	return models.MethodMarkov
}

func (g *markovGenerator) Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error) {
	start := time.Now()

	transitions := buildTransitions(draws)
	available := availablePool(cfg)
	selected := seedIncludes(cfg)

	// Walk from a seed, sampling each next number weighted by the
	// transition counts restricted to unchosen pool numbers. When the
	// current state has no usable transitions, fall back to a uniform
	// pick from the remainder and continue the walk from there.
	current := 0
	if len(selected) > 0 {
		current = sortedKeys(selected)[0]
	} else {
		seed, ok := pickUniform(g.rng, available, selected)
		if !ok {
			return buildResult(models.MethodMarkov, sortedKeys(selected), markovConfidence, nil, draws, start), nil
		}
		selected[seed] = true
		current = seed
	}

	for len(selected) < models.PickCount {
		next, ok := g.sampleTransition(transitions[current], available, selected)
		if !ok {
			next, ok = pickUniform(g.rng, available, selected)
			if !ok {
				break
			}
		}
		selected[next] = true
		current = next
	}

	pairCount := len(draws) - 1
	if pairCount < 0 {
		pairCount = 0
	}
	reasoning := []string{
		fmt.Sprintf("transition table built from %d adjacent draw pairs", pairCount),
		"numbers chained by draw-to-draw transition frequency",
	}
	numbers := sortedKeys(selected)
	return buildResult(models.MethodMarkov, numbers, markovConfidence, reasoning, draws, start), nil
}

// sampleTransition draws the next number proportionally to the
// transition counts, restricted to available and unchosen numbers.
func (g *markovGenerator) sampleTransition(row map[int]int, available []int, selected map[int]bool) (int, bool) {
	if len(row) == 0 {
		return 0, false
	}
	total := 0
	for _, n := range available {
		if !selected[n] {
			total += row[n]
		}
	}
	if total == 0 {
		return 0, false
	}
	target := g.rng.Intn(total)
	for _, n := range available {
		if selected[n] {
			continue
		}
		target -= row[n]
		if target < 0 {
			return n, true
		}
	}
	return 0, false
}

// pickUniform returns one uniform pick from the unchosen pool numbers.
func pickUniform(rng *rand.Rand, pool []int, selected map[int]bool) (int, bool) {
	remaining := make([]int, 0, len(pool))
	for _, n := range pool {
		if !selected[n] {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) == 0 {
		return 0, false
	}
	return remaining[rng.Intn(len(remaining))], true
}

func buildTransitions(draws []models.DrawRecord) map[int]map[int]int {
	transitions := make(map[int]map[int]int)
	for i := 0; i+1 < len(draws); i++ {
		for _, from := range draws[i].MainNumbers {
			row := transitions[from]
			if row == nil {
				row = make(map[int]int)
				transitions[from] = row
			}
			for _, to := range draws[i+1].MainNumbers {
				row[to]++
			}
		}
	}
	return transitions
}
