package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/jstittsworth/lotto-engine/internal/analyzer"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// frequencyGenerator draws from a duplication-weighted pool: each
// available number is repeated proportionally to its historical
// appearance count, so hot numbers are picked more often.
type frequencyGenerator struct {
	rng *rand.Rand
}

func (g *frequencyGenerator) Method() models.Method {
	return models.MethodFrequency
}

func (g *frequencyGenerator) Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error) {
	start := time.Now()

	freq := analyzer.NumberFrequency(draws)
	maxCount := 0
	for _, count := range freq {
		if count > maxCount {
			maxCount = count
		}
	}

	available := availablePool(cfg)
	selected := seedIncludes(cfg)

	// Weighted pool with one entry per round(weight*100) copies. The
	// square root dampens the spread so cold numbers stay reachable.
	pool := make([]int, 0, len(available)*100)
	for _, n := range available {
		if selected[n] {
			continue
		}
		weight := 1.0
		if cfg.UseWeighting && maxCount > 0 {
			weight = math.Sqrt(float64(freq[n]) / float64(maxCount))
		}
		copies := int(math.Round(weight * 100))
		for i := 0; i < copies; i++ {
			pool = append(pool, n)
		}
	}

	for len(selected) < models.PickCount && len(pool) > 0 {
		n := pool[g.rng.Intn(len(pool))]
		selected[n] = true
		// Remove every copy of the chosen number, not just one, so
		// it cannot be re-drawn.
		kept := pool[:0]
		for _, m := range pool {
			if m != n {
				kept = append(kept, m)
			}
		}
		pool = kept
	}
	// All weights rounded to zero (an all-cold corpus without
	// weighting can't, but an empty corpus with weighting can).
	fillUniform(g.rng, available, selected)

	numbers := sortedKeys(selected)
	reasoning := []string{
		fmt.Sprintf("frequency-weighted over %d draws", len(draws)),
		weightingDescription(cfg.UseWeighting),
		topNumbersDescription(freq),
	}
	return buildResult(models.MethodFrequency, numbers, frequencyConfidence, reasoning, draws, start), nil
}

func weightingDescription(useWeighting bool) string {
	if useWeighting {
		return "square-root weighting applied to appearance counts"
	}
	return "uniform weighting (weighting disabled)"
}

func topNumbersDescription(freq map[int]int) string {
	type numberCount struct {
		number int
		count  int
	}
	counts := make([]numberCount, 0, len(freq))
	for n, c := range freq {
		counts = append(counts, numberCount{n, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].number < counts[j].number
	})
	top := counts
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for _, nc := range top {
		parts = append(parts, fmt.Sprintf("%d (%dx)", nc.number, nc.count))
	}
	return "hottest numbers: " + joinComma(parts)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
