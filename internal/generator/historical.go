package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jstittsworth/lotto-engine/internal/analyzer"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// historicalGenerator tallies categorical pattern keys over the corpus
// and reports them in its reasoning. Number selection itself still uses
// the uniform pool draw: the tallies do not weight the pick and only
// inform the reasoning output.
type historicalGenerator struct {
	rng *rand.Rand
}

func (g *historicalGenerator) Method() models.Method {
	return models.MethodHistorical
}

func (g *historicalGenerator) Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error) {
	start := time.Now()

	patterns := tallyPatternKeys(draws)
	numbers := randomCombination(g.rng, cfg)

	reasoning := []string{
		fmt.Sprintf("analyzed %d historical draws", len(draws)),
	}
	result := buildResult(models.MethodHistorical, numbers, historicalConfidence, reasoning, draws, start)

	matchRate := 0.0
	if len(draws) > 0 {
		matchRate = float64(len(result.HistoricalMatches)) / float64(len(draws)) * 100
	}
	result.Reasoning = append(result.Reasoning,
		fmt.Sprintf("historical matching rate %.1f%%", matchRate))
	if key, count := dominantPattern(patterns); count > 0 {
		result.Reasoning = append(result.Reasoning,
			fmt.Sprintf("most frequent draw pattern %q seen %d times", key, count))
	}
	return result, nil
}

// tallyPatternKeys buckets each draw by consecutive-pair count, odd
// count, and sum range.
func tallyPatternKeys(draws []models.DrawRecord) map[string]int {
	patterns := make(map[string]int)
	for _, draw := range draws {
		sorted := draw.SortedNumbers()
		odd := 0
		for _, n := range sorted {
			if n%2 == 1 {
				odd++
			}
		}
		key := fmt.Sprintf("c%d-o%d-s%d", analyzer.ConsecutivePairs(sorted), odd, draw.Sum()/30)
		patterns[key]++
	}
	return patterns
}

func dominantPattern(patterns map[string]int) (string, int) {
	bestKey, bestCount := "", 0
	for key, count := range patterns {
		if count > bestCount || (count == bestCount && key < bestKey) {
			bestKey, bestCount = key, count
		}
	}
	return bestKey, bestCount
}
