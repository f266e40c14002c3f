package generator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/jstittsworth/lotto-engine/internal/models"
)

func testDraw(round int, numbers ...int) models.DrawRecord {
	return models.DrawRecord{
		Round:       round,
		DrawDate:    time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*round),
		MainNumbers: datatypes.NewJSONSlice(numbers),
	}
}

// testCorpus builds a deterministic corpus of valid draws.
func testCorpus(n int) []models.DrawRecord {
	rng := rand.New(rand.NewSource(7))
	draws := make([]models.DrawRecord, 0, n)
	for i := 1; i <= n; i++ {
		nums := rng.Perm(models.MaxNumber)[:models.PickCount]
		for j := range nums {
			nums[j]++
		}
		draws = append(draws, testDraw(i, nums...))
	}
	return draws
}

func assertValidCombination(t *testing.T, numbers []int) {
	t.Helper()
	require.Len(t, numbers, models.PickCount)
	seen := make(map[int]bool)
	for i, n := range numbers {
		assert.GreaterOrEqual(t, n, models.MinNumber)
		assert.LessOrEqual(t, n, models.MaxNumber)
		assert.False(t, seen[n], "duplicate number %d", n)
		seen[n] = true
		if i > 0 {
			assert.Greater(t, n, numbers[i-1], "numbers must be ascending")
		}
	}
}

func TestAllMethodsProduceValidCombinations(t *testing.T) {
	draws := testCorpus(100)
	cfg := models.GenerationConfig{
		Method:          models.MethodFrequency,
		Rounds:          1,
		UseWeighting:    true,
		ConfidenceLevel: 0.95,
		ExcludeNumbers:  []int{13, 14},
		IncludeNumbers:  []int{7, 21},
	}

	wantConfidence := map[models.Method]float64{
		models.MethodHistorical:   0.75,
		models.MethodFrequency:    0.70,
		models.MethodMultiPattern: 0.65,
		models.MethodPredictive:   0.75,
		models.MethodMonteCarlo:   0.80,
		models.MethodMarkov:       0.72,
	}

	for _, method := range models.AllMethods {
		t.Run(string(method), func(t *testing.T) {
			cfg := cfg.Clone()
			cfg.Method = method
			if method == models.MethodMonteCarlo {
				cfg.Iterations = 200
			}

			gen, err := New(method, rand.New(rand.NewSource(42)))
			require.NoError(t, err)
			assert.Equal(t, method, gen.Method())

			for i := 0; i < 20; i++ {
				result, err := gen.Generate(draws, cfg)
				require.NoError(t, err)

				assertValidCombination(t, result.Numbers)
				assert.Contains(t, result.Numbers, 7)
				assert.Contains(t, result.Numbers, 21)
				assert.NotContains(t, result.Numbers, 13)
				assert.NotContains(t, result.Numbers, 14)

				assert.Equal(t, method, result.Method)
				assert.InDelta(t, wantConfidence[method], result.Confidence, 1e-9)
				assert.NotEmpty(t, result.ID)
				assert.NotEmpty(t, result.Reasoning)
				assert.Equal(t, len(draws), result.Metadata.DataPoints)
			}
		})
	}
}

func TestUnknownMethod(t *testing.T) {
	_, err := New(models.Method("astrology"), rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSeededGenerationIsDeterministic(t *testing.T) {
	draws := testCorpus(80)
	cfg := models.GenerationConfig{
		Method:          models.MethodFrequency,
		Rounds:          1,
		UseWeighting:    true,
		ConfidenceLevel: 0.95,
		Iterations:      100,
	}

	for _, method := range models.AllMethods {
		t.Run(string(method), func(t *testing.T) {
			cfg := cfg.Clone()
			cfg.Method = method

			genA, err := New(method, rand.New(rand.NewSource(99)))
			require.NoError(t, err)
			genB, err := New(method, rand.New(rand.NewSource(99)))
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				a, err := genA.Generate(draws, cfg)
				require.NoError(t, err)
				b, err := genB.Generate(draws, cfg)
				require.NoError(t, err)
				assert.Equal(t, a.Numbers, b.Numbers, "iteration %d diverged", i)
			}
		})
	}
}

// A pool barely large enough must still terminate: rejection loops are
// capped and fall back to a plain draw.
func TestTightPoolTerminates(t *testing.T) {
	draws := testCorpus(50)

	exclude := make([]int, 0, models.MaxNumber-models.PickCount)
	for n := models.MinNumber; n <= models.MaxNumber-models.PickCount; n++ {
		exclude = append(exclude, n)
	}
	cfg := models.GenerationConfig{
		Method:          models.MethodMultiPattern,
		Rounds:          1,
		ConfidenceLevel: 0.9,
		ExcludeNumbers:  exclude, // leaves exactly 40..45
		Iterations:      50,
	}
	require.NoError(t, cfg.Validate(0))

	want := []int{40, 41, 42, 43, 44, 45}
	for _, method := range models.AllMethods {
		t.Run(string(method), func(t *testing.T) {
			cfg := cfg.Clone()
			cfg.Method = method
			gen, err := New(method, rand.New(rand.NewSource(3)))
			require.NoError(t, err)

			result, err := gen.Generate(draws, cfg)
			require.NoError(t, err)
			assert.Equal(t, want, result.Numbers)
		})
	}
}

func TestMonteCarloSingleIteration(t *testing.T) {
	draws := testCorpus(60)
	cfg := models.GenerationConfig{
		Method:          models.MethodMonteCarlo,
		Rounds:          1,
		ConfidenceLevel: 0.9,
		Iterations:      1,
	}

	gen, err := New(models.MethodMonteCarlo, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	result, err := gen.Generate(draws, cfg)
	require.NoError(t, err)
	assertValidCombination(t, result.Numbers)
	assert.InDelta(t, 0.80, result.Confidence, 1e-9)
}

func TestFindHistoricalMatches(t *testing.T) {
	draws := []models.DrawRecord{
		testDraw(1, 1, 2, 3, 40, 41, 42),    // 3 matches
		testDraw(2, 1, 2, 3, 4, 41, 42),     // 4 matches
		testDraw(3, 1, 2, 40, 41, 42, 43),   // 2 matches, below threshold
		testDraw(4, 10, 20, 30, 33, 44, 45), // none
	}
	numbers := []int{1, 2, 3, 4, 5, 6}

	matches := FindHistoricalMatches(numbers, draws)

	require.Len(t, matches, 2)
	// Descending by match count.
	assert.Equal(t, 2, matches[0].Round)
	assert.Equal(t, 4, matches[0].MatchCount)
	assert.Equal(t, []int{1, 2, 3, 4}, matches[0].MatchedNumbers)
	assert.Equal(t, 1, matches[1].Round)
	assert.Equal(t, 3, matches[1].MatchCount)
}

func TestCombinationProbability(t *testing.T) {
	// Two of four draws overlap on three or more numbers: score 50.0.
	draws := []models.DrawRecord{
		testDraw(1, 1, 2, 3, 40, 41, 42),
		testDraw(2, 4, 5, 6, 40, 41, 42),
		testDraw(3, 1, 2, 40, 41, 42, 43),
		testDraw(4, 10, 20, 30, 33, 44, 45),
	}
	numbers := []int{1, 2, 3, 4, 5, 6}

	assert.InDelta(t, 50.0, CombinationProbability(numbers, draws), 1e-9)
}

func TestCombinationProbabilityEmptyCorpus(t *testing.T) {
	assert.Zero(t, CombinationProbability([]int{1, 2, 3, 4, 5, 6}, nil))
}
