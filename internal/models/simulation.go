package models

import (
	"fmt"
	"time"
)

// Method identifies a generation strategy.
type Method string

const (
	MethodHistorical   Method = "historical"
	MethodFrequency    Method = "frequency"
	MethodMultiPattern Method = "multi_pattern"
	MethodPredictive   Method = "predictive"
	MethodMonteCarlo   Method = "monte_carlo"
	MethodMarkov       Method = "markov"
)

// AllMethods lists every generation strategy in presentation order.
var AllMethods = []Method{
	MethodHistorical,
	MethodFrequency,
	MethodMultiPattern,
	MethodPredictive,
	MethodMonteCarlo,
	MethodMarkov,
}

// Valid reports whether m names a known strategy.
func (m Method) Valid() bool {
	for _, known := range AllMethods {
		if m == known {
			return true
		}
	}
	return false
}

// MaxIncludeNumbers keeps at least one slot free for randomization.
const MaxIncludeNumbers = PickCount - 1

// GenerationConfig drives a simulation batch. It is held mutably by the
// engine between batches but snapshotted (Clone) when a batch starts, so
// edits never affect in-flight work.
type GenerationConfig struct {
	Method          Method      `json:"method"`
	Rounds          int         `json:"rounds"`
	DataRange       *RoundRange `json:"data_range,omitempty"`
	UseWeighting    bool        `json:"use_weighting"`
	ConfidenceLevel float64     `json:"confidence_level"`
	ExcludeNumbers  []int       `json:"exclude_numbers"`
	IncludeNumbers  []int       `json:"include_numbers"`

	// Iterations bounds the Monte Carlo inner loop. Zero means the
	// configured engine default.
	Iterations int `json:"iterations,omitempty"`
}

// DefaultGenerationConfig returns the config a fresh engine starts with.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Method:          MethodFrequency,
		Rounds:          10,
		UseWeighting:    true,
		ConfidenceLevel: 0.95,
	}
}

// Validate rejects invalid configuration at set time rather than
// deferring failures into generation. maxRounds caps requested
// iterations to bound runtime.
func (c *GenerationConfig) Validate(maxRounds int) error {
	if !c.Method.Valid() {
		return fmt.Errorf("unknown generation method %q", c.Method)
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if maxRounds > 0 && c.Rounds > maxRounds {
		return fmt.Errorf("rounds %d exceeds maximum %d", c.Rounds, maxRounds)
	}
	if c.ConfidenceLevel < 0 || c.ConfidenceLevel > 1 {
		return fmt.Errorf("confidence level %v outside [0,1]", c.ConfidenceLevel)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	if c.DataRange != nil && c.DataRange.From > 0 && c.DataRange.To > 0 && c.DataRange.From > c.DataRange.To {
		return fmt.Errorf("data range [%d,%d] is inverted", c.DataRange.From, c.DataRange.To)
	}

	if err := validateNumberSet("exclude_numbers", c.ExcludeNumbers); err != nil {
		return err
	}
	if err := validateNumberSet("include_numbers", c.IncludeNumbers); err != nil {
		return err
	}
	if len(c.IncludeNumbers) > MaxIncludeNumbers {
		return fmt.Errorf("include_numbers holds %d values, maximum is %d", len(c.IncludeNumbers), MaxIncludeNumbers)
	}

	excluded := make(map[int]bool, len(c.ExcludeNumbers))
	for _, n := range c.ExcludeNumbers {
		excluded[n] = true
	}
	for _, n := range c.IncludeNumbers {
		if excluded[n] {
			return fmt.Errorf("number %d is both included and excluded", n)
		}
	}

	// A pool smaller than a full pick is a config error, caught here
	// instead of mid-generation.
	poolSize := MaxNumber - MinNumber + 1 - len(c.ExcludeNumbers)
	if poolSize < PickCount {
		return fmt.Errorf("exclusions leave only %d available numbers, need %d", poolSize, PickCount)
	}
	return nil
}

func validateNumberSet(field string, nums []int) error {
	seen := make(map[int]bool, len(nums))
	for _, n := range nums {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("%s value %d outside [%d,%d]", field, n, MinNumber, MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("%s has duplicate value %d", field, n)
		}
		seen[n] = true
	}
	return nil
}

// Clone returns a deep copy so an in-flight batch never observes later
// config edits.
func (c GenerationConfig) Clone() GenerationConfig {
	clone := c
	if c.DataRange != nil {
		r := *c.DataRange
		clone.DataRange = &r
	}
	clone.ExcludeNumbers = append([]int(nil), c.ExcludeNumbers...)
	clone.IncludeNumbers = append([]int(nil), c.IncludeNumbers...)
	return clone
}

// HistoricalMatch annotates a past draw that overlaps a generated
// combination on at least three numbers.
type HistoricalMatch struct {
	Round          int       `json:"round"`
	DrawDate       time.Time `json:"draw_date"`
	MatchCount     int       `json:"match_count"`
	MatchedNumbers []int     `json:"matched_numbers"`
}

// ResultMetadata records how a result was produced.
type ResultMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	ExecutionMs int64     `json:"execution_ms"`
	DataPoints  int       `json:"data_points"`
}

// SimulationResult is the immutable product of one generation call.
// Probability is a relative score, not a true probability: it is the
// percentage of historical draws the combination overlaps on three or
// more numbers. Confidence is a fixed per-strategy heuristic constant,
// not statistically calibrated.
type SimulationResult struct {
	ID                string            `json:"id"`
	Method            Method            `json:"method"`
	Numbers           []int             `json:"numbers"`
	Probability       float64           `json:"probability"`
	Confidence        float64           `json:"confidence"`
	Reasoning         []string          `json:"reasoning"`
	HistoricalMatches []HistoricalMatch `json:"historical_matches,omitempty"`
	Metadata          ResultMetadata    `json:"metadata"`
}

// BatchStatus is the simulation batch state machine:
// pending -> running -> completed | failed. Cancelled batches are
// dropped rather than kept as a terminal state.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// SimulationBatch is one orchestrated run of N generation calls under a
// snapshotted config. Owned exclusively by the engine while running;
// read-only history afterwards.
type SimulationBatch struct {
	ID          string                `json:"id"`
	Config      GenerationConfig      `json:"config"`
	Results     []SimulationResult    `json:"results"`
	Status      BatchStatus           `json:"status"`
	Progress    int                   `json:"progress"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Statistics  *SimulationStatistics `json:"statistics,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// PatternSummary condenses the shape of a batch's combinations.
type PatternSummary struct {
	AvgConsecutivePairs float64 `json:"avg_consecutive_pairs"`
	OddRate             float64 `json:"odd_rate"`
	EvenRate            float64 `json:"even_rate"`
	HighRate            float64 `json:"high_rate"`
	LowRate             float64 `json:"low_rate"`
	SumMin              int     `json:"sum_min"`
	SumMax              int     `json:"sum_max"`
	SumMean             float64 `json:"sum_mean"`
}

// SimulationStatistics is derived from a completed batch and never
// persisted independently of it.
type SimulationStatistics struct {
	TotalResults    int               `json:"total_results"`
	SuccessRate     float64           `json:"success_rate"`
	AverageMatches  float64           `json:"average_matches"`
	BestResult      *SimulationResult `json:"best_result,omitempty"`
	NumberFrequency map[int]int       `json:"number_frequency"`
	Patterns        PatternSummary    `json:"patterns"`
}
