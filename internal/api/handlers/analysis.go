package handlers

import (
	"fmt"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/lotto-engine/internal/analyzer"
	"github.com/jstittsworth/lotto-engine/internal/generator"
	"github.com/jstittsworth/lotto-engine/internal/models"
	"github.com/jstittsworth/lotto-engine/internal/services"
	"github.com/jstittsworth/lotto-engine/pkg/utils"
)

type AnalysisHandler struct {
	draws *services.DrawService
}

func NewAnalysisHandler(draws *services.DrawService) *AnalysisHandler {
	return &AnalysisHandler{draws: draws}
}

// GetPatterns runs every pattern analysis over the requested range.
func (h *AnalysisHandler) GetPatterns(c *gin.Context) {
	r, err := parseRoundRange(c)
	if err != nil {
		utils.SendValidationError(c, "Invalid round range", err.Error())
		return
	}

	draws, err := h.draws.FetchDraws(c.Request.Context(), r)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch draws")
		return
	}

	utils.SendSuccess(c, gin.H{
		"data_points":   len(draws),
		"frequency":     analyzer.NumberFrequency(draws),
		"consecutive":   analyzer.ConsecutivePattern(draws),
		"odd_even":      analyzer.OddEvenPattern(draws),
		"high_low":      analyzer.HighLowPattern(draws),
		"sum":           analyzer.SumPattern(draws),
		"ending_digits": analyzer.EndingDigitPattern(draws),
	})
}

// GetFrequency returns per-number appearance counts, hottest first.
func (h *AnalysisHandler) GetFrequency(c *gin.Context) {
	r, err := parseRoundRange(c)
	if err != nil {
		utils.SendValidationError(c, "Invalid round range", err.Error())
		return
	}

	draws, err := h.draws.FetchDraws(c.Request.Context(), r)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch draws")
		return
	}

	freq := analyzer.NumberFrequency(draws)

	type entry struct {
		Number int `json:"number"`
		Count  int `json:"count"`
	}
	ranked := make([]entry, 0, len(freq))
	for n, count := range freq {
		ranked = append(ranked, entry{Number: n, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Number < ranked[j].Number
	})

	utils.SendSuccess(c, gin.H{
		"data_points": len(draws),
		"frequency":   ranked,
	})
}

type probabilityRequest struct {
	Numbers []int `json:"numbers" binding:"required"`
}

// CheckCombination scores a user-supplied combination against history:
// the share of past draws it overlaps on three or more numbers, plus
// the matching draws themselves.
func (h *AnalysisHandler) CheckCombination(c *gin.Context) {
	var req probabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := validateCombination(req.Numbers); err != nil {
		utils.SendValidationError(c, "Invalid combination", err.Error())
		return
	}

	r, err := parseRoundRange(c)
	if err != nil {
		utils.SendValidationError(c, "Invalid round range", err.Error())
		return
	}

	draws, err := h.draws.FetchDraws(c.Request.Context(), r)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch draws")
		return
	}

	sorted := append([]int(nil), req.Numbers...)
	sort.Ints(sorted)

	utils.SendSuccess(c, gin.H{
		"numbers":     sorted,
		"probability": generator.CombinationProbability(sorted, draws),
		"matches":     generator.FindHistoricalMatches(sorted, draws),
		"data_points": len(draws),
	})
}

func validateCombination(numbers []int) error {
	if len(numbers) != models.PickCount {
		return fmt.Errorf("combination has %d numbers, want %d", len(numbers), models.PickCount)
	}
	seen := make(map[int]bool, models.PickCount)
	for _, n := range numbers {
		if n < models.MinNumber || n > models.MaxNumber {
			return fmt.Errorf("number %d outside [%d,%d]", n, models.MinNumber, models.MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = true
	}
	return nil
}
