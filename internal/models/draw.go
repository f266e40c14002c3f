package models

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
)

// Number space for a 6/45 lottery draw.
const (
	MinNumber = 1
	MaxNumber = 45
	PickCount = 6

	// Numbers above the boundary count as "high" for ratio analysis.
	// The split is asymmetric on purpose: 22 low slots vs 23 high slots.
	HighLowBoundary = 22
)

// DrawRecord is one official draw outcome. Records are append-only:
// once fetched from the upstream results API they are never mutated,
// and the corpus only grows by newer rounds.
type DrawRecord struct {
	ID                uint                     `gorm:"primaryKey" json:"id"`
	Round             int                      `gorm:"uniqueIndex;not null" json:"round"`
	DrawDate          time.Time                `gorm:"not null" json:"draw_date"`
	MainNumbers       datatypes.JSONSlice[int] `gorm:"not null" json:"main_numbers"`
	BonusNumber       int                      `gorm:"not null" json:"bonus_number"`
	FirstPrizeAmount  int64                    `json:"first_prize_amount"`
	FirstPrizeWinners int                      `json:"first_prize_winners"`
	TotalSales        int64                    `json:"total_sales"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

func (DrawRecord) TableName() string {
	return "draw_records"
}

// SortedNumbers returns the six main numbers in ascending order without
// mutating the record.
func (d *DrawRecord) SortedNumbers() []int {
	nums := make([]int, len(d.MainNumbers))
	copy(nums, d.MainNumbers)
	sort.Ints(nums)
	return nums
}

// HasNumber reports whether n is one of the six main numbers.
func (d *DrawRecord) HasNumber(n int) bool {
	for _, m := range d.MainNumbers {
		if m == n {
			return true
		}
	}
	return false
}

// Sum returns the sum of the six main numbers.
func (d *DrawRecord) Sum() int {
	total := 0
	for _, n := range d.MainNumbers {
		total += n
	}
	return total
}

// Validate checks the structural invariants of a draw record. Upstream
// data is not trusted blindly; sync rejects records that fail this.
func (d *DrawRecord) Validate() error {
	if d.Round <= 0 {
		return fmt.Errorf("round must be positive, got %d", d.Round)
	}
	if len(d.MainNumbers) != PickCount {
		return fmt.Errorf("draw %d has %d main numbers, want %d", d.Round, len(d.MainNumbers), PickCount)
	}
	seen := make(map[int]bool, PickCount)
	for _, n := range d.MainNumbers {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("draw %d has number %d outside [%d,%d]", d.Round, n, MinNumber, MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("draw %d has duplicate number %d", d.Round, n)
		}
		seen[n] = true
	}
	if d.BonusNumber < MinNumber || d.BonusNumber > MaxNumber {
		return fmt.Errorf("draw %d has bonus number %d outside [%d,%d]", d.Round, d.BonusNumber, MinNumber, MaxNumber)
	}
	if seen[d.BonusNumber] {
		return fmt.Errorf("draw %d bonus number %d collides with main numbers", d.Round, d.BonusNumber)
	}
	return nil
}

// RoundRange is an inclusive bound on draw rounds. A zero bound is open.
type RoundRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether round falls inside the range.
func (r *RoundRange) Contains(round int) bool {
	if r == nil {
		return true
	}
	if r.From > 0 && round < r.From {
		return false
	}
	if r.To > 0 && round > r.To {
		return false
	}
	return true
}
