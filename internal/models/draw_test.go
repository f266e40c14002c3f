package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func validDraw() DrawRecord {
	return DrawRecord{
		Round:       100,
		MainNumbers: datatypes.NewJSONSlice([]int{3, 11, 14, 22, 37, 45}),
		BonusNumber: 7,
	}
}

func TestDrawRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DrawRecord)
		wantErr string
	}{
		{"valid", func(d *DrawRecord) {}, ""},
		{"zero round", func(d *DrawRecord) { d.Round = 0 }, "round must be positive"},
		{"five numbers", func(d *DrawRecord) { d.MainNumbers = d.MainNumbers[:5] }, "main numbers"},
		{"number out of range", func(d *DrawRecord) { d.MainNumbers[0] = 46 }, "outside"},
		{"duplicate number", func(d *DrawRecord) { d.MainNumbers[0] = 11 }, "duplicate"},
		{"bonus out of range", func(d *DrawRecord) { d.BonusNumber = 0 }, "bonus number"},
		{"bonus collides with main", func(d *DrawRecord) { d.BonusNumber = 22 }, "collides"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draw := validDraw()
			tt.mutate(&draw)
			err := draw.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDrawRecordHelpers(t *testing.T) {
	draw := DrawRecord{MainNumbers: datatypes.NewJSONSlice([]int{40, 3, 22, 11, 45, 14})}

	assert.Equal(t, []int{3, 11, 14, 22, 40, 45}, draw.SortedNumbers())
	// SortedNumbers does not mutate the record.
	assert.Equal(t, 40, draw.MainNumbers[0])

	assert.True(t, draw.HasNumber(22))
	assert.False(t, draw.HasNumber(23))
	assert.Equal(t, 135, draw.Sum())
}
