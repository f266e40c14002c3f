package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// BatchRecord is the stored form of a finished simulation batch. The
// engine's in-memory bounded history stays authoritative while the
// process lives; rows exist so the UI's history surface survives
// restarts.
type BatchRecord struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	UserID      string         `gorm:"index;size:64" json:"user_id,omitempty"`
	Method      Method         `gorm:"not null;size:32" json:"method"`
	Rounds      int            `gorm:"not null" json:"rounds"`
	Status      BatchStatus    `gorm:"not null;size:16" json:"status"`
	Progress    int            `gorm:"not null" json:"progress"`
	Config      datatypes.JSON `json:"config"`
	Results     datatypes.JSON `json:"results"`
	Statistics  datatypes.JSON `json:"statistics,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (BatchRecord) TableName() string {
	return "simulation_batches"
}

// NewBatchRecord serializes a finished batch for storage.
func NewBatchRecord(batch *SimulationBatch, userID string) (*BatchRecord, error) {
	cfg, err := json.Marshal(batch.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch config: %w", err)
	}
	results, err := json.Marshal(batch.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch results: %w", err)
	}
	record := &BatchRecord{
		ID:          batch.ID,
		UserID:      userID,
		Method:      batch.Config.Method,
		Rounds:      batch.Config.Rounds,
		Status:      batch.Status,
		Progress:    batch.Progress,
		Config:      cfg,
		Results:     results,
		Error:       batch.Error,
		StartedAt:   batch.StartedAt,
		CompletedAt: batch.CompletedAt,
	}
	if batch.Statistics != nil {
		stats, err := json.Marshal(batch.Statistics)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal batch statistics: %w", err)
		}
		record.Statistics = stats
	}
	return record, nil
}

// ToBatch reconstructs the batch for read APIs.
func (r *BatchRecord) ToBatch() (*SimulationBatch, error) {
	batch := &SimulationBatch{
		ID:          r.ID,
		Status:      r.Status,
		Progress:    r.Progress,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	if err := json.Unmarshal(r.Config, &batch.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch config: %w", err)
	}
	if err := json.Unmarshal(r.Results, &batch.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch results: %w", err)
	}
	if len(r.Statistics) > 0 {
		batch.Statistics = &SimulationStatistics{}
		if err := json.Unmarshal(r.Statistics, batch.Statistics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal batch statistics: %w", err)
		}
	}
	return batch, nil
}
