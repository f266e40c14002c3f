package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/models"
	"github.com/jstittsworth/lotto-engine/pkg/database"
)

const batchCacheTTL = 30 * time.Minute

// BatchStore persists finished simulation batches. The engine's bounded
// in-memory history is authoritative while the process lives; rows give
// the UI a history surface that survives restarts.
type BatchStore struct {
	db     *database.DB
	cache  *CacheService
	logger *logrus.Logger
}

func NewBatchStore(db *database.DB, cache *CacheService, logger *logrus.Logger) *BatchStore {
	return &BatchStore{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// Save stores a finished batch and caches it for status reads.
func (s *BatchStore) Save(ctx context.Context, batch *models.SimulationBatch, userID string) error {
	record, err := models.NewBatchRecord(batch, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to store batch %s: %w", batch.ID, err)
	}
	if s.cache != nil {
		if err := s.cache.SetWithRetry(ctx, BatchCacheKey(batch.ID), batch, batchCacheTTL, 3); err != nil {
			s.logger.WithError(err).Warn("failed to cache stored batch")
		}
	}
	return nil
}

// Get loads one stored batch, cache first.
func (s *BatchStore) Get(ctx context.Context, batchID string) (*models.SimulationBatch, error) {
	if s.cache != nil {
		var cached models.SimulationBatch
		if err := s.cache.Get(ctx, BatchCacheKey(batchID), &cached); err == nil {
			return &cached, nil
		}
	}

	var record models.BatchRecord
	if err := s.db.WithContext(ctx).Where("id = ?", batchID).First(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	return record.ToBatch()
}

// Recent lists the latest stored batches, newest first.
func (s *BatchStore) Recent(ctx context.Context, userID string, limit int) ([]*models.SimulationBatch, error) {
	if limit <= 0 {
		limit = 10
	}
	query := s.db.WithContext(ctx).Model(&models.BatchRecord{}).Order("started_at DESC").Limit(limit)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var records []models.BatchRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list stored batches: %w", err)
	}

	batches := make([]*models.SimulationBatch, 0, len(records))
	for i := range records {
		batch, err := records[i].ToBatch()
		if err != nil {
			s.logger.WithError(err).WithField("batch_id", records[i].ID).Warn("skipping undecodable stored batch")
			continue
		}
		batches = append(batches, batch)
	}
	return batches, nil
}
