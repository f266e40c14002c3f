package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jstittsworth/lotto-engine/internal/models"
	"github.com/jstittsworth/lotto-engine/pkg/database"
)

const drawListCacheTTL = 5 * time.Minute

// DrawService is the draw corpus accessor: it serves historical draw
// records ordered oldest to newest, cached in redis, and accepts new
// rounds from the sync service. Records are append-only; existing
// rounds are never rewritten.
type DrawService struct {
	db     *database.DB
	cache  *CacheService
	logger *logrus.Logger
}

func NewDrawService(db *database.DB, cache *CacheService, logger *logrus.Logger) *DrawService {
	return &DrawService{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// FetchDraws returns draws in the inclusive round range, ascending by
// round. A nil range returns the full corpus. Fetch failures propagate;
// they are never swallowed into an empty slice.
func (s *DrawService) FetchDraws(ctx context.Context, r *models.RoundRange) ([]models.DrawRecord, error) {
	from, to := 0, 0
	if r != nil {
		from, to = r.From, r.To
	}

	cacheKey := DrawListCacheKey(from, to)
	if s.cache != nil {
		var cached []models.DrawRecord
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	query := s.db.WithContext(ctx).Model(&models.DrawRecord{})
	if from > 0 {
		query = query.Where("round >= ?", from)
	}
	if to > 0 {
		query = query.Where("round <= ?", to)
	}

	var draws []models.DrawRecord
	if err := query.Order("round ASC").Find(&draws).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch draws: %w", err)
	}

	if s.cache != nil && len(draws) > 0 {
		if err := s.cache.Set(ctx, cacheKey, draws, drawListCacheTTL); err != nil {
			s.logger.WithError(err).Warn("failed to cache draw list")
		}
	}
	return draws, nil
}

// LatestRound returns the highest stored round, zero for an empty corpus.
func (s *DrawService) LatestRound(ctx context.Context) (int, error) {
	var draw models.DrawRecord
	err := s.db.WithContext(ctx).Order("round DESC").First(&draw).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query latest round: %w", err)
	}
	return draw.Round, nil
}

// SaveDraws validates and appends new draw records, skipping rounds
// already stored, and invalidates the cached lists.
func (s *DrawService) SaveDraws(ctx context.Context, draws []models.DrawRecord) (int, error) {
	saved := 0
	for i := range draws {
		if err := draws[i].Validate(); err != nil {
			return saved, fmt.Errorf("rejected draw record: %w", err)
		}
	}
	for i := range draws {
		result := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "round"}},
				DoNothing: true,
			}).
			Create(&draws[i])
		if result.Error != nil {
			return saved, fmt.Errorf("failed to save draw %d: %w", draws[i].Round, result.Error)
		}
		saved += int(result.RowsAffected)
	}

	if saved > 0 && s.cache != nil {
		if err := s.cache.Delete(ctx, DrawListCacheKey(0, 0), LatestRoundCacheKey()); err != nil {
			s.logger.WithError(err).Warn("failed to invalidate draw cache")
		}
	}
	return saved, nil
}

// Count returns the corpus size.
func (s *DrawService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.DrawRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count draws: %w", err)
	}
	return count, nil
}
