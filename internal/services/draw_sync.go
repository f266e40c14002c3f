package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/providers"
)

// syncChunkSize bounds how many rounds one sync pass will pull, so a
// cold database backfills across several passes instead of hammering
// the upstream in one go.
const syncChunkSize = 50

// DrawSyncService keeps the local corpus in step with the official
// results API on a cron schedule.
type DrawSyncService struct {
	draws    *DrawService
	client   *providers.LotteryAPIClient
	hub      *WebSocketHub
	logger   *logrus.Logger
	cron     *cron.Cron
	interval time.Duration

	mu        sync.Mutex
	isRunning bool
}

func NewDrawSyncService(
	draws *DrawService,
	client *providers.LotteryAPIClient,
	hub *WebSocketHub,
	logger *logrus.Logger,
	interval time.Duration,
) *DrawSyncService {
	return &DrawSyncService{
		draws:    draws,
		client:   client,
		hub:      hub,
		logger:   logger,
		cron:     cron.New(),
		interval: interval,
	}
}

// Start schedules recurring syncs and kicks off an initial pass.
func (s *DrawSyncService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("draw sync is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.interval.String())
	if _, err := s.cron.AddFunc(schedule, func() { s.syncOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule draw sync: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	go s.syncOnce(context.Background())

	s.logger.Info("Draw sync service started")
	return nil
}

// Stop halts scheduled syncs.
func (s *DrawSyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.cron.Stop()
	s.isRunning = false
	s.logger.Info("Draw sync service stopped")
}

// SyncNow runs one sync pass immediately and returns the count of new
// rounds stored.
func (s *DrawSyncService) SyncNow(ctx context.Context) (int, error) {
	return s.sync(ctx)
}

func (s *DrawSyncService) syncOnce(ctx context.Context) {
	if _, err := s.sync(ctx); err != nil {
		s.logger.WithError(err).Error("draw sync pass failed")
	}
}

func (s *DrawSyncService) sync(ctx context.Context) (int, error) {
	latest, err := s.draws.LatestRound(ctx)
	if err != nil {
		return 0, err
	}

	from := latest + 1
	fetched, err := s.client.FetchRange(ctx, from, from+syncChunkSize-1)
	if len(fetched) == 0 {
		return 0, err
	}

	saved, saveErr := s.draws.SaveDraws(ctx, fetched)
	if saveErr != nil {
		return saved, saveErr
	}
	if saved > 0 {
		s.logger.WithFields(logrus.Fields{
			"from":  from,
			"saved": saved,
		}).Info("synced new draw rounds")
		if s.hub != nil {
			s.hub.BroadcastToTopic(TopicDraws, "draws_updated", map[string]int{
				"latest_round": fetched[len(fetched)-1].Round,
				"new_rounds":   saved,
			})
		}
	}
	return saved, err
}
