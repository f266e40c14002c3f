// Package simulation orchestrates batches of generation calls: it owns
// the batch state machine, streams progress to a sink, and keeps a
// bounded history of completed batches.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/generator"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// CorpusAccessor supplies the historical draws a batch runs against.
// Implementations must return a stable slice ordered oldest to newest
// and must not swallow fetch errors.
type CorpusAccessor interface {
	FetchDraws(ctx context.Context, r *models.RoundRange) ([]models.DrawRecord, error)
}

// ProgressEvent is pushed to the sink once per completed iteration, in
// completion order.
type ProgressEvent struct {
	BatchID      string                   `json:"batch_id"`
	Progress     int                      `json:"progress"`
	LatestResult *models.SimulationResult `json:"latest_result,omitempty"`
}

// ProgressSink receives progress events. Publish must not block for
// long; slow consumers should buffer on their side.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(event ProgressEvent)

func (f ProgressFunc) Publish(event ProgressEvent) { f(event) }

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	// HistorySize bounds retained completed batches, FIFO eviction.
	HistorySize int
	// YieldInterval is how many iterations run between scheduler
	// yields while a batch is in flight.
	YieldInterval int
	// MaxRounds caps requested batch sizes.
	MaxRounds int
	// InterMethodDelay separates sequential runs in RunAll.
	InterMethodDelay time.Duration
	// Seed fixes the random source; zero seeds from the clock.
	Seed int64
}

const (
	defaultHistorySize   = 10
	defaultYieldInterval = 10
	defaultMaxRounds     = 10000
)

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	if opts.YieldInterval <= 0 {
		opts.YieldInterval = defaultYieldInterval
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = defaultMaxRounds
	}
	return opts
}

// Engine runs simulation batches. Start refuses to overlap, so at most
// one batch is live at a time. After Cancel the dropped batch's
// goroutine may still be finishing its current iteration when the next
// Start begins; each batch runs on its own random source and writes to
// its own batch struct, so the two never share mutable state.
type Engine struct {
	corpus CorpusAccessor
	sink   ProgressSink
	logger *logrus.Logger
	opts   Options
	rng    *rand.Rand

	mu      sync.Mutex
	config  models.GenerationConfig
	current *models.SimulationBatch
	history []*models.SimulationBatch
	running bool
	cancel  context.CancelFunc

	// newGenerator is swappable in tests to inject failures.
	newGenerator func(models.Method, *rand.Rand) (generator.Generator, error)
}

// NewEngine wires an engine with explicit dependencies. The corpus
// accessor is injected rather than reached through a singleton so tests
// can run against mock corpora.
func NewEngine(corpus CorpusAccessor, sink ProgressSink, logger *logrus.Logger, opts Options) *Engine {
	opts = opts.withDefaults()
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		corpus:       corpus,
		sink:         sink,
		logger:       logger,
		opts:         opts,
		rng:          rand.New(rand.NewSource(seed)),
		config:       models.DefaultGenerationConfig(),
		newGenerator: generator.New,
	}
}

// SetConfig validates and replaces the engine configuration. Invalid
// configs are rejected here, never deferred into generation.
func (e *Engine) SetConfig(cfg models.GenerationConfig) error {
	if err := cfg.Validate(e.opts.MaxRounds); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = cfg.Clone()
	return nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() models.GenerationConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.Clone()
}

// IsRunning reports whether a batch is in flight.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// CanRun reports whether Start would begin a batch: nothing running and
// a non-empty corpus for the configured range.
func (e *Engine) CanRun(ctx context.Context) (bool, error) {
	if e.IsRunning() {
		return false, nil
	}
	draws, err := e.corpus.FetchDraws(ctx, e.Config().DataRange)
	if err != nil {
		return false, err
	}
	return len(draws) > 0, nil
}

// Start runs a batch to completion in the calling goroutine, yielding
// to the scheduler between iteration slices so progress stays
// observable. Callers wanting asynchrony run it in their own goroutine.
//
// Preconditions are soft: starting while running or with an empty
// corpus is a warned no-op returning (nil, nil), not an error. Callers
// are expected to consult CanRun first. Corpus fetch failures are real
// errors and propagate.
func (e *Engine) Start(ctx context.Context, roundsOverride int) (*models.SimulationBatch, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.logger.Warn("simulation start ignored: a batch is already running")
		return nil, nil
	}
	cfg := e.config.Clone()
	e.mu.Unlock()

	if roundsOverride > 0 {
		cfg.Rounds = roundsOverride
		if err := cfg.Validate(e.opts.MaxRounds); err != nil {
			return nil, err
		}
	}

	draws, err := e.corpus.FetchDraws(ctx, cfg.DataRange)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch draw corpus: %w", err)
	}
	if len(draws) == 0 {
		e.logger.Warn("simulation start ignored: draw corpus is empty")
		return nil, nil
	}

	batch := &models.SimulationBatch{
		ID:        uuid.New().String(),
		Config:    cfg,
		Results:   make([]models.SimulationResult, 0, cfg.Rounds),
		Status:    models.BatchPending,
		StartedAt: time.Now().UTC(),
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.logger.Warn("simulation start ignored: a batch is already running")
		return nil, nil
	}
	e.running = true
	e.current = batch
	e.cancel = cancel
	batch.Status = models.BatchRunning
	// Each batch gets its own source, seeded from the engine source
	// while the lock is held. A cancelled batch's goroutine may still
	// be finishing an iteration when the next Start begins; it must
	// never share rng state with the new batch.
	rng := rand.New(rand.NewSource(e.rng.Int63()))
	e.mu.Unlock()

	return e.run(runCtx, batch, draws, rng)
}

func (e *Engine) run(ctx context.Context, batch *models.SimulationBatch, draws []models.DrawRecord, rng *rand.Rand) (*models.SimulationBatch, error) {
	gen, err := e.newGenerator(batch.Config.Method, rng)
	if err != nil {
		return nil, e.fail(batch, err)
	}

	rounds := batch.Config.Rounds
	for i := 0; i < rounds; i++ {
		if ctx.Err() != nil {
			// Cancel already dropped the batch; just stop.
			e.logger.WithField("batch_id", batch.ID).Info("simulation batch cancelled")
			return nil, nil
		}

		result, err := gen.Generate(draws, batch.Config)
		if err != nil {
			return nil, e.fail(batch, fmt.Errorf("generation failed at round %d: %w", i+1, err))
		}

		progress := int(math.Round(float64(i+1) / float64(rounds) * 100))

		e.mu.Lock()
		if e.current != batch {
			// Cancelled between iterations.
			e.mu.Unlock()
			return nil, nil
		}
		batch.Results = append(batch.Results, *result)
		batch.Progress = progress
		e.mu.Unlock()

		if e.sink != nil {
			e.sink.Publish(ProgressEvent{
				BatchID:      batch.ID,
				Progress:     progress,
				LatestResult: result,
			})
		}

		// Cooperative yield keeps the host responsive through the
		// CPU-bound strategies.
		if (i+1)%e.opts.YieldInterval == 0 {
			runtime.Gosched()
		}
	}

	now := time.Now().UTC()
	stats := ComputeStatistics(batch.Results)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != batch {
		return nil, nil
	}
	batch.Status = models.BatchCompleted
	batch.Progress = 100
	batch.CompletedAt = &now
	batch.Statistics = stats

	// Newest first, FIFO eviction beyond the retention bound.
	e.history = append([]*models.SimulationBatch{batch}, e.history...)
	if len(e.history) > e.opts.HistorySize {
		e.history = e.history[:e.opts.HistorySize]
	}
	e.current = nil
	e.running = false
	e.cancel = nil

	e.logger.WithFields(logrus.Fields{
		"batch_id": batch.ID,
		"method":   batch.Config.Method,
		"results":  len(batch.Results),
	}).Info("simulation batch completed")
	return batch, nil
}

// fail marks the batch failed, retaining partial results and the error
// message. Failed batches stay readable as the current batch but are
// not pushed to history; the engine remains usable for the next Start.
func (e *Engine) fail(batch *models.SimulationBatch, err error) error {
	now := time.Now().UTC()
	e.mu.Lock()
	defer e.mu.Unlock()
	batch.Status = models.BatchFailed
	batch.Error = err.Error()
	batch.CompletedAt = &now
	e.running = false
	e.cancel = nil
	e.logger.WithField("batch_id", batch.ID).WithError(err).Error("simulation batch failed")
	return err
}

// Cancel aborts the in-flight batch unconditionally. The half-finished
// batch is dropped, not preserved: history only ever holds completed
// batches. Takes effect within one iteration of the run loop.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = nil
	e.current = nil
	e.running = false
}

// RunAll executes one batch per requested method sequentially, pausing
// briefly between methods. Methods after a failure are still attempted;
// the first error is returned alongside the completed batches.
func (e *Engine) RunAll(ctx context.Context, methods []models.Method, rounds int) ([]*models.SimulationBatch, error) {
	if len(methods) == 0 {
		methods = models.AllMethods
	}
	delay := e.opts.InterMethodDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	var batches []*models.SimulationBatch
	var firstErr error
	for i, method := range methods {
		cfg := e.Config()
		cfg.Method = method
		if err := e.SetConfig(cfg); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		batch, err := e.Start(ctx, rounds)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if batch != nil {
			batches = append(batches, batch)
		}
		if i < len(methods)-1 {
			select {
			case <-ctx.Done():
				return batches, firstErr
			case <-time.After(delay):
			}
		}
	}
	return batches, firstErr
}

// Current returns the in-flight or most recently failed batch, nil when
// idle after a completed run.
func (e *Engine) Current() *models.SimulationBatch {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	return snapshotBatch(e.current)
}

// History returns the retained completed batches, newest first.
func (e *Engine) History() []*models.SimulationBatch {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.SimulationBatch, len(e.history))
	for i, b := range e.history {
		out[i] = snapshotBatch(b)
	}
	return out
}

// Batch looks up a batch by ID in the current slot and history.
func (e *Engine) Batch(id string) *models.SimulationBatch {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && e.current.ID == id {
		return snapshotBatch(e.current)
	}
	for _, b := range e.history {
		if b.ID == id {
			return snapshotBatch(b)
		}
	}
	return nil
}

func snapshotBatch(b *models.SimulationBatch) *models.SimulationBatch {
	copied := *b
	copied.Results = append([]models.SimulationResult(nil), b.Results...)
	return &copied
}
