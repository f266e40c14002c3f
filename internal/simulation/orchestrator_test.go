package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/jstittsworth/lotto-engine/internal/generator"
	"github.com/jstittsworth/lotto-engine/internal/models"
)

// mockCorpus serves a fixed draw slice and can simulate fetch failures.
type mockCorpus struct {
	draws []models.DrawRecord
	err   error
}

func (m *mockCorpus) FetchDraws(ctx context.Context, r *models.RoundRange) ([]models.DrawRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.draws, nil
}

// recordingSink collects progress events in publish order.
type recordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (s *recordingSink) Publish(event ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) all() []ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProgressEvent(nil), s.events...)
}

// stubGenerator lets tests control per-call behavior.
type stubGenerator struct {
	method   models.Method
	rng      *rand.Rand // consumed per call when non-nil
	calls    int
	failAt   int           // fail on the Nth call when > 0
	perCall  time.Duration // sleep per call to keep batches observable
	started  chan struct{} // closed on first call when non-nil
	onceOpen sync.Once
}

func (g *stubGenerator) Method() models.Method { return g.method }

func (g *stubGenerator) Generate(draws []models.DrawRecord, cfg models.GenerationConfig) (*models.SimulationResult, error) {
	if g.started != nil {
		g.onceOpen.Do(func() { close(g.started) })
	}
	g.calls++
	if g.failAt > 0 && g.calls >= g.failAt {
		return nil, fmt.Errorf("stub generation failure")
	}
	if g.rng != nil {
		g.rng.Intn(models.MaxNumber)
	}
	if g.perCall > 0 {
		time.Sleep(g.perCall)
	}
	return &models.SimulationResult{
		ID:         fmt.Sprintf("result-%d", g.calls),
		Method:     g.method,
		Numbers:    []int{1, 2, 3, 4, 5, 6},
		Confidence: 0.5,
	}, nil
}

func testDraws(n int) []models.DrawRecord {
	rng := rand.New(rand.NewSource(11))
	draws := make([]models.DrawRecord, 0, n)
	for i := 1; i <= n; i++ {
		nums := rng.Perm(models.MaxNumber)[:models.PickCount]
		for j := range nums {
			nums[j]++
		}
		draws = append(draws, models.DrawRecord{
			Round:       i,
			MainNumbers: datatypes.NewJSONSlice(nums),
		})
	}
	return draws
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestEngine(corpus CorpusAccessor, sink ProgressSink, opts Options) *Engine {
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	return NewEngine(corpus, sink, quietLogger(), opts)
}

func TestStartCompletesBatch(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(30)}
	sink := &recordingSink{}
	engine := newTestEngine(corpus, sink, Options{})

	cfg := models.DefaultGenerationConfig()
	cfg.Rounds = 20
	require.NoError(t, engine.SetConfig(cfg))

	batch, err := engine.Start(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, models.BatchCompleted, batch.Status)
	assert.Equal(t, 100, batch.Progress)
	assert.Len(t, batch.Results, 20)
	require.NotNil(t, batch.CompletedAt)
	assert.NotNil(t, batch.Statistics)
	assert.Equal(t, 20, batch.Statistics.TotalResults)
	assert.False(t, engine.IsRunning())
	assert.Nil(t, engine.Current())

	// One event per iteration, monotone progress ending at 100.
	events := sink.all()
	require.Len(t, events, 20)
	prev := 0
	for _, event := range events {
		assert.Equal(t, batch.ID, event.BatchID)
		assert.GreaterOrEqual(t, event.Progress, prev)
		assert.NotNil(t, event.LatestResult)
		prev = event.Progress
	}
	assert.Equal(t, 100, events[len(events)-1].Progress)

	// Completed batch is retrievable by id and in history.
	assert.NotNil(t, engine.Batch(batch.ID))
	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, batch.ID, history[0].ID)
}

func TestStartEmptyCorpusIsNoOp(t *testing.T) {
	engine := newTestEngine(&mockCorpus{}, nil, Options{})

	batch, err := engine.Start(context.Background(), 0)
	assert.NoError(t, err)
	assert.Nil(t, batch)
	assert.False(t, engine.IsRunning())
	assert.Empty(t, engine.History())

	ok, err := engine.CanRun(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestStartFetchErrorPropagates(t *testing.T) {
	corpus := &mockCorpus{err: fmt.Errorf("database offline")}
	engine := newTestEngine(corpus, nil, Options{})

	batch, err := engine.Start(context.Background(), 0)
	assert.Nil(t, batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database offline")
}

func TestStartWhileRunningIsNoOp(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(10)}
	engine := newTestEngine(corpus, nil, Options{})

	stub := &stubGenerator{
		method:  models.MethodFrequency,
		perCall: 5 * time.Millisecond,
		started: make(chan struct{}),
	}
	engine.newGenerator = func(models.Method, *rand.Rand) (generator.Generator, error) {
		return stub, nil
	}

	cfg := models.DefaultGenerationConfig()
	cfg.Rounds = 200
	require.NoError(t, engine.SetConfig(cfg))

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Start(context.Background(), 0)
	}()

	<-stub.started
	batch, err := engine.Start(context.Background(), 0)
	assert.NoError(t, err)
	assert.Nil(t, batch)

	engine.Cancel()
	<-done
}

func TestCancelDropsBatch(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(10)}
	sink := &recordingSink{}
	engine := newTestEngine(corpus, sink, Options{})

	stub := &stubGenerator{
		method:  models.MethodFrequency,
		perCall: 5 * time.Millisecond,
		started: make(chan struct{}),
	}
	engine.newGenerator = func(models.Method, *rand.Rand) (generator.Generator, error) {
		return stub, nil
	}

	cfg := models.DefaultGenerationConfig()
	cfg.Rounds = 500
	require.NoError(t, engine.SetConfig(cfg))

	var batch *models.SimulationBatch
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		batch, err = engine.Start(context.Background(), 0)
	}()

	<-stub.started
	engine.Cancel()
	<-done

	// Cancelled work is dropped, not preserved.
	assert.NoError(t, err)
	assert.Nil(t, batch)
	assert.False(t, engine.IsRunning())
	assert.Nil(t, engine.Current())
	assert.Empty(t, engine.History())

	// The engine remains usable.
	quick := models.DefaultGenerationConfig()
	quick.Rounds = 2
	require.NoError(t, engine.SetConfig(quick))
	engine.newGenerator = generator.New
	next, err := engine.Start(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, models.BatchCompleted, next.Status)
}

func TestCancelThenImmediateRestart(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(10)}
	engine := newTestEngine(corpus, nil, Options{})

	// Both batches draw from the random source the engine hands them,
	// the first slowly enough that its goroutine is still mid-iteration
	// when the second batch starts.
	first := &stubGenerator{
		method:  models.MethodFrequency,
		perCall: 2 * time.Millisecond,
		started: make(chan struct{}),
	}
	var genMu sync.Mutex
	genCalls := 0
	engine.newGenerator = func(_ models.Method, rng *rand.Rand) (generator.Generator, error) {
		genMu.Lock()
		defer genMu.Unlock()
		genCalls++
		if genCalls == 1 {
			first.rng = rng
			return first, nil
		}
		return &stubGenerator{method: models.MethodFrequency, rng: rng}, nil
	}

	cfg := models.DefaultGenerationConfig()
	cfg.Rounds = 500
	require.NoError(t, engine.SetConfig(cfg))

	var dropped *models.SimulationBatch
	var droppedErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		dropped, droppedErr = engine.Start(context.Background(), 0)
	}()

	<-first.started
	engine.Cancel()

	// Restart immediately, without waiting for the dropped batch's
	// goroutine to drain. The new batch must run to completion on its
	// own random source.
	next, err := engine.Start(context.Background(), 50)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, models.BatchCompleted, next.Status)
	assert.Len(t, next.Results, 50)

	<-done
	assert.NoError(t, droppedErr)
	assert.Nil(t, dropped)

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, next.ID, history[0].ID)
}

func TestCancelWhenIdleIsHarmless(t *testing.T) {
	engine := newTestEngine(&mockCorpus{draws: testDraws(5)}, nil, Options{})
	engine.Cancel()
	assert.False(t, engine.IsRunning())
}

func TestFailureRetainsPartialResults(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(10)}
	engine := newTestEngine(corpus, nil, Options{})

	engine.newGenerator = func(models.Method, *rand.Rand) (generator.Generator, error) {
		return &stubGenerator{method: models.MethodFrequency, failAt: 4}, nil
	}

	cfg := models.DefaultGenerationConfig()
	cfg.Rounds = 10
	require.NoError(t, engine.SetConfig(cfg))

	batch, err := engine.Start(context.Background(), 0)
	assert.Nil(t, batch)
	require.Error(t, err)

	// The failed batch stays readable with its partial results, but
	// never enters history.
	current := engine.Current()
	require.NotNil(t, current)
	assert.Equal(t, models.BatchFailed, current.Status)
	assert.Len(t, current.Results, 3)
	assert.NotEmpty(t, current.Error)
	require.NotNil(t, current.CompletedAt)
	assert.Empty(t, engine.History())
	assert.False(t, engine.IsRunning())

	// A fresh batch can start after the failure.
	engine.newGenerator = generator.New
	cfg.Rounds = 2
	require.NoError(t, engine.SetConfig(cfg))
	next, err := engine.Start(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, next)
}

func TestHistoryFIFOEviction(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(15)}
	engine := newTestEngine(corpus, nil, Options{HistorySize: 2})

	cfg := models.DefaultGenerationConfig()
	cfg.Rounds = 2
	require.NoError(t, engine.SetConfig(cfg))

	var ids []string
	for i := 0; i < 3; i++ {
		batch, err := engine.Start(context.Background(), 0)
		require.NoError(t, err)
		require.NotNil(t, batch)
		ids = append(ids, batch.ID)
	}

	history := engine.History()
	require.Len(t, history, 2)
	// Newest first; the oldest batch was evicted.
	assert.Equal(t, ids[2], history[0].ID)
	assert.Equal(t, ids[1], history[1].ID)
	assert.Nil(t, engine.Batch(ids[0]))
}

func TestRoundsOverrideValidation(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(10)}
	engine := newTestEngine(corpus, nil, Options{MaxRounds: 50})

	batch, err := engine.Start(context.Background(), 51)
	assert.Nil(t, batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")

	batch, err = engine.Start(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Len(t, batch.Results, 3)
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	engine := newTestEngine(&mockCorpus{draws: testDraws(5)}, nil, Options{})

	bad := models.DefaultGenerationConfig()
	bad.Method = "palmistry"
	require.Error(t, engine.SetConfig(bad))

	// The previous config is untouched.
	assert.Equal(t, models.MethodFrequency, engine.Config().Method)
}

func TestSetConfigSnapshotIsolation(t *testing.T) {
	engine := newTestEngine(&mockCorpus{draws: testDraws(5)}, nil, Options{})

	cfg := models.DefaultGenerationConfig()
	cfg.ExcludeNumbers = []int{1, 2}
	require.NoError(t, engine.SetConfig(cfg))

	// Mutating the caller's slice after SetConfig has no effect.
	cfg.ExcludeNumbers[0] = 44
	assert.Equal(t, []int{1, 2}, engine.Config().ExcludeNumbers)
}

func TestRunAllExecutesEveryMethod(t *testing.T) {
	corpus := &mockCorpus{draws: testDraws(40)}
	engine := newTestEngine(corpus, nil, Options{
		HistorySize:      10,
		InterMethodDelay: time.Millisecond,
	})

	cfg := models.DefaultGenerationConfig()
	cfg.Rounds = 2
	cfg.Iterations = 50
	require.NoError(t, engine.SetConfig(cfg))

	methods := []models.Method{models.MethodFrequency, models.MethodMarkov, models.MethodMonteCarlo}
	batches, err := engine.RunAll(context.Background(), methods, 0)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	for i, batch := range batches {
		assert.Equal(t, methods[i], batch.Config.Method)
		assert.Equal(t, models.BatchCompleted, batch.Status)
		assert.Len(t, batch.Results, 2)
	}
	assert.Len(t, engine.History(), 3)
}

func TestSeededEngineIsDeterministic(t *testing.T) {
	draws := testDraws(60)

	run := func() [][]int {
		engine := newTestEngine(&mockCorpus{draws: draws}, nil, Options{Seed: 1234})
		cfg := models.DefaultGenerationConfig()
		cfg.Rounds = 5
		require.NoError(t, engine.SetConfig(cfg))

		batch, err := engine.Start(context.Background(), 0)
		require.NoError(t, err)
		require.NotNil(t, batch)

		combos := make([][]int, len(batch.Results))
		for i, r := range batch.Results {
			combos[i] = r.Numbers
		}
		return combos
	}

	assert.Equal(t, run(), run())
}
