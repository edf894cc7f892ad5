package helpers

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kode4food/timebox"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/internal/engine"
	"github.com/kode4food/signoff/internal/store"
)

// TestEngineEnv holds all the components needed for engine testing
type TestEngineEnv struct {
	Engine    *engine.Engine
	Redis     *miniredis.Miniredis
	Stores    *store.Stores
	Config    *config.Config
	Evaluator *MockEvaluator
	Notifier  *MockNotifier
	Cleanup   func()
	runStore  *timebox.Store
}

const testStoreCacheSize = 100

// NewTestConfig creates a default configuration with debug logging
// enabled
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	return cfg
}

// NewTestEngine creates a fully configured test engine environment with
// an in-memory Redis backend for run events, file stores in a temp
// directory, and mocks for risk evaluation and notifications
func NewTestEngine(t *testing.T) *TestEngineEnv {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	tb, err := timebox.NewTimebox(timebox.Config{
		MaxRetries: timebox.DefaultMaxRetries,
		CacheSize:  testStoreCacheSize,
		Workers:    true,
	})
	require.NoError(t, err)

	cfg := NewTestConfig()
	cfg.DataDir = t.TempDir()
	cfg.RunStore.Addr = server.Addr()
	cfg.RunStore.Prefix = "test-run"

	runStore, err := tb.NewStore(cfg.RunStore)
	require.NoError(t, err)

	stores := store.NewFileStores(cfg.DataDir)
	eval := NewMockEvaluator()
	notifier := NewMockNotifier()

	eng, err := engine.New(cfg, engine.Dependencies{
		RunStore:  runStore,
		Stores:    stores,
		Evaluator: eval,
		Notifiers: notifier.Channels(),
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = eng.Stop()
		_ = tb.Close()
		server.Close()
	}

	return &TestEngineEnv{
		Engine:    eng,
		Redis:     server,
		Stores:    stores,
		Config:    cfg,
		Evaluator: eval,
		Notifier:  notifier,
		Cleanup:   cleanup,
		runStore:  runStore,
	}
}

// NewEngineInstance creates a new engine instance sharing the same
// stores and mocks. Used to simulate process restart after crash
func (e *TestEngineEnv) NewEngineInstance(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(e.Config, engine.Dependencies{
		RunStore:  e.runStore,
		Stores:    e.Stores,
		Evaluator: e.Evaluator,
		Notifiers: e.Notifier.Channels(),
	})
	require.NoError(t, err)
	return eng
}

// RunStore exposes the timebox store backing run events for tests that
// archive or inspect trails directly
func (e *TestEngineEnv) RunStore() *timebox.Store {
	return e.runStore
}

// WithTestEnv creates a test engine environment, executes the provided
// function with it, and ensures cleanup happens automatically
func WithTestEnv(t *testing.T, fn func(*TestEngineEnv)) {
	t.Helper()
	testEnv := NewTestEngine(t)
	defer testEnv.Cleanup()
	fn(testEnv)
}

// WithEngine creates a test engine, executes the provided function with
// it, and ensures cleanup happens automatically
func WithEngine(t *testing.T, fn func(*engine.Engine)) {
	t.Helper()
	WithTestEnv(t, func(env *TestEngineEnv) {
		fn(env.Engine)
	})
}

// WithStartedEngine creates a test engine, starts its notification
// queue, executes the provided function, and ensures cleanup happens
// automatically
func WithStartedEngine(t *testing.T, fn func(*TestEngineEnv)) {
	t.Helper()
	WithTestEnv(t, func(env *TestEngineEnv) {
		env.Engine.Start()
		fn(env)
	})
}
