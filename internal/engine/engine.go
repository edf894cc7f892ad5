// Package engine walks approval flows over event-sourced run state.
// The walker advances one node at a time, recording every transition
// as an event before acting on it, so any run can be rebuilt and
// audited from its trail alone
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kode4food/timebox"

	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/internal/notify"
	"github.com/kode4food/signoff/internal/risk"
	"github.com/kode4food/signoff/internal/script"
	"github.com/kode4food/signoff/internal/store"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/events"
	"github.com/kode4food/signoff/pkg/log"
)

type (
	// Engine executes approval flows against their backing stores
	Engine struct {
		runExec  *Executor
		defs     *store.Definitions
		stores   *store.Stores
		eval     risk.Evaluator
		scripts  *script.Registry
		decider  Decider
		queue    *notify.Queue
		archiver Archiver
		config   *config.Config
		clock    Clock
		ctx      context.Context
		cancel   context.CancelFunc
		wg       sync.WaitGroup
	}

	// Dependencies are the collaborators an Engine is assembled from.
	// RunStore, Stores, and Evaluator are required; the rest default to
	// the stock implementations
	Dependencies struct {
		RunStore  *timebox.Store
		Stores    *store.Stores
		Defs      *store.Definitions
		Evaluator risk.Evaluator
		Decider   Decider
		Notifiers notify.Notifiers
		Archiver  Archiver
		Clock     Clock
	}

	// Archiver sweeps aged-out runs to cold storage in the background
	Archiver interface {
		Run(context.Context) error
	}

	// Executor manages run state persistence and event sourcing
	Executor = timebox.Executor[*api.RunState]

	// Aggregator aggregates run state from events
	Aggregator = timebox.Aggregator[*api.RunState]
)

var (
	ErrRunStoreRequired  = errors.New("run store is required")
	ErrStoresRequired    = errors.New("stores are required")
	ErrEvaluatorRequired = errors.New("risk evaluator is required")
	ErrRunNotFound       = errors.New("run not found")
	ErrRunExists         = errors.New("run exists")
	ErrStepLimit         = errors.New("run exceeded step limit")
	ErrNoBranchMatched   = errors.New("no branch condition matched")
	ErrInvalidTransition = errors.New("invalid run status transition")
	ErrShutdownTimeout   = errors.New("shutdown timeout exceeded")
)

// New creates an engine instance from the specified configuration and
// collaborators
func New(cfg *config.Config, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.RunStore == nil {
		return nil, ErrRunStoreRequired
	}
	if deps.Stores == nil {
		return nil, ErrStoresRequired
	}
	if deps.Evaluator == nil {
		return nil, ErrEvaluatorRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	decider := deps.Decider
	if decider == nil {
		decider = NewAutoDecider(clock)
	}
	notifiers := deps.Notifiers
	if notifiers == nil {
		notifiers = DefaultNotifiers(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		runExec: timebox.NewExecutor(
			deps.RunStore, events.NewRunState, events.RunAppliers,
		),
		defs:    deps.Defs,
		stores:  deps.Stores,
		eval:    deps.Evaluator,
		scripts: script.NewRegistry(),
		decider: decider,
		queue: notify.NewQueue(
			notify.NewDispatcher(notifiers),
			cfg.NotifyBatch, cfg.NotifyWorkers,
		),
		archiver: deps.Archiver,
		config:   cfg,
		clock:    clock,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// DefaultNotifiers wires the stock channel integrations from
// configuration
func DefaultNotifiers(cfg *config.Config) notify.Notifiers {
	return notify.Notifiers{
		api.ChannelEmail: notify.NewEmailNotifier(),
		api.ChannelERP: notify.NewERPNotifier(
			cfg.ERPEndpoint,
			time.Duration(cfg.ERPTimeout)*time.Millisecond,
		),
		api.ChannelAlert: notify.NewAlertNotifier(),
	}
}

// Start begins delivering notifications and, when an archiver is
// wired, sweeping aged-out runs to cold storage
func (e *Engine) Start() {
	slog.Info("Engine starting")

	e.queue.Start()
	if e.archiver != nil {
		e.wg.Go(func() {
			if err := e.archiver.Run(e.ctx); err != nil &&
				!errors.Is(err, context.Canceled) {
				slog.Error("Archiver stopped", log.Error(err))
			}
		})
	}
}

// Stop drains queued notifications and shuts the engine down
func (e *Engine) Stop() error {
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		e.queue.Flush()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Engine stopped")
		return nil
	case <-time.After(e.config.ShutdownTimeout):
		e.queue.Cancel()
		return ErrShutdownTimeout
	}
}

// GetRunState rebuilds a run's state from its event trail
func (e *Engine) GetRunState(
	ctx context.Context, runID api.RunID,
) (*api.RunState, error) {
	st, err := e.execRun(ctx, events.RunKey(runID), noCommand)
	if err != nil {
		return nil, err
	}
	if st.RunID == "" {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return st, nil
}

func (e *Engine) rules() *api.Rules {
	if e.defs != nil {
		return e.defs.Rules()
	}
	return api.DefaultRules()
}

func (e *Engine) execRun(
	ctx context.Context, id timebox.AggregateID,
	cmd timebox.Command[*api.RunState],
) (*api.RunState, error) {
	return e.runExec.Exec(ctx, id, cmd)
}

func (e *Engine) raiseRunEvent(
	ctx context.Context, runID api.RunID, eventType api.EventType, data any,
) (*api.RunState, error) {
	return e.execRun(ctx, events.RunKey(runID),
		func(_ *api.RunState, ag *Aggregator) error {
			return events.Raise(ag, eventType, data)
		},
	)
}

func noCommand(*api.RunState, *Aggregator) error {
	return nil
}
