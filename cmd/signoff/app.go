package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kode4food/timebox"
	"gocloud.dev/blob"

	"github.com/kode4food/signoff/internal/archive"
	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/internal/engine"
	"github.com/kode4food/signoff/internal/risk"
	"github.com/kode4food/signoff/internal/script"
	"github.com/kode4food/signoff/internal/store"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/log"
)

// signoff assembles the engine from configuration one stage at a time,
// so each command builds only the layers it needs
type signoff struct {
	cfg      *config.Config
	scripts  *script.Registry
	defs     *store.Definitions
	timebox  *timebox.Timebox
	runStore *timebox.Store
	stores   *store.Stores
	bucket   *blob.Bucket
	archiver *archive.Archiver
	engine   *engine.Engine
}

var (
	ErrCreateTimebox  = errors.New("failed to create timebox")
	ErrCreateRunStore = errors.New("failed to create run store")
	ErrCreateStores   = errors.New("failed to create stores")
	ErrOpenBucket     = errors.New("failed to open archive bucket")
)

func newApp(cfg *config.Config) *signoff {
	scripts := script.NewRegistry()
	return &signoff{
		cfg:     cfg,
		scripts: scripts,
		defs:    store.NewDefinitions(cfg.DataDir, scripts.ValidateFlow),
	}
}

// loadDefinitions reads the flow, rules, and provider files from the
// data directory
func (s *signoff) loadDefinitions() error {
	return s.defs.Load()
}

// initStores opens the request, history, and risk stores on the
// configured backend
func (s *signoff) initStores() error {
	stores, err := store.New(s.cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateStores, err)
	}
	s.stores = stores
	return nil
}

// initRunStore opens the event store runs are sourced from. Archiving
// enables the staging list the archive sweep and drain work against
func (s *signoff) initRunStore(archiving bool) error {
	tb, err := timebox.NewTimebox(timebox.Config{
		MaxRetries: timebox.DefaultMaxRetries,
		CacheSize:  s.cfg.RunCacheSize,
		Workers:    true,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateTimebox, err)
	}
	s.timebox = tb

	storeCfg := s.cfg.RunStore
	storeCfg.Archiving = archiving
	runStore, err := tb.NewStore(storeCfg)
	if err != nil {
		_ = tb.Close()
		s.timebox = nil
		return fmt.Errorf("%w: %w", ErrCreateRunStore, err)
	}
	s.runStore = runStore
	return nil
}

// initArchiver opens the blob bucket and builds the archiver that
// sweeps the given tenants
func (s *signoff) initArchiver(
	ctx context.Context, prefix string, tenants []api.Tenant,
) error {
	bucket, err := archive.OpenBucket(ctx, s.cfg.ArchiveURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenBucket, err)
	}
	s.bucket = bucket

	writer, err := archive.NewWriter(bucket, prefix)
	if err != nil {
		return err
	}
	arch, err := archive.New(
		s.runStore, s.stores.History, writer, s.cfg, tenants...,
	)
	if err != nil {
		return err
	}
	s.archiver = arch
	return nil
}

// initEngine assembles the engine over the stores built so far. The
// evaluator chain follows the configured risk provider
func (s *signoff) initEngine() error {
	eval := risk.New(s.cfg, s.defs.Providers(), s.defs.Rules())

	var arch engine.Archiver
	if s.archiver != nil {
		arch = s.archiver
	}

	eng, err := engine.New(s.cfg, engine.Dependencies{
		RunStore:  s.runStore,
		Stores:    s.stores,
		Defs:      s.defs,
		Evaluator: eval,
		Archiver:  arch,
	})
	if err != nil {
		return err
	}
	s.engine = eng
	return nil
}

// close tears down in dependency order: the engine stops before the
// bucket and event store it writes to
func (s *signoff) close() {
	if s.engine != nil {
		if err := s.engine.Stop(); err != nil {
			slog.Error("Engine shutdown failed", log.Error(err))
		}
	}
	if s.bucket != nil {
		_ = s.bucket.Close()
	}
	if s.timebox != nil {
		_ = s.timebox.Close()
	}
}
