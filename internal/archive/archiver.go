// Package archive moves aged-out runs to cold storage. An age sweep
// finds completed runs whose history records are older than the
// configured retention and stages their event trails for archival; a
// drain loop ships staged records to a blob bucket as JSON objects
package archive

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kode4food/timebox"

	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/internal/store"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/events"
	"github.com/kode4food/signoff/pkg/log"
)

type (
	// Archiver stages aged-out runs and drains them to the bucket
	Archiver struct {
		store        RunArchiveStore
		history      store.HistoryStore
		writer       *Writer
		tenants      []api.Tenant
		maxAge       time.Duration
		sweepEvery   time.Duration
		pollInterval time.Duration
		clock        func() time.Time
	}

	// RunArchiveStore is the slice of the event store the archiver
	// needs: staging aggregates for archival, polling staged records,
	// and checking whether a run still has live events
	RunArchiveStore interface {
		Archive(context.Context, timebox.AggregateID) error
		PollArchive(
			context.Context, time.Duration, timebox.ArchiveHandler,
		) error
		GetEvents(
			context.Context, timebox.AggregateID, int64,
		) ([]*timebox.Event, error)
	}
)

var (
	ErrStoreRequired    = errors.New("run store is required")
	ErrHistoryRequired  = errors.New("history store is required")
	ErrWriterRequired   = errors.New("archive writer is required")
	ErrIntervalInvalid  = errors.New("archive interval must be positive")
	ErrMaxAgeInvalid    = errors.New("archive age must be positive")
	ErrPollDelayInvalid = errors.New("archive poll delay must be positive")
)

// New creates an archiver over the given stores. The sweep covers the
// listed tenants; with none listed the archiver only drains records
// staged elsewhere
func New(
	runStore RunArchiveStore, history store.HistoryStore, writer *Writer,
	cfg *config.Config, tenants ...api.Tenant,
) (*Archiver, error) {
	if runStore == nil {
		return nil, ErrStoreRequired
	}
	if history == nil {
		return nil, ErrHistoryRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if cfg.ArchiveInterval <= 0 {
		return nil, ErrIntervalInvalid
	}
	if cfg.ArchiveAge <= 0 {
		return nil, ErrMaxAgeInvalid
	}
	if cfg.ArchivePoll <= 0 {
		return nil, ErrPollDelayInvalid
	}

	return &Archiver{
		store:        runStore,
		history:      history,
		writer:       writer,
		tenants:      tenants,
		maxAge:       cfg.ArchiveAge,
		sweepEvery:   cfg.ArchiveInterval,
		pollInterval: cfg.ArchivePoll,
		clock:        time.Now,
	}, nil
}

// Run sweeps on the configured interval and drains staged records
// continuously until the context is canceled
func (a *Archiver) Run(ctx context.Context) error {
	drained := make(chan error, 1)
	go func() {
		drained <- a.drain(ctx)
	}()

	ticker := time.NewTicker(a.sweepEvery)
	defer ticker.Stop()

	a.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return <-drained
		case err := <-drained:
			return err
		case <-ticker.C:
			a.Sweep(ctx)
		}
	}
}

// Sweep stages every run whose completion predates the retention age.
// Returns the number of runs staged; failures are logged and skipped
// so one bad record never stalls the sweep
func (a *Archiver) Sweep(ctx context.Context) int {
	cutoff := a.clock().Add(-a.maxAge)
	staged := 0
	for _, tenant := range a.tenants {
		records, err := a.history.All(ctx, tenant)
		if err != nil {
			slog.Warn("Failed to read history for archive sweep",
				log.Tenant(tenant), log.Error(err))
			continue
		}
		for _, rec := range records {
			if a.sweepRecord(ctx, tenant, rec, cutoff) {
				staged++
			}
		}
	}
	return staged
}

// DrainStaged ships staged records to the bucket until a poll passes
// with none pending. Returns the number of records shipped
func (a *Archiver) DrainStaged(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := a.drainOnce(ctx)
		total += n
		if err != nil || n == 0 {
			return total, err
		}
	}
}

func (a *Archiver) sweepRecord(
	ctx context.Context, tenant api.Tenant, rec api.HistoryRecord,
	cutoff time.Time,
) bool {
	runID := rec.RunID()
	if runID == "" {
		return false
	}
	completed := rec.CompletedAt()
	if completed.IsZero() || completed.After(cutoff) {
		return false
	}

	id := events.RunKey(runID)
	evs, err := a.store.GetEvents(ctx, id, 0)
	if err != nil {
		slog.Warn("Failed to check run for archival",
			log.RunID(runID), log.Error(err))
		return false
	}
	if len(evs) == 0 {
		// already archived on a previous sweep
		return false
	}

	if err := a.store.Archive(ctx, id); err != nil {
		slog.Warn("Failed to stage run for archival",
			log.RunID(runID), log.Error(err))
		return false
	}
	slog.Info("Run staged for archival",
		log.RunID(runID), log.Tenant(tenant))
	return true
}

func (a *Archiver) drain(ctx context.Context) error {
	for ctx.Err() == nil {
		if _, err := a.drainOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (a *Archiver) drainOnce(ctx context.Context) (int, error) {
	n := 0
	err := a.store.PollArchive(ctx, a.pollInterval,
		func(ctx context.Context, rec *timebox.ArchiveRecord) error {
			n++
			return a.writer.Write(ctx, rec)
		},
	)
	return n, err
}
