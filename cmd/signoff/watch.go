package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kode4food/signoff/internal/store"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/log"
	"github.com/kode4food/signoff/pkg/util"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	a := newApp(cfg)
	defer a.close()
	if err := a.loadDefinitions(); err != nil {
		return err
	}
	if err := a.initStores(); err != nil {
		return err
	}
	if err := a.initRunStore(true); err != nil {
		return err
	}
	if cfg.ArchiveURL != "" {
		err := a.initArchiver(cmd.Context(), flagPrefix, sweepTenants())
		if err != nil {
			return err
		}
	}
	if err := a.initEngine(); err != nil {
		return err
	}

	wake := make(chan struct{}, 1)
	watcher, err := store.NewWatcher(a.defs, cfg.WatchDebounce, func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	a.engine.Start()
	watcher.Start()
	defer watcher.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	slog.Info("Watching for requests",
		slog.String("data_dir", cfg.DataDir))

	// run whatever is already pending before the first change lands
	seen := util.Set[api.RequestID]{}
	a.processPending(cmd.Context(), seen)
	for {
		select {
		case <-quit:
			slog.Info("Shutting down")
			return nil
		case <-wake:
			a.processPending(cmd.Context(), seen)
		}
	}
}

// processPending runs every request in the store that this daemon has
// not already run. Requests are never retried; a failed run stays on
// its trail for inspection
func (s *signoff) processPending(
	ctx context.Context, seen util.Set[api.RequestID],
) {
	flow, err := s.defs.Flow()
	if err != nil {
		slog.Error("No flow loaded", log.Error(err))
		return
	}

	reqs, err := s.stores.Requests.Pending(ctx)
	if err != nil {
		slog.Error("Failed to read pending requests", log.Error(err))
		return
	}

	meta := api.Metadata{
		api.MetaSource:   "watch",
		api.MetaFlowFile: store.FlowFile,
	}
	for _, req := range reqs {
		if seen.Contains(req.RequestID) {
			continue
		}
		seen.Add(req.RequestID)

		res, err := s.engine.RunWithMeta(ctx, flow, req, meta)
		if err != nil {
			slog.Error("Run failed",
				log.RequestID(req.RequestID),
				log.Error(err))
			continue
		}
		slog.Info("Run finished",
			log.RequestID(req.RequestID),
			log.RunID(res.InstanceID),
			log.Status(res.Status))
	}
}
