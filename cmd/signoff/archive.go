package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runArchive(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		<-stop
		cancel()
	}()

	a := newApp(cfg)
	defer a.close()
	if err := a.initStores(); err != nil {
		return err
	}
	if err := a.initRunStore(true); err != nil {
		return err
	}
	if err := a.initArchiver(ctx, flagPrefix, sweepTenants()); err != nil {
		return err
	}

	staged := a.archiver.Sweep(ctx)
	shipped, err := a.archiver.DrainStaged(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"staged %d runs, shipped %d records\n", staged, shipped)
	return nil
}
