package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kode4food/signoff/internal/engine"
)

func runBatch(cmd *cobra.Command, _ []string) error {
	a := newApp(cfg)
	defer a.close()
	if err := a.loadDefinitions(); err != nil {
		return err
	}
	if err := a.initStores(); err != nil {
		return err
	}
	if err := a.initRunStore(false); err != nil {
		return err
	}
	if err := a.initEngine(); err != nil {
		return err
	}

	ctx := cmd.Context()
	reqs, err := a.stores.Requests.Pending(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(reqs) == 0 {
		fmt.Fprintln(out, "no pending requests")
		return nil
	}

	flow, err := a.defs.Flow()
	if err != nil {
		return err
	}

	a.engine.Start()
	results := a.engine.RunBatch(ctx, flow, reqs)
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "%s\tfailed\t%s\n",
				r.Request.RequestID, r.Err)
		default:
			fmt.Fprintf(out, "%s\t%s\n",
				r.Request.RequestID, r.Result.Status)
		}
	}

	completed, failed := engine.Summarize(results)
	fmt.Fprintf(out, "completed %d, failed %d\n", completed, failed)
	return nil
}
