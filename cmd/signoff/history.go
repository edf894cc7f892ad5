package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kode4food/signoff/pkg/api"
)

func runHistory(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	if err := a.initStores(); err != nil {
		return err
	}

	records, err := a.stores.History.Query(
		cmd.Context(), api.Tenant(flagTenant), api.RequestID(args[0]),
	)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no history records")
		return nil
	}
	return printJSON(cmd, records)
}
