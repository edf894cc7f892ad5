package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func runGraph(cmd *cobra.Command, _ []string) error {
	a := newApp(cfg)
	if err := a.loadDefinitions(); err != nil {
		return err
	}

	flow, err := a.defs.Flow()
	if err != nil {
		return err
	}

	diagram := flow.Mermaid()
	if flagOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), diagram)
		return nil
	}
	return os.WriteFile(flagOut, []byte(diagram), 0o644)
}
