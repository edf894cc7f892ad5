package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runValidate(cmd *cobra.Command, _ []string) error {
	a := newApp(cfg)
	if err := a.loadDefinitions(); err != nil {
		return err
	}

	flow, err := a.defs.Flow()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "flow %s: %d nodes, %d approval roles\n",
		flow.FlowID, len(flow.Nodes), len(flow.ApprovalRoles()))

	if unreachable := flow.Unreachable(); len(unreachable) > 0 {
		fmt.Fprintf(out, "warning: unreachable nodes: %v\n", unreachable)
	}

	rules := a.defs.Rules()
	fmt.Fprintf(out, "rules: threshold %.0f, %d approvers\n",
		rules.Threshold(), len(rules.Approvers))

	if providers := a.defs.Providers(); len(providers) > 0 {
		fmt.Fprintf(out, "providers: %d tenants mapped\n", len(providers))
	}

	fmt.Fprintln(out, "ok")
	return nil
}
