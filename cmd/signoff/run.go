package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kode4food/signoff/pkg/api"
)

var ErrRequestInput = errors.New(
	"exactly one of --request or --file is required",
)

func runOne(cmd *cobra.Command, _ []string) error {
	req, err := loadRequest()
	if err != nil {
		return err
	}

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

	flow, err := a.defs.Flow()
	if err != nil {
		return err
	}

	a.engine.Start()
	res, runErr := a.engine.RunWithMeta(
		cmd.Context(), flow, req, api.Metadata{api.MetaSource: "cli"},
	)
	if res != nil {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	}
	return runErr
}

// loadRequest reads the approval request from the --request or --file
// flag
func loadRequest() (*api.ApprovalRequest, error) {
	var data []byte
	switch {
	case flagRequest != "" && flagFile != "":
		return nil, ErrRequestInput
	case flagRequest != "":
		data = []byte(flagRequest)
	case flagFile != "":
		b, err := os.ReadFile(flagFile)
		if err != nil {
			return nil, err
		}
		data = b
	default:
		return nil, ErrRequestInput
	}

	req := &api.ApprovalRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
