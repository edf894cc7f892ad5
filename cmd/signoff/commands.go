package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/pkg/api"
)

var ErrInvalidAge = errors.New("retention age must be a positive duration")

var (
	cfg *config.Config

	flagDataDir    string
	flagLogLevel   string
	flagBackend    string
	flagArchiveURL string
	flagTenant     string
	flagTenants    []string
	flagRequest    string
	flagFile       string
	flagOut        string
	flagPrefix     string
	flagAge        string

	rootCmd = &cobra.Command{
		Use:   "signoff",
		Short: "Event-sourced approval workflow engine",
		Long: `Signoff walks approval requests through a declared flow of risk
evaluation, branching, approval stages, and notifications, recording
every transition as an event.

Definitions (flow.json, rules.json, llm_config.json) and the flat-file
stores live under the data directory. Environment variables configure
the engine; flags override them.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the flow, rules, and provider definitions",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Execute one approval request through the flow",
		Long: `Run executes a single request through the loaded flow and prints
the run result as JSON. The request comes from --request (inline JSON)
or --file (a JSON file).`,
		Args: cobra.NoArgs,
		RunE: runOne,
	}

	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Run every pending request from the request store",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}

	historyCmd = &cobra.Command{
		Use:   "history [request-id]",
		Short: "Print the history records for a request",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}

	graphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Export the flow as a Mermaid flowchart",
		Args:  cobra.NoArgs,
		RunE:  runGraph,
	}

	archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Archive completed runs older than the retention age",
		Long: `Archive sweeps history for completed runs older than the retention
age, stages their event trails, and ships them to the archive bucket
as JSON objects.`,
		Args: cobra.NoArgs,
		RunE: runArchive,
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Run as a daemon, processing requests as they arrive",
		Long: `Watch reloads definitions as their files change and runs new
requests as they land in the request store. With an archive bucket
configured it also sweeps aged-out runs in the background.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDataDir, "data-dir", "",
		"Directory holding definitions and flat-file stores")
	pf.StringVar(&flagLogLevel, "log-level", "",
		"Log level: debug, info, warn, or error")
	pf.StringVar(&flagBackend, "backend", "",
		"Store backend: file or redis")

	rootCmd.AddCommand(validateCmd)

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&flagRequest, "request", "",
		"Approval request as inline JSON")
	runCmd.Flags().StringVar(&flagFile, "file", "",
		"Path to a JSON file holding the approval request")

	rootCmd.AddCommand(batchCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&flagTenant, "tenant", "",
		"Tenant whose history to query")

	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&flagOut, "out", "o", "",
		"Write the diagram to a file instead of stdout")

	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().StringVar(&flagArchiveURL, "bucket", "",
		"Archive bucket URL (file://, s3://, gs://, azblob://)")
	archiveCmd.Flags().StringVar(&flagPrefix, "prefix", "runs",
		"Key prefix for archived objects")
	archiveCmd.Flags().StringArrayVar(&flagTenants, "tenant", nil,
		"Tenant to sweep, repeatable; the default tenant is always swept")
	archiveCmd.Flags().StringVar(&flagAge, "age", "",
		"Retention age override, e.g. 720h")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&flagArchiveURL, "bucket", "",
		"Archive bucket URL; empty disables background archiving")
	watchCmd.Flags().StringVar(&flagPrefix, "prefix", "runs",
		"Key prefix for archived objects")
	watchCmd.Flags().StringArrayVar(&flagTenants, "tenant", nil,
		"Tenant to sweep, repeatable; the default tenant is always swept")
}

// setup loads configuration and initializes logging before any command
// runs. Flags override environment values
func setup(cmd *cobra.Command, _ []string) error {
	cfg = config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}

	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagBackend != "" {
		cfg.StoreBackend = flagBackend
	}
	if flagArchiveURL != "" {
		cfg.ArchiveURL = flagArchiveURL
	}
	if flagAge != "" {
		age, err := time.ParseDuration(flagAge)
		if err != nil || age <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidAge, flagAge)
		}
		cfg.ArchiveAge = age
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cfg)
	return nil
}

// sweepTenants returns the tenants an archive sweep covers: the default
// tenant plus any named with --tenant
func sweepTenants() []api.Tenant {
	tenants := []api.Tenant{""}
	for _, t := range flagTenants {
		if t != "" {
			tenants = append(tenants, api.Tenant(t))
		}
	}
	return tenants
}
