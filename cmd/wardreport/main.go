package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maternity-ward/reporting/internal/adapters/wardapi"
	"github.com/maternity-ward/reporting/internal/cache"
	"github.com/maternity-ward/reporting/internal/report"
	"github.com/maternity-ward/reporting/internal/shared/config"
	"github.com/maternity-ward/reporting/internal/shared/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wardreport",
		Short: "Maternity ward reporting service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the reporting API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runServer(cfg)
		},
	}
}

// reportRunners maps CLI report names to engine calls
var reportRunners = map[string]func(ctx context.Context, e *report.Engine) (any, error){
	"never-admitted": func(ctx context.Context, e *report.Engine) (any, error) {
		return e.PatientsNeverAdmitted(ctx)
	},
	"readmitted": func(ctx context.Context, e *report.Engine) (any, error) {
		return e.PatientsReadmittedWithin7Days(ctx)
	},
	"busiest-month": func(ctx context.Context, e *report.Engine) (any, error) {
		return e.MonthWithMostAdmissions(ctx)
	},
	"multiple-staff": func(ctx context.Context, e *report.Engine) (any, error) {
		return e.PatientsWithMultipleStaff(ctx)
	},
}

func reportNames() []string {
	names := make([]string, 0, len(reportRunners))
	for name := range reportRunners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "report <name>",
		Short:     "Run one report against the ward API and print it as JSON",
		Long:      "Available reports: " + strings.Join(reportNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: reportNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ok := reportRunners[args[0]]
			if !ok {
				return fmt.Errorf("unknown report %q (available: %s)", args[0], strings.Join(reportNames(), ", "))
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.IsDevelopment(), cfg.Log.Level)

			client := wardapi.New(wardAPIConfig(cfg), logger)
			engine := report.NewEngine(cache.New(client, logger), logger)

			result, err := run(cmd.Context(), engine)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func wardAPIConfig(cfg *config.Config) wardapi.Config {
	return wardapi.Config{
		BaseURL:              cfg.WardAPI.BaseURL,
		Timeout:              cfg.WardAPI.Timeout,
		RetryAttempts:        cfg.WardAPI.RetryAttempts,
		RetryDelay:           cfg.WardAPI.RetryDelay,
		MaxRequestsPerSecond: cfg.WardAPI.RequestsPerSecond,
		Burst:                cfg.WardAPI.Burst,
	}
}
