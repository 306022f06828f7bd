package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	syncapp "github.com/stacklok/accreg-sync/internal/app"
	"github.com/stacklok/accreg-sync/internal/config"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync pass and exit",
		Long: `Fetch, parse and reconcile one registry snapshot using the configured source,
then record the outcome in the sync status and exit.

--file overrides the configured source with a local snapshot (XML or zip archive).`,
		RunE: runSync,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().String("file", "", "Read the snapshot from this file instead of the configured source")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("failed to get file flag: %w", err)
	}
	if file != "" {
		cfg.Source.Type = config.SourceTypeFile
		cfg.Source.File = &config.FileConfig{Path: file}
	}

	tel, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tel)

	app, err := syncapp.NewSyncApp(ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithMeterProvider(tel.MeterProvider()),
		syncapp.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	result, err := app.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "synced %s (%s): %d institutions, %d programs, %d deleted\n",
		result.Origin, result.Hash,
		len(result.Reconcile.KeptInstitutionIDs), len(result.Reconcile.KeptProgramIDs),
		result.Reconcile.Institutions.Deleted+result.Reconcile.Programs.Deleted)
	slog.Debug("Sync command finished", "duration", result.Duration)
	return err
}
