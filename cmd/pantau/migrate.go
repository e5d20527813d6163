package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/api"
	"github.com/pantau/pantau/internal/service"
	"github.com/pantau/pantau/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer closeDB(db)
		logger.Info("schema up to date", zap.String("database", cfg.Database.Path))
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Database %s is up to date", cfg.Database.Path), jsonOutput)
		return nil
	},
}

// importActor is recorded as the creator of imported rows without one.
var importActor = service.Actor{Username: "import"}

var importCmd = &cobra.Command{
	Use:   "import-legacy <dump.json>",
	Short: "Import agencies and issue reports from a legacy JSON dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		services, done, err := openServices()
		if err != nil {
			return err
		}
		defer done()

		return runImport(cmd, services, f)
	},
}

func runImport(cmd *cobra.Command, services api.Services, f *os.File) error {
	res, err := services.Importer.Import(cmd.Context(), f, importActor)
	if err != nil {
		return err
	}
	logger.Info("legacy dump imported",
		zap.String("file", f.Name()),
		zap.Int("agencies", res.Agencies),
		zap.Int("reports", res.Reports),
		zap.Int("skipped", res.Skipped))
	printImportResult(cmd.OutOrStdout(), res, jsonOutput)
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}
