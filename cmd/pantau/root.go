package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pantau/pantau/internal/api"
	"github.com/pantau/pantau/internal/config"
	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/files"
	"github.com/pantau/pantau/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pantau",
	Short: "Pantau monitoring reports",
	Long:  `Admin web application for issue boards and staff reports of the regional leadership.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Global flags
var (
	configPath string
	jsonOutput bool
)

// Resolved in PersistentPreRunE
var (
	cfg    *config.Config
	logger *zap.Logger
)

// errConfig marks failures to resolve the configuration.
var errConfig = errors.New("configuration error")

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to pantau.toml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}

func setup() error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	l, err := newLogger(c)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	cfg, logger = c, l
	return nil
}

// newLogger builds the zap logger described by the [log] section.
func newLogger(c *config.Config) (*zap.Logger, error) {
	level, err := c.ZapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// openServices opens the database and upload tree for the admin commands.
// The returned function closes them.
func openServices() (api.Services, func(), error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return api.Services{}, nil, err
	}
	uploads, err := files.New(cfg.Storage.Root)
	if err != nil {
		db.Close()
		return api.Services{}, nil, err
	}
	return api.NewServices(db, uploads, logger), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
}

// exitCode maps err to the process exit code.
func exitCode(err error) int {
	if errors.Is(err, errConfig) {
		return ExitConfigError
	}
	switch {
	case domain.IsCode(err, domain.ErrCodeValidationFailed):
		return ExitValidationError
	case domain.IsCode(err, domain.ErrCodeNotFound), domain.IsCode(err, domain.ErrCodeUnauthorized):
		return ExitNotFound
	}
	return ExitGeneralError
}

// Execute runs the root command
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if logger != nil {
		logger.Sync()
	}
	if err != nil {
		printError(os.Stderr, err, jsonOutput)
		os.Exit(exitCode(err))
	}
}
