package cli

import (
	"fmt"

	"busyness/internal/config"
	"busyness/internal/logger"
	"busyness/internal/repository/postgres"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd, (*postgres.Storage).Migrate)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd, (*postgres.Storage).Down)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func withStorage(cmd *cobra.Command, run func(*postgres.Storage) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Repository.Type != config.RepositoryPostgres {
		return fmt.Errorf("migrations need repository.type %q, got %q", config.RepositoryPostgres, cfg.Repository.Type)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	storage, err := postgres.New(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer storage.Close()

	return run(storage)
}
