package cli

import (
	"fmt"

	"busyness/internal/app"
	"busyness/internal/config"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a := app.New(cfg)
	if err := a.Init(cmd.Context()); err != nil {
		a.Shutdown()
		return fmt.Errorf("init app: %w", err)
	}

	return a.Run(cmd.Context())
}
